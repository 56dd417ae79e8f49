// Package analysis is the rule-based summarization engine. It annotates
// blocks and pages with content classification, language, entities and
// quality signals without any model calls, so results are deterministic.
package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

var (
	reMoney      = regexp.MustCompile(`[\$₩¥€£]\s*[\d,]+\.?\d*|[\d,]+\.?\d*\s*[\$₩¥€£]`)
	reDate       = regexp.MustCompile(`\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]\d{4}`)
	reEmail      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// Covers both 3-3-4 numbers and Korean mobile 3-4-4 numbers.
	rePhone      = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{2,3}\)?[-.\s]?\d{3,4}[-.\s]?\d{4}`)
	reDigits     = regexp.MustCompile(`\d+`)
	reNumberOnly = regexp.MustCompile(`^\d+\.?\d*$`)
	reUpperRun   = regexp.MustCompile(`^[A-Z][^a-z]*$`)
	reHangulRun  = regexp.MustCompile(`[가-힣]+`)
	reLatinRun   = regexp.MustCompile(`[A-Za-z]+`)
	reWord       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

var titleKeywords = []string{"invoice", "contract", "report", "인보이스", "계약서", "보고서"}

var headerKeywords = []string{"from:", "to:", "date:", "subject:", "발신:", "수신:", "날짜:", "제목:"}

var addressKeywords = []string{"street", "avenue", "road", "city", "시", "구", "동", "로", "길"}

var criticalKeywords = []string{
	"invoice", "total", "amount", "due", "payment", "contract",
	"인보이스", "총액", "합계", "지불", "계약", "청구서",
}

var importantKeywords = []string{
	"company", "client", "date", "number", "address", "tax",
	"회사", "고객", "날짜", "번호", "주소", "세금",
}

var importanceByType = map[domain.BlockType]string{
	domain.BlockTitle:     "critical",
	domain.BlockNumber:    "important",
	domain.BlockDate:      "important",
	domain.BlockEmail:     "important",
	domain.BlockPhone:     "important",
	domain.BlockAddress:   "important",
	domain.BlockHeader:    "important",
	domain.BlockTable:     "normal",
	domain.BlockParagraph: "normal",
	domain.BlockOther:     "low",
}

var stopwords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	"의": true, "이": true, "가": true, "을": true, "를": true, "에": true, "에서": true,
}

// SummarizeBlock derives the full rule-based annotation for one block. An
// empty block gets the fixed empty summary.
func SummarizeBlock(b domain.Block) domain.BlockSummary {
	text := strings.TrimSpace(b.Text)
	if text == "" {
		return domain.BlockSummary{
			ContentType:         "empty",
			Language:            "unknown",
			Keywords:            []string{},
			ConfidenceLevel:     "low",
			EstimatedImportance: "low",
		}
	}
	contentType := ClassifyContent(text)
	return domain.BlockSummary{
		ContentType:         string(contentType),
		Language:            DetectLanguage(text),
		TextPreview:         preview(text, 30),
		Keywords:            ExtractKeywords(text, 5),
		ConfidenceLevel:     confidenceLevel(b.Confidence),
		EstimatedImportance: estimateImportance(text, contentType),
		ContainsNumbers:     reDigits.MatchString(text),
		ContainsDates:       reDate.MatchString(text),
		ContainsMoney:       reMoney.MatchString(text),
		ContainsEmail:       reEmail.MatchString(text),
		ContainsPhone:       rePhone.MatchString(text),
		TextLength:          utf8.RuneCountInString(text),
		WordCount:           len(strings.Fields(text)),
	}
}

// ClassifyContent applies the classification rules in a fixed priority
// order; the first matching rule wins and the order is load-bearing.
func ClassifyContent(text string) domain.BlockType {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.BlockOther
	}
	lower := strings.ToLower(trimmed)
	runeLen := utf8.RuneCountInString(trimmed)

	if runeLen < 50 &&
		(containsAny(lower, titleKeywords) || isUpper(trimmed) || reUpperRun.MatchString(trimmed)) {
		return domain.BlockTitle
	}
	if runeLen < 100 && containsAny(lower, headerKeywords) {
		return domain.BlockHeader
	}
	if strings.ContainsAny(trimmed, "\t|") ||
		(reDigits.MatchString(trimmed) && len(strings.Fields(trimmed)) >= 3) {
		return domain.BlockTable
	}
	if reMoney.MatchString(trimmed) || reNumberOnly.MatchString(trimmed) {
		return domain.BlockNumber
	}
	if containsAny(lower, addressKeywords) {
		return domain.BlockAddress
	}
	if reDate.MatchString(trimmed) {
		return domain.BlockDate
	}
	if reEmail.MatchString(trimmed) {
		return domain.BlockEmail
	}
	if rePhone.MatchString(trimmed) {
		return domain.BlockPhone
	}
	if runeLen > 100 {
		return domain.BlockParagraph
	}
	return domain.BlockOther
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// isUpper reports whether the text has cased letters and none of them are
// lowercase.
func isUpper(text string) bool {
	hasUpper := false
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
	}
	return hasUpper
}

// DetectLanguage counts Hangul and Latin runs. A 2x majority decides the
// language; anything with both scripts and no clear majority is mixed.
func DetectLanguage(text string) string {
	hangul := len(reHangulRun.FindAllString(text, -1))
	latin := len(reLatinRun.FindAllString(text, -1))
	switch {
	case hangul > latin*2:
		return "korean"
	case latin > hangul*2:
		return "english"
	case hangul > 0 && latin > 0:
		return "mixed"
	}
	return "other"
}

// ExtractKeywords returns up to limit words ranked by frequency, ties by
// first occurrence. Stopwords and tokens of two runes or fewer are dropped.
func ExtractKeywords(text string, limit int) []string {
	type stat struct {
		word  string
		count int
	}
	counts := make(map[string]*stat)
	var order []*stat
	for _, word := range reWord.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(word) <= 2 || stopwords[word] {
			continue
		}
		if s, ok := counts[word]; ok {
			s.count++
			continue
		}
		s := &stat{word: word, count: 1}
		counts[word] = s
		order = append(order, s)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]string, len(order))
	for i, s := range order {
		out[i] = s.word
	}
	return out
}

func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.95:
		return "high"
	case confidence >= 0.8:
		return "medium"
	}
	return "low"
}

// estimateImportance starts from the content-type base tier; a critical
// keyword always wins, an important keyword beats the base.
func estimateImportance(text string, contentType domain.BlockType) string {
	lower := strings.ToLower(text)
	if containsAny(lower, criticalKeywords) {
		return "critical"
	}
	if containsAny(lower, importantKeywords) {
		return "important"
	}
	if imp, ok := importanceByType[contentType]; ok {
		return imp
	}
	return "normal"
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
