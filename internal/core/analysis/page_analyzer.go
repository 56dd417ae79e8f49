package analysis

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

var (
	reInvoiceNo  = regexp.MustCompile(`(?i)(?:invoice|inv|bill|no)[-#:\s]*(\w+[-\w]*)`)
	reCompanyEn  = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Company|Corp|Corporation|Ltd|Inc|Co\.)`)
	reCompanyKo  = regexp.MustCompile(`[가-힣]+\s*(?:회사|주식회사|기업|코퍼레이션)`)
	reHangulChar = regexp.MustCompile(`[가-힣]`)
	reLatinChar  = regexp.MustCompile(`[A-Za-z]`)
)

// documentTypeRules score page text per document type. The slice order is
// the tie-break order, so classification is deterministic.
var documentTypeRules = []struct {
	docType  string
	keywords []string
}{
	{"invoice", []string{"invoice", "bill", "payment", "due", "인보이스", "청구서", "지불"}},
	{"contract", []string{"contract", "agreement", "terms", "계약", "약정", "조건"}},
	{"report", []string{"report", "analysis", "summary", "보고서", "분석", "요약"}},
	{"letter", []string{"dear", "sincerely", "regards", "님께", "올림", "드림"}},
	{"form", []string{"form", "application", "request", "양식", "신청서", "요청서"}},
	{"receipt", []string{"receipt", "purchased", "sold", "영수증", "구매", "판매"}},
}

var invoiceBoostKeywords = []string{"total", "amount", "due", "합계", "총액"}

// SummarizePage aggregates block annotations into the page-level summary.
// Block summaries are computed on the fly when a block has none yet.
func SummarizePage(blocks []domain.Block) domain.PageSummary {
	if len(blocks) == 0 {
		return domain.PageSummary{
			DocumentType:    "empty",
			MainContent:     "No content available",
			ContentSections: map[string]int{},
			QualityMetrics:  domain.QualityMetrics{Readability: "unknown", Completeness: "empty"},
		}
	}

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	fullText := strings.Join(texts, " ")

	sections := make(map[string]int)
	for _, b := range blocks {
		if b.Summary != nil {
			sections[b.Summary.ContentType]++
		} else {
			sections[SummarizeBlock(b).ContentType]++
		}
	}

	docType := ClassifyDocumentType(fullText)
	return domain.PageSummary{
		DocumentType:         docType,
		MainContent:          mainContent(blocks, docType),
		KeyEntities:          ExtractEntities(fullText),
		ContentSections:      sections,
		QualityMetrics:       computeQuality(blocks),
		LanguageDistribution: languageDistribution(fullText),
		TotalBlocks:          len(blocks),
		TotalCharacters:      utf8.RuneCountInString(fullText),
	}
}

// ClassifyDocumentType scores keyword hits per type. Invoices get an extra
// +3 when a money amount, a date and a total marker all appear together.
// Pages matching no category at all classify as mixed.
func ClassifyDocumentType(text string) string {
	lower := strings.ToLower(text)
	invoiceBoost := 0
	if reMoney.MatchString(text) && reDate.MatchString(text) && containsAny(lower, invoiceBoostKeywords) {
		invoiceBoost = 3
	}

	bestType := "mixed"
	bestScore := 0
	for _, rule := range documentTypeRules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if rule.docType == "invoice" && score+invoiceBoost > 0 {
			score += invoiceBoost
		}
		if score > bestScore {
			bestScore = score
			bestType = rule.docType
		}
	}
	return bestType
}

// ExtractEntities pulls the regex entities from the page text. Lists are
// deduplicated keeping first occurrence and capped, so output is stable.
func ExtractEntities(text string) domain.KeyEntities {
	var invoiceNumbers []string
	for _, m := range reInvoiceNo.FindAllStringSubmatch(text, -1) {
		invoiceNumbers = append(invoiceNumbers, m[1])
	}
	companies := append(reCompanyEn.FindAllString(text, -1), reCompanyKo.FindAllString(text, -1)...)
	return domain.KeyEntities{
		Companies:      dedup(companies, 3),
		Dates:          dedup(reDate.FindAllString(text, -1), 5),
		Amounts:        dedup(reMoney.FindAllString(text, -1), 5),
		Emails:         dedup(reEmail.FindAllString(text, -1), 3),
		Phones:         dedup(rePhone.FindAllString(text, -1), 3),
		InvoiceNumbers: dedup(invoiceNumbers, 3),
	}
}

// dedup preserves first-occurrence order and caps the result. It always
// returns a non-nil slice so serialized entity lists stay arrays.
func dedup(in []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// mainContent summarizes from the first five blocks that read confidently.
func mainContent(blocks []domain.Block, docType string) string {
	var important []string
	limit := len(blocks)
	if limit > 5 {
		limit = 5
	}
	for _, b := range blocks[:limit] {
		text := strings.TrimSpace(b.Text)
		if b.Confidence > 0.8 && utf8.RuneCountInString(text) > 5 {
			important = append(important, text)
		}
	}
	if len(important) == 0 {
		return "No clear content summary available"
	}
	switch docType {
	case "invoice":
		return summarizeInvoice(important)
	case "contract":
		return "Contract document - " + preview(important[0], 100)
	}
	if len(important) > 3 {
		important = important[:3]
	}
	return preview(strings.Join(important, ". "), 200)
}

var companyMarkers = []string{"company", "corp", "ltd", "회사"}
var serviceMarkers = []string{"service", "development", "consulting", "서비스", "개발"}

func summarizeInvoice(texts []string) string {
	var parts []string
	for _, t := range texts {
		if containsAny(strings.ToLower(t), companyMarkers) {
			parts = append(parts, "Invoice from "+t)
			break
		}
	}
	for _, t := range texts {
		if containsAny(strings.ToLower(t), serviceMarkers) {
			parts = append(parts, "for "+strings.ToLower(t))
			break
		}
	}
	if len(parts) == 0 {
		return "Invoice document - " + preview(texts[0], 100)
	}
	return strings.Join(parts, " ")
}

func computeQuality(blocks []domain.Block) domain.QualityMetrics {
	m := domain.QualityMetrics{
		OverallConfidence: round3(domain.MeanConfidence(blocks)),
	}
	totalChars := 0
	for _, b := range blocks {
		if b.Confidence > 0.9 {
			m.HighConfidenceBlocks++
		}
		if b.Confidence < 0.7 {
			m.LowConfidenceBlocks++
		}
		totalChars += utf8.RuneCountInString(b.Text)
	}
	avgLen := float64(totalChars) / float64(len(blocks))
	switch {
	case avgLen > 20:
		m.Readability = "high"
	case avgLen > 10:
		m.Readability = "medium"
	default:
		m.Readability = "low"
	}
	ratio := float64(m.HighConfidenceBlocks) / float64(len(blocks))
	switch {
	case ratio > 0.8:
		m.Completeness = "complete"
	case ratio > 0.6:
		m.Completeness = "mostly_complete"
	case ratio > 0.3:
		m.Completeness = "partial"
	default:
		m.Completeness = "incomplete"
	}
	return m
}

// languageDistribution is the share of Hangul and Latin letters over all
// characters on the page, whitespace and punctuation included.
func languageDistribution(text string) domain.LanguageDistribution {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return domain.LanguageDistribution{}
	}
	hangul := len(reHangulChar.FindAllString(text, -1))
	latin := len(reLatinChar.FindAllString(text, -1))
	koreanRatio := float64(hangul) / float64(total)
	englishRatio := float64(latin) / float64(total)
	return domain.LanguageDistribution{
		Korean:  round3(koreanRatio),
		English: round3(englishRatio),
		Other:   round3(1 - koreanRatio - englishRatio),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
