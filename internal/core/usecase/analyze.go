package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/ports"
)

const defaultAnalysisPrompt = "Summarize this document page. Identify the document type, " +
	"key entities and any amounts or dates. Answer as a JSON object."

type AnalyzePageUseCase struct {
	store    ports.RequestStore
	analyzer ports.DocumentAnalyzer
}

func NewAnalyzePageUseCase(store ports.RequestStore, analyzer ports.DocumentAnalyzer) *AnalyzePageUseCase {
	return &AnalyzePageUseCase{store: store, analyzer: analyzer}
}

// AnalyzePage sends the page's text to the language model and persists the
// response next to the page result. The raw model answer is returned; when
// the answer carries a fenced JSON object, only the object is kept.
func (uc *AnalyzePageUseCase) AnalyzePage(
	ctx context.Context,
	requestID string,
	pageNumber int,
	prompt, modelID string,
) (string, error) {
	page, err := uc.store.GetPageResult(ctx, requestID, pageNumber)
	if err != nil {
		return "", fmt.Errorf("fetch page result: %w", err)
	}

	texts := make([]string, 0, len(page.Blocks))
	for _, b := range page.Blocks {
		if t := strings.TrimSpace(b.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "analyze page", errors.New("page has no text"))
	}
	if prompt == "" {
		prompt = defaultAnalysisPrompt
	}

	answer, err := uc.analyzer.Analyze(ctx, strings.Join(texts, "\n"), prompt, modelID)
	if err != nil {
		return "", fmt.Errorf("run analysis model: %w", err)
	}
	answer = extractJSONObject(answer)

	if err := uc.store.SaveAnalysis(ctx, requestID, pageNumber, []byte(answer)); err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}
	return answer, nil
}

// extractJSONObject unwraps a model answer down to its JSON object: fenced
// blocks are stripped, otherwise the outermost brace pair is taken. Answers
// without an object come back unchanged.
func extractJSONObject(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if start := strings.Index(trimmed, "```"); start >= 0 {
		rest := trimmed[start+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			trimmed = strings.TrimSpace(rest[:end])
		}
	}
	first := strings.Index(trimmed, "{")
	last := strings.LastIndex(trimmed, "}")
	if first >= 0 && last > first {
		return trimmed[first : last+1]
	}
	return trimmed
}
