package domain

// BlockSummary is the rule-engine annotation of a single block.
type BlockSummary struct {
	ContentType         string   `json:"content_type"`
	Language            string   `json:"language"`
	TextPreview         string   `json:"text_preview"`
	Keywords            []string `json:"keywords"`
	ConfidenceLevel     string   `json:"confidence_level"`
	EstimatedImportance string   `json:"estimated_importance"`
	ContainsNumbers     bool     `json:"contains_numbers"`
	ContainsDates       bool     `json:"contains_dates"`
	ContainsMoney       bool     `json:"contains_money"`
	ContainsEmail       bool     `json:"contains_email"`
	ContainsPhone       bool     `json:"contains_phone"`
	TextLength          int      `json:"text_length"`
	WordCount           int      `json:"word_count"`
}

// KeyEntities are regex-extracted entities from the full page text.
type KeyEntities struct {
	Companies      []string `json:"companies"`
	Dates          []string `json:"dates"`
	Amounts        []string `json:"amounts"`
	Emails         []string `json:"emails"`
	Phones         []string `json:"phones"`
	InvoiceNumbers []string `json:"invoice_numbers"`
}

type QualityMetrics struct {
	OverallConfidence    float64 `json:"overall_confidence"`
	Readability          string  `json:"readability"`
	Completeness         string  `json:"completeness"`
	HighConfidenceBlocks int     `json:"high_confidence_blocks"`
	LowConfidenceBlocks  int     `json:"low_confidence_blocks"`
}

type LanguageDistribution struct {
	Korean  float64 `json:"korean"`
	English float64 `json:"english"`
	Other   float64 `json:"other"`
}

// PageSummary aggregates block-level signals for a whole page.
type PageSummary struct {
	DocumentType         string               `json:"document_type"`
	MainContent          string               `json:"main_content"`
	KeyEntities          KeyEntities          `json:"key_entities"`
	ContentSections      map[string]int       `json:"content_sections"`
	QualityMetrics       QualityMetrics       `json:"quality_metrics"`
	LanguageDistribution LanguageDistribution `json:"language_distribution"`
	TotalBlocks          int                  `json:"total_blocks"`
	TotalCharacters      int                  `json:"total_characters"`
}
