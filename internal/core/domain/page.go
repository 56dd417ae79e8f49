package domain

// SectionType is the section-level classification vocabulary.
type SectionType string

const (
	SectionTitle  SectionType = "title"
	SectionHeader SectionType = "header"
	SectionBody   SectionType = "body"
	SectionTable  SectionType = "table"
	SectionList   SectionType = "list"
	SectionFooter SectionType = "footer"
	SectionOther  SectionType = "other"
)

// Section is a contiguous, vertically-clustered group of page blocks.
// Sections partition the page's block set; member blocks keep their ids.
type Section struct {
	SectionID     int         `json:"section_id"`
	Type          SectionType `json:"section_type"`
	Blocks        []Block     `json:"blocks"`
	Box           BoundingBox `json:"bbox"`
	Text          string      `json:"text"`
	TotalBlocks   int         `json:"total_blocks"`
	AvgConfidence float64     `json:"avg_confidence"`
}

// PageResult is one image's worth of extracted blocks plus derived data.
// TotalBlocks and AverageConfidence are aggregates and must be recomputed on
// every mutation; Recompute enforces that.
type PageResult struct {
	PageNumber        int          `json:"page_number"`
	Width             int          `json:"width,omitempty"`
	Height            int          `json:"height,omitempty"`
	TotalBlocks       int          `json:"total_blocks"`
	AverageConfidence float64      `json:"average_confidence"`
	ProcessingTime    float64      `json:"processing_time"`
	Blocks            []Block      `json:"blocks"`
	Sections          []Section    `json:"sections,omitempty"`
	ContentSummary    *PageSummary `json:"content_summary,omitempty"`
}

func (p *PageResult) Recompute() {
	p.TotalBlocks = len(p.Blocks)
	p.AverageConfidence = MeanConfidence(p.Blocks)
}

// MeanConfidence returns the arithmetic mean block confidence, 0.0 if empty.
func MeanConfidence(blocks []Block) float64 {
	if len(blocks) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, b := range blocks {
		sum += b.Confidence
	}
	return sum / float64(len(blocks))
}
