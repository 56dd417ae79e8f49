package domain

// BlockType is the block-level classification vocabulary. It intentionally
// stays separate from SectionType: a block's own type always wins for the
// block, the enclosing section's type is independent metadata.
type BlockType string

const (
	BlockTitle     BlockType = "title"
	BlockHeader    BlockType = "header"
	BlockParagraph BlockType = "paragraph"
	BlockTable     BlockType = "table"
	BlockList      BlockType = "list"
	BlockNumber    BlockType = "number"
	BlockDate      BlockType = "date"
	BlockEmail     BlockType = "email"
	BlockPhone     BlockType = "phone"
	BlockAddress   BlockType = "address"
	BlockOther     BlockType = "other"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockTitle, BlockHeader, BlockParagraph, BlockTable, BlockList,
		BlockNumber, BlockDate, BlockEmail, BlockPhone, BlockAddress, BlockOther:
		return true
	}
	return false
}

// Block is the atomic unit of extracted content. ID is the 0-based position
// within the owning page's block list and is reassigned on delete/merge;
// externally it is exposed 1-based as block_id.
type Block struct {
	ID         int         `json:"id"`
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"bbox"`
	Polygon    [][]float64 `json:"bbox_points,omitempty"`
	Type       BlockType   `json:"block_type"`

	// Hierarchy links, populated only when hierarchy building was requested.
	ParentID *int  `json:"parent_id,omitempty"`
	Children []int `json:"children,omitempty"`
	Level    int   `json:"level,omitempty"`

	Summary *BlockSummary `json:"summary,omitempty"`
}

func (b Block) Clone() Block {
	out := b
	if b.Polygon != nil {
		out.Polygon = make([][]float64, len(b.Polygon))
		for i, p := range b.Polygon {
			out.Polygon[i] = append([]float64(nil), p...)
		}
	}
	if b.ParentID != nil {
		parent := *b.ParentID
		out.ParentID = &parent
	}
	if b.Children != nil {
		out.Children = append([]int(nil), b.Children...)
	}
	if b.Summary != nil {
		summary := *b.Summary
		summary.Keywords = append([]string(nil), b.Summary.Keywords...)
		out.Summary = &summary
	}
	return out
}

// RawBlock is one OCR engine detection: recognized text, confidence in [0,1]
// and a quadrilateral bounding polygon.
type RawBlock struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Polygon    [][]float64 `json:"bbox"`
}

// ToBlock converts an OCR detection into an untyped page block.
func (r RawBlock) ToBlock(id int) Block {
	box := BoundingBoxFromPolygon(r.Polygon)
	return Block{
		ID:         id,
		Text:       r.Text,
		Confidence: r.Confidence,
		Box:        box,
		Polygon:    box.Polygon(),
		Type:       BlockOther,
	}
}

// BlockUpdate carries the mutable fields of a block. Nil means "leave as is".
type BlockUpdate struct {
	Text       *string      `json:"text,omitempty"`
	Confidence *float64     `json:"confidence,omitempty"`
	Box        *BoundingBox `json:"bbox,omitempty"`
	Type       *BlockType   `json:"block_type,omitempty"`
}

// NewBlock is the payload for appending a block to a page. Confidence and
// Type default to 1.0 and "other" when omitted.
type NewBlock struct {
	Text       string       `json:"text"`
	Box        *BoundingBox `json:"bbox"`
	Confidence *float64     `json:"confidence,omitempty"`
	Type       *BlockType   `json:"block_type,omitempty"`
}
