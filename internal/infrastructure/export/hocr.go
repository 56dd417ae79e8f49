// Package export renders processed pages into interchange formats. The page
// result stored on disk stays the source of truth; exports are derived views
// generated on demand.
package export

import (
	"fmt"

	"github.com/gardar/ocrchestra/pkg/hocr"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
	"github.com/jaehyunkim/docuvision/internal/core/geometry"
)

// PageToHOCR renders one page result as an hOCR document. Each block maps to
// an ocr_line whose single word carries the block text; block confidence in
// [0,1] scales to the hOCR 0-100 range.
func PageToHOCR(requestID string, page *domain.PageResult) (string, error) {
	if page == nil {
		return "", fmt.Errorf("nil page result")
	}

	pageBox := hocr.NewBoundingBox(0, 0, float64(page.Width), float64(page.Height))
	if page.Width == 0 || page.Height == 0 {
		if union, ok := unionOfBlocks(page.Blocks); ok {
			pageBox = hocr.NewBoundingBox(0, 0, union.XMax, union.YMax)
		}
	}

	hocrPage := hocr.Page{
		ID:         fmt.Sprintf("page_%d", page.PageNumber),
		PageNumber: page.PageNumber,
		BBox:       pageBox,
	}

	for _, b := range page.Blocks {
		line := hocr.Line{
			ID:   fmt.Sprintf("line_%d_%d", page.PageNumber, b.ID+1),
			BBox: hocr.NewBoundingBox(b.Box.XMin, b.Box.YMin, b.Box.XMax, b.Box.YMax),
			Words: []hocr.Word{{
				ID:         fmt.Sprintf("word_%d_%d", page.PageNumber, b.ID+1),
				Text:       b.Text,
				BBox:       hocr.NewBoundingBox(b.Box.XMin, b.Box.YMin, b.Box.XMax, b.Box.YMax),
				Confidence: b.Confidence * 100,
			}},
		}
		hocrPage.Lines = append(hocrPage.Lines, line)
	}

	doc := &hocr.HOCR{
		Title: fmt.Sprintf("%s page %d", requestID, page.PageNumber),
		Pages: []hocr.Page{hocrPage},
	}
	return hocr.GenerateHOCRDocument(doc)
}

func unionOfBlocks(blocks []domain.Block) (domain.BoundingBox, bool) {
	boxes := make([]domain.BoundingBox, 0, len(blocks))
	for _, b := range blocks {
		if b.Box.Valid() {
			boxes = append(boxes, b.Box)
		}
	}
	return geometry.UnionBox(boxes)
}
