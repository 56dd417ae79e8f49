package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

func samplePage() *domain.PageResult {
	page := &domain.PageResult{
		PageNumber: 1,
		Width:      600,
		Height:     800,
		Blocks: []domain.Block{
			{
				ID:         0,
				Text:       "INVOICE",
				Confidence: 0.97,
				Box:        domain.BoundingBox{XMin: 10, YMin: 10, XMax: 110, YMax: 40},
				Type:       domain.BlockTitle,
			},
			{
				ID:         1,
				Text:       "Total $100",
				Confidence: 0.88,
				Box:        domain.BoundingBox{XMin: 10, YMin: 60, XMax: 150, YMax: 90},
				Type:       domain.BlockParagraph,
			},
		},
		ContentSummary: &domain.PageSummary{
			DocumentType:   "invoice",
			QualityMetrics: domain.QualityMetrics{Completeness: "complete"},
		},
	}
	page.Recompute()
	return page
}

func TestPageToHOCR(t *testing.T) {
	out, err := PageToHOCR("0191-req", samplePage())
	if err != nil {
		t.Fatalf("PageToHOCR() error = %v", err)
	}
	for _, want := range []string{"ocr_page", "ocr_line", "ocrx_word", "INVOICE", "Total $100", "bbox 10 10 110 40"} {
		if !strings.Contains(out, want) {
			t.Fatalf("hOCR output missing %q:\n%s", want, out)
		}
	}
	// Confidence is expressed on the hOCR 0-100 scale.
	if !strings.Contains(out, "97") {
		t.Fatalf("expected scaled confidence in output:\n%s", out)
	}
}

func TestPageToHOCRNilPage(t *testing.T) {
	if _, err := PageToHOCR("0191-req", nil); err == nil {
		t.Fatalf("expected error for nil page")
	}
}

func TestPageToXLSXRoundTrip(t *testing.T) {
	raw, err := PageToXLSX("0191-req", samplePage())
	if err != nil {
		t.Fatalf("PageToXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Blocks")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if rows[0][0] != "Block" || rows[0][1] != "Text" {
		t.Fatalf("header row = %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "INVOICE" || rows[1][2] != "title" {
		t.Fatalf("first block row = %v", rows[1])
	}
	if rows[2][1] != "Total $100" {
		t.Fatalf("second block row = %v", rows[2])
	}

	summary, err := f.GetRows("Page 1")
	if err != nil {
		t.Fatalf("read summary sheet: %v", err)
	}
	if len(summary) < 5 || summary[4][1] != "invoice" {
		t.Fatalf("summary rows = %v", summary)
	}
}
