package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jaehyunkim/docuvision/internal/core/domain"
)

// PageToXLSX renders one page result as a spreadsheet with one row per
// block. Block ids are written 1-based to match the stored block files.
func PageToXLSX(requestID string, page *domain.PageResult) ([]byte, error) {
	if page == nil {
		return nil, fmt.Errorf("nil page result")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Blocks"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Block", "Text", "Type", "Confidence", "XMin", "YMin", "XMax", "YMax"}
	for col, name := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, b := range page.Blocks {
		row := i + 2
		values := []any{
			b.ID + 1,
			b.Text,
			string(b.Type),
			b.Confidence,
			b.Box.XMin,
			b.Box.YMin,
			b.Box.XMax,
			b.Box.YMax,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("block cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write block row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return nil, fmt.Errorf("set text column width: %w", err)
	}

	summarySheet := fmt.Sprintf("Page %d", page.PageNumber)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Request", requestID},
		{"Page", page.PageNumber},
		{"Total blocks", page.TotalBlocks},
		{"Average confidence", page.AverageConfidence},
	}
	if page.ContentSummary != nil {
		summaryRows = append(summaryRows,
			[]any{"Document type", page.ContentSummary.DocumentType},
			[]any{"Completeness", page.ContentSummary.QualityMetrics.Completeness},
		)
	}
	for i, pair := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &pair); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
