package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoscan/internal/domain"
)

const sheetName = "Summary"

// WriteXLSX renders the summary as an XLSX workbook with the same columns as
// the CSV export. The overall average sits in a banner row above the header.
func WriteXLSX(w io.Writer, summary *domain.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	banner := []any{"Overall_Avg_Confidence", summary.OverallAvgConfidence}
	if err := f.SetSheetRow(sheetName, "A1", &banner); err != nil {
		return fmt.Errorf("writing banner row: %w", err)
	}

	header := make([]any, 0, len(Columns()))
	for _, c := range Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A2", &header); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i := range summary.Rows {
		values := rowValues(&summary.Rows[i])
		cells := make([]any, 0, len(values))
		for _, v := range values {
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return fmt.Errorf("computing cell for row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
