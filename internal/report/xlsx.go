package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Agrid-Dev/linerating/internal/batch"
)

const sheetName = "Ratings"

// WriteXLSX writes a single-sheet workbook. Ratings are numeric cells,
// failed cells hold their "ERR: <category>" text.
func WriteXLSX(w io.Writer, t batch.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	row := 1
	setRow := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(sheetName, cell, &values)
	}

	header := HeaderRows(t)
	for _, h := range header {
		values := make([]any, len(h))
		for i, s := range h {
			values[i] = s
		}
		if err := setRow(values); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	for _, r := range t.Rows {
		values := []any{r.Entry.Manufacturer, r.Entry.Codename}
		for _, c := range r.Cells {
			if c.OK() {
				values = append(values, c.Rating)
			} else {
				values = append(values, CellText(c))
			}
		}
		if err := setRow(values); err != nil {
			return fmt.Errorf("xlsx row %s: %w", r.Entry.Codename, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, len(header), bold); err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      len(header),
		TopLeftCell: mustCell(3, len(header)+1),
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("xlsx panes: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx report: %w", err)
	}
	return nil
}

func mustCell(col, row int) string {
	c, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return c
}
