// Package report renders a ratings table as CSV, XLSX or PDF.
//
// Every format shares one layout: a header row of condition descriptions,
// five rows echoing the condition parameters, then one row per conductor.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/batch"
	"github.com/Agrid-Dev/linerating/internal/catalog"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

// Format is an output encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Write encodes t in format f.
func Write(w io.Writer, f Format, t batch.Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatPDF:
		return WritePDF(w, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// WriteFile picks the format from the file extension.
func WriteFile(path string, t batch.Table) (err error) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(out, f, t)
}

// HeaderRows returns the description row and the five parameter rows.
func HeaderRows(t batch.Table) [][]string {
	rows := make([][]string, 0, 1+len(catalog.ParamKeys))

	head := []string{"Manufacturer", "Codename"}
	for _, c := range t.Conditions {
		head = append(head, c.Description)
	}
	rows = append(rows, head)

	for _, k := range catalog.ParamKeys {
		r := []string{k, ""}
		for _, c := range t.Conditions {
			r = append(r, c.Param(k))
		}
		rows = append(rows, r)
	}
	return rows
}

// CellText renders a cell for text outputs. Failed cells read
// "ERR: <category>".
func CellText(c batch.Cell) string {
	if !c.OK() {
		return "ERR: " + ampacity.Category(c.Err)
	}
	return strconv.FormatFloat(c.Rating, 'f', -1, 64)
}

// Grid is the full table as text, header rows first.
func Grid(t batch.Table) [][]string {
	rows := HeaderRows(t)
	for _, r := range t.Rows {
		rows = append(rows, textRow(r, CellText))
	}
	return rows
}

func textRow(r batch.Row, cell func(batch.Cell) string) []string {
	out := []string{r.Entry.Manufacturer, r.Entry.Codename}
	for _, c := range r.Cells {
		out = append(out, cell(c))
	}
	return out
}
