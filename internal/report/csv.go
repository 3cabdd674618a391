package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Agrid-Dev/linerating/internal/batch"
)

// WriteCSV writes the table in the excel dialect with full-precision ratings.
func WriteCSV(w io.Writer, t batch.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Grid(t)); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}
