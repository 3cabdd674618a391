package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn     = errors.New("missing column")
	ErrEmpty             = errors.New("no data rows")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RowError is a rejected data row. Row is the 1-based line (or sheet row)
// number, the header being row 1.
type RowError struct {
	Row      int
	Codename string
	Err      error
}

func (e *RowError) Error() string {
	if e.Codename != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Row, e.Codename, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
