package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
)

// Catalog column headers, as published by conductor manufacturers.
const (
	ColManufacturer      = "Manufacturer"
	ColCodename          = "Codename"
	ColType              = "Type"
	ColDiameter          = "Nominal overall diameter (mm)"
	ColDCResistance      = "DC resistance at 20 deg. C (ohm/km)"
	ColLayerConstruction = "Layer Construction"
)

var requiredColumns = []string{ColManufacturer, ColCodename, ColType, ColDiameter, ColDCResistance}

// Entry is one conductor of a manufacturer catalog.
type Entry struct {
	Manufacturer string
	Codename     string
	Profile      ampacity.ConductorProfile
}

// Catalog holds the conductors that could be built and the rows that could
// not. Callers decide whether rejected rows are fatal.
type Catalog struct {
	Entries  []Entry
	Rejected []RowError
}

// OpenCatalog reads a .csv or .xlsx catalog.
func OpenCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCatalogCSV(f)
	case ".xlsx":
		return ReadCatalogXLSX(f)
	default:
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadCatalogCSV reads an excel-dialect CSV catalog with a header row.
func ReadCatalogCSV(r io.Reader) (Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog csv: %w", err)
	}
	return catalogFromRows(rows)
}

// ReadCatalogXLSX reads the first sheet of a workbook.
func ReadCatalogXLSX(r io.Reader) (Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog sheet: %w", err)
	}
	return catalogFromRows(rows)
}

func catalogFromRows(rows [][]string) (Catalog, error) {
	if len(rows) < 2 {
		return Catalog{}, ErrEmpty
	}
	cols, err := indexHeader(rows[0], requiredColumns)
	if err != nil {
		return Catalog{}, err
	}

	var cat Catalog
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := record{cols: cols, row: row}
		e, err := entryFromRecord(rec)
		if err != nil {
			cat.Rejected = append(cat.Rejected, RowError{Row: i + 2, Codename: rec.get(ColCodename), Err: err})
			continue
		}
		cat.Entries = append(cat.Entries, e)
	}
	return cat, nil
}

func entryFromRecord(rec record) (Entry, error) {
	ct, err := ampacity.ParseConductorType(rec.get(ColType))
	if err != nil {
		return Entry{}, err
	}
	dia, err := rec.float(ColDiameter)
	if err != nil {
		return Entry{}, err
	}
	rdc, err := rec.float(ColDCResistance)
	if err != nil {
		return Entry{}, err
	}
	if !(rdc > 0) {
		return Entry{}, fmt.Errorf("%s %v: %w", ColDCResistance, rdc, ampacity.ErrNonPositiveResistance)
	}

	// The layer column is only meaningful for ACSR-family conductors.
	layer := ampacity.LayerNone
	if ct.IsACSRFamily() {
		layer, err = ampacity.ParseLayerConstruction(rec.get(ColLayerConstruction))
		if err != nil {
			return Entry{}, err
		}
	}

	codename := rec.get(ColCodename)
	p, err := ampacity.NewConductorProfile(codename, ct, dia/1000, rdc/1000, layer)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Manufacturer: rec.get(ColManufacturer),
		Codename:     codename,
		Profile:      p,
	}, nil
}

type record struct {
	cols map[string]int
	row  []string
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r record) float(col string) (float64, error) {
	s := r.get(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, col, s)
	}
	return v, nil
}

func indexHeader(header []string, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	return cols, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
