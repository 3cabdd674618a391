package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
)

const catalogCSV = `Manufacturer,Codename,Type,Nominal overall diameter (mm),DC resistance at 20 deg. C (ohm/km),Layer Construction
Acme,Almond,ACSR/GZ,7.5,0.975,6/1(<3.0mm)
Acme,Saturn,AAC,21,0.1100,
Acme,Bogus,ACSR/GZ,7.5,0.975,
Acme,Huge,AAC,60,0.05,
Acme,Typo,AAC,abc,0.05,
,,,,,
Acme,Ignored,AAC,10,0.3,6/1(<3.0mm)
`

func TestReadCatalogCSV(t *testing.T) {
	cat, err := ReadCatalogCSV(strings.NewReader(catalogCSV))
	require.NoError(t, err)

	require.Len(t, cat.Entries, 3)
	almond := cat.Entries[0]
	assert.Equal(t, "Acme", almond.Manufacturer)
	assert.Equal(t, "Almond", almond.Codename)
	assert.Equal(t, ampacity.TypeACSRGZ, almond.Profile.Type())
	assert.InDelta(t, 7.5e-3, almond.Profile.Diameter(), 1e-12)
	assert.InDelta(t, 0.975e-3, almond.Profile.DCResistance(), 1e-15)
	assert.Equal(t, ampacity.Layer6x1Thin, almond.Profile.LayerConstruction())

	// Layer column is ignored outside the ACSR family.
	ignored := cat.Entries[2]
	assert.Equal(t, "Ignored", ignored.Codename)
	assert.Equal(t, ampacity.LayerNone, ignored.Profile.LayerConstruction())

	require.Len(t, cat.Rejected, 3)
	assert.Equal(t, 4, cat.Rejected[0].Row)
	assert.Equal(t, "Bogus", cat.Rejected[0].Codename)
	assert.ErrorIs(t, &cat.Rejected[0], ampacity.ErrMissingLayerConstruction)
	assert.ErrorIs(t, &cat.Rejected[1], ampacity.ErrDiameterOutOfRange)
	assert.ErrorIs(t, &cat.Rejected[2], ErrInvalidNumber)
	assert.Contains(t, cat.Rejected[2].Error(), "row 6 (Typo)")
}

func TestReadCatalogCSV_NonPositiveResistance(t *testing.T) {
	const in = `Manufacturer,Codename,Type,Nominal overall diameter (mm),DC resistance at 20 deg. C (ohm/km),Layer Construction
Acme,Zero,AAC,21,0,
Acme,Negative,AAC,21,-0.11,
Acme,Saturn,AAC,21,0.1100,
`
	cat, err := ReadCatalogCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, cat.Entries, 1)
	assert.Equal(t, "Saturn", cat.Entries[0].Codename)
	require.Len(t, cat.Rejected, 2)
	for i, name := range []string{"Zero", "Negative"} {
		assert.Equal(t, name, cat.Rejected[i].Codename)
		assert.ErrorIs(t, &cat.Rejected[i], ampacity.ErrNonPositiveResistance)
		assert.ErrorIs(t, &cat.Rejected[i], ampacity.ErrDomain)
	}
}

func TestReadCatalogCSV_MissingColumn(t *testing.T) {
	_, err := ReadCatalogCSV(strings.NewReader("Manufacturer,Codename,Type\nAcme,Saturn,AAC\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCatalogCSV_Empty(t *testing.T) {
	_, err := ReadCatalogCSV(strings.NewReader("Manufacturer,Codename\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadCatalogXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{ColManufacturer, ColCodename, ColType, ColDiameter, ColDCResistance, ColLayerConstruction},
		{"Acme", "Saturn", "AAC", 21, 0.11, ""},
		{"Acme", "Almond", "ACSR/GZ", 7.5, 0.975, "6/1(<3.0mm)"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	cat, err := ReadCatalogXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, cat.Entries, 2)
	assert.Empty(t, cat.Rejected)
	assert.Equal(t, "Saturn", cat.Entries[0].Codename)
	assert.InDelta(t, 0.021, cat.Entries[0].Profile.Diameter(), 1e-12)
	assert.Equal(t, ampacity.TypeACSRGZ, cat.Entries[1].Profile.Type())
}

func TestOpenCatalog_ByExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "catalog.csv")
	require.NoError(t, os.WriteFile(p, []byte(catalogCSV), 0o600))

	cat, err := OpenCatalog(p)
	require.NoError(t, err)
	assert.Len(t, cat.Entries, 3)

	bad := filepath.Join(dir, "catalog.txt")
	require.NoError(t, os.WriteFile(bad, []byte(catalogCSV), 0o600))
	_, err = OpenCatalog(bad)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
