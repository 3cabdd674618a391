package batch

import (
	"context"
	"fmt"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/catalog"
	"github.com/Agrid-Dev/linerating/internal/observability"
)

func entry(t *testing.T, name string, ct ampacity.ConductorType, d, r float64, layer ampacity.LayerConstruction) catalog.Entry {
	t.Helper()
	p, err := ampacity.NewConductorProfile(name, ct, d, r, layer)
	require.NoError(t, err)
	return catalog.Entry{Manufacturer: "Acme", Codename: name, Profile: p}
}

func fixtures(t *testing.T) ([]catalog.Entry, []catalog.Condition) {
	entries := []catalog.Entry{
		entry(t, "Almond", ampacity.TypeACSRGZ, 7.5e-3, 0.975e-3, ampacity.Layer6x1Thin),
		entry(t, "Saturn", ampacity.TypeAAC, 21e-3, 0.110e-3, ampacity.LayerNone),
		entry(t, "Fat", ampacity.TypeAAC, 0.0495, 0.02e-3, ampacity.LayerNone),
	}
	conds := []catalog.Condition{
		{Description: "winter still", Ambient: ampacity.AmbientCondition{
			AmbientTemperature: 10, ConductorTemperature: 100, WindSpeed: 0,
			Weathering: ampacity.WeatheringRural, TimeOfDay: ampacity.WinterNight,
		}},
		{Description: "summer breeze", Ambient: ampacity.AmbientCondition{
			AmbientTemperature: 35, ConductorTemperature: 85, WindSpeed: 1,
			Weathering: ampacity.WeatheringIndustrial, TimeOfDay: ampacity.SummerNoon,
		}},
		{Description: "scorching", Ambient: ampacity.AmbientCondition{
			AmbientTemperature: 49, ConductorTemperature: 50, WindSpeed: 0,
			Weathering: ampacity.WeatheringIndustrial, TimeOfDay: ampacity.SummerNoon,
		}},
	}
	return entries, conds
}

func TestRun_Matrix(t *testing.T) {
	entries, conds := fixtures(t)
	m := observability.NewMetricsForTesting()

	tbl, err := Run(context.Background(), entries, conds, Options{Concurrency: 2, Metrics: m})
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 3)
	for i, r := range tbl.Rows {
		assert.Equal(t, entries[i].Codename, r.Entry.Codename, "rows keep catalog order")
		require.Len(t, r.Cells, 3)
	}

	assert.InDelta(t, 165.713, tbl.Rows[0].Cells[0].Rating, 0.01)
	assert.InDelta(t, 732.751, tbl.Rows[1].Cells[1].Rating, 0.01)

	fat := tbl.Rows[2].Cells[2]
	assert.False(t, fat.OK())
	assert.ErrorIs(t, fat.Err, ampacity.ErrDomain)
	assert.GreaterOrEqual(t, tbl.Failures(), 1)

	assert.Equal(t, 9.0, promtestutil.ToFloat64(m.BatchCells))
	assert.Equal(t, 1, promtestutil.CollectAndCount(m.BatchDuration))
	assert.Equal(t, float64(tbl.Failures()),
		promtestutil.ToFloat64(m.RatingFailures.WithLabelValues("domain")))
}

func TestRun_MatchesDirectCalculation(t *testing.T) {
	entries, conds := fixtures(t)

	tbl, err := Run(context.Background(), entries, conds, Options{})
	require.NoError(t, err)

	for i, e := range entries {
		for j, c := range conds {
			want, wantErr := ampacity.Calculate(e.Profile, c.Ambient)
			got := tbl.Rows[i].Cells[j]
			assert.Equal(t, want, got.Rating, "%s/%s", e.Codename, c.Description)
			assert.Equal(t, wantErr, got.Err, "%s/%s", e.Codename, c.Description)
		}
	}
}

func TestRun_IndependentOfConcurrency(t *testing.T) {
	base, conds := fixtures(t)
	var entries []catalog.Entry
	for i := range 20 {
		for _, e := range base {
			e.Codename = fmt.Sprintf("%s-%02d", e.Codename, i)
			entries = append(entries, e)
		}
	}

	serial, err := Run(context.Background(), entries, conds, Options{Concurrency: 1})
	require.NoError(t, err)

	for _, n := range []int{2, 8, 64} {
		parallel, err := Run(context.Background(), entries, conds, Options{Concurrency: n})
		require.NoError(t, err)
		assert.Equal(t, serial, parallel, "concurrency %d", n)
	}
}

func TestRun_FailFast(t *testing.T) {
	entries, conds := fixtures(t)

	_, err := Run(context.Background(), entries, conds, Options{FailFast: true, Concurrency: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ampacity.ErrDomain)
}

func TestRun_Canceled(t *testing.T) {
	entries, conds := fixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, entries, conds, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Empty(t *testing.T) {
	tbl, err := Run(context.Background(), nil, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, tbl.Rows)
	assert.Zero(t, tbl.Failures())
}
