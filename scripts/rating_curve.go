package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/line"
)

// CurveParams describes one sweep of ambient temperature.
type CurveParams struct {
	Profile              ampacity.ConductorProfile
	ConductorTemperature float64
	Weathering           ampacity.Weathering
	TimeOfDay            ampacity.TimeOfDay
	WindSpeeds           []float64
	Step                 float64
}

// SweepAmbient writes one row per ambient temperature and one rating column
// per wind speed. Cells with no real solution are left empty.
func SweepAmbient(p CurveParams, filename string) error {
	lines := make([]*line.Line, len(p.WindSpeeds))
	for i, v := range p.WindSpeeds {
		l, err := line.New(fmt.Sprintf("v=%g", v), p.Profile, ampacity.AmbientCondition{
			AmbientTemperature:   ampacity.MinAmbientTemperature,
			ConductorTemperature: p.ConductorTemperature,
			WindSpeed:            v,
			Weathering:           p.Weathering,
			TimeOfDay:            p.TimeOfDay,
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to create line: %w", err)
		}
		lines[i] = l
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"t_a"}
	for _, v := range p.WindSpeeds {
		header = append(header, fmt.Sprintf("v=%g", v))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for ta := ampacity.MinAmbientTemperature; ta < p.ConductorTemperature && ta <= ampacity.MaxAmbientTemperature; ta += p.Step {
		rec := []string{strconv.FormatFloat(ta, 'f', 1, 64)}
		for _, l := range lines {
			if err := l.SetAmbientTemperature(ta); err != nil {
				return fmt.Errorf("failed to set ambient temperature: %w", err)
			}
			s := l.Get()
			cell := ""
			if s.RatingAvailable() {
				cell = strconv.FormatFloat(s.Rating, 'f', 1, 64)
			}
			rec = append(rec, cell)
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	return nil
}

func main() {
	saturn, err := ampacity.NewConductorProfile("Saturn", ampacity.TypeAAC, 21e-3, 0.110e-3, ampacity.LayerNone)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = SweepAmbient(CurveParams{
		Profile:              saturn,
		ConductorTemperature: 75,
		Weathering:           ampacity.WeatheringIndustrial,
		TimeOfDay:            ampacity.SummerNoon,
		WindSpeeds:           []float64{0, 0.5, 1, 2, 3},
		Step:                 0.5,
	}, "rating_curve.csv")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
