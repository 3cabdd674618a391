package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
)

// Condition parameter keys, in report order.
const (
	ParamAmbientTemperature   = "t_a"
	ParamConductorTemperature = "t_c"
	ParamTimeOfDay            = "time_of_day"
	ParamWindSpeed            = "v"
	ParamWeathering           = "weathering"
)

// ParamKeys lists the condition parameters in the order reports print them.
var ParamKeys = []string{
	ParamAmbientTemperature,
	ParamConductorTemperature,
	ParamTimeOfDay,
	ParamWindSpeed,
	ParamWeathering,
}

const colDescription = "description"

// Condition is one named rating case of a condition set.
//
// Raw keeps the parameters as written in the source so reports echo them
// verbatim. Unrecognized weathering or time of day strings are kept as the
// Unknown enum value and surface as per-cell rating errors.
type Condition struct {
	Description string
	Raw         map[string]string
	Ambient     ampacity.AmbientCondition
}

// Param returns the raw text of parameter key.
func (c Condition) Param(key string) string { return c.Raw[key] }

// OpenConditions reads a .csv, .yaml or .yml condition set.
func OpenConditions(path string) ([]Condition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open conditions: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadConditionsCSV(f)
	case ".yaml", ".yml":
		return ReadConditionsYAML(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadConditionsCSV reads a condition set with columns description, t_a,
// t_c, time_of_day, v and weathering, in any order.
func ReadConditionsCSV(r io.Reader) ([]Condition, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read conditions csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmpty
	}
	cols, err := indexHeader(rows[0], append([]string{colDescription}, ParamKeys...))
	if err != nil {
		return nil, err
	}

	var out []Condition
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := record{cols: cols, row: row}
		raw := make(map[string]string, len(ParamKeys))
		for _, k := range ParamKeys {
			raw[k] = rec.get(k)
		}
		c, err := newCondition(rec.get(colDescription), raw)
		if err != nil {
			return nil, &RowError{Row: i + 2, Err: err}
		}
		out = append(out, c)
	}
	return out, nil
}

type conditionSetYAML struct {
	Conditions []conditionYAML `yaml:"conditions"`
}

// Scalars decode into strings so the raw text survives.
type conditionYAML struct {
	Description string `yaml:"description"`
	TA          string `yaml:"t_a"`
	TC          string `yaml:"t_c"`
	TimeOfDay   string `yaml:"time_of_day"`
	V           string `yaml:"v"`
	Weathering  string `yaml:"weathering"`
}

// ReadConditionsYAML reads a document of the form
//
//	conditions:
//	  - description: Summer noon, still air
//	    t_a: 35
//	    t_c: 75
//	    time_of_day: summer noon
//	    v: 0
//	    weathering: industrial
func ReadConditionsYAML(r io.Reader) ([]Condition, error) {
	var doc conditionSetYAML
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read conditions yaml: %w", err)
	}
	if len(doc.Conditions) == 0 {
		return nil, ErrEmpty
	}

	out := make([]Condition, 0, len(doc.Conditions))
	for i, y := range doc.Conditions {
		c, err := newCondition(y.Description, map[string]string{
			ParamAmbientTemperature:   y.TA,
			ParamConductorTemperature: y.TC,
			ParamTimeOfDay:            y.TimeOfDay,
			ParamWindSpeed:            y.V,
			ParamWeathering:           y.Weathering,
		})
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func newCondition(desc string, raw map[string]string) (Condition, error) {
	num := func(k string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw[k]), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, k, raw[k])
		}
		return v, nil
	}

	ta, err := num(ParamAmbientTemperature)
	if err != nil {
		return Condition{}, err
	}
	tc, err := num(ParamConductorTemperature)
	if err != nil {
		return Condition{}, err
	}
	v, err := num(ParamWindSpeed)
	if err != nil {
		return Condition{}, err
	}

	// Enum errors are left for the calculator to report per cell.
	w, _ := ampacity.ParseWeathering(strings.TrimSpace(raw[ParamWeathering]))
	tod, _ := ampacity.ParseTimeOfDay(strings.TrimSpace(raw[ParamTimeOfDay]))

	return Condition{
		Description: desc,
		Raw:         raw,
		Ambient: ampacity.AmbientCondition{
			AmbientTemperature:   ta,
			ConductorTemperature: tc,
			WindSpeed:            v,
			Weathering:           w,
			TimeOfDay:            tod,
		},
	}, nil
}
