package ampacity

import (
	"fmt"
	"strings"
)

// ConductorType is an integer enum over the catalog conductor families.
type ConductorType int

const (
	TypeUnknown ConductorType = iota
	TypeAAC
	TypeAAAC1120
	TypeHDCU
	TypeACSRGZ
	TypeACSRAC
	TypeSCGZ
	TypeSCAC
	TypeAACSRGZ
	TypeAACSRAC
)

var conductorTypeNames = map[ConductorType]string{
	TypeAAC:      "AAC",
	TypeAAAC1120: "AAAC/1120",
	TypeHDCU:     "HDCU",
	TypeACSRGZ:   "ACSR/GZ",
	TypeACSRAC:   "ACSR/AC",
	TypeSCGZ:     "SC/GZ",
	TypeSCAC:     "SC/AC",
	TypeAACSRGZ:  "AACSR/GZ",
	TypeAACSRAC:  "AACSR/AC",
}

func (c ConductorType) Valid() bool {
	_, ok := conductorTypeNames[c]
	return ok
}

func (c ConductorType) String() string {
	if s, ok := conductorTypeNames[c]; ok {
		return s
	}
	return "unknown"
}

// IsACSRFamily reports whether the type name carries the "ACSR" marker,
// i.e. it has steel strands and needs a layer construction.
func (c ConductorType) IsACSRFamily() bool {
	return c.Valid() && strings.Contains(c.String(), "ACSR")
}

func ParseConductorType(s string) (ConductorType, error) {
	for c, name := range conductorTypeNames {
		if name == s {
			return c, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%w: %q", ErrInvalidConductorType, s)
}

// LayerConstruction is the aluminium/steel strand layout of an ACSR-family
// conductor. LayerNone means "not given".
type LayerConstruction int

const (
	LayerNone LayerConstruction = iota
	Layer4x3
	Layer3x4
	Layer6x7
	Layer6x1Thick
	Layer6x1Thin
	Layer30x7
	Layer54x7
	Layer54x19
)

var layerConstructionNames = map[LayerConstruction]string{
	Layer4x3:      "4/3",
	Layer3x4:      "3/4",
	Layer6x7:      "6/7",
	Layer6x1Thick: "6/1(>=3.0mm)",
	Layer6x1Thin:  "6/1(<3.0mm)",
	Layer30x7:     "30/7",
	Layer54x7:     "54/7",
	Layer54x19:    "54/19",
}

func (l LayerConstruction) Valid() bool {
	_, ok := layerConstructionNames[l]
	return ok
}

func (l LayerConstruction) String() string {
	if l == LayerNone {
		return ""
	}
	if s, ok := layerConstructionNames[l]; ok {
		return s
	}
	return "unknown"
}

// ParseLayerConstruction maps an empty string to LayerNone.
func ParseLayerConstruction(s string) (LayerConstruction, error) {
	if s == "" {
		return LayerNone, nil
	}
	for l, name := range layerConstructionNames {
		if name == s {
			return l, nil
		}
	}
	return LayerNone, fmt.Errorf("%w: %q", ErrInvalidLayerConstruction, s)
}

// Weathering is the surface condition of the conductor.
type Weathering int

const (
	WeatheringUnknown Weathering = iota
	WeatheringRural
	WeatheringIndustrial
)

func (w Weathering) Valid() bool {
	return w == WeatheringRural || w == WeatheringIndustrial
}

func (w Weathering) String() string {
	switch w {
	case WeatheringRural:
		return "rural"
	case WeatheringIndustrial:
		return "industrial"
	default:
		return "unknown"
	}
}

func ParseWeathering(s string) (Weathering, error) {
	switch s {
	case "rural":
		return WeatheringRural, nil
	case "industrial":
		return WeatheringIndustrial, nil
	default:
		return WeatheringUnknown, fmt.Errorf("%w: %q", ErrInvalidWeathering, s)
	}
}

// TimeOfDay selects solar load and ground temperature offset. It is a
// coarse design case, not a clock time.
type TimeOfDay int

const (
	TimeOfDayUnknown TimeOfDay = iota
	SummerNoon
	WinterNight
)

func (t TimeOfDay) Valid() bool {
	return t == SummerNoon || t == WinterNight
}

func (t TimeOfDay) String() string {
	switch t {
	case SummerNoon:
		return "summer noon"
	case WinterNight:
		return "winter night"
	default:
		return "unknown"
	}
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch s {
	case "summer noon":
		return SummerNoon, nil
	case "winter night":
		return WinterNight, nil
	default:
		return TimeOfDayUnknown, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
}
