package ampacity

// MaxDiameter is the largest plausible overall conductor diameter in
// metres. Anything above it is treated as a catalog error.
const MaxDiameter = 0.0495

// skinEffectRatio is k_s, taken as a constant regardless of conductor size.
const skinEffectRatio = 1.015

// magneticEffectRatio is k_m per ACSR-family layer construction.
var magneticEffectRatio = map[LayerConstruction]float64{
	Layer4x3:      1.10,
	Layer3x4:      1.06,
	Layer6x7:      1.13,
	Layer6x1Thick: 1.10,
	Layer6x1Thin:  1.07,
	Layer30x7:     1.00,
	Layer54x7:     1.06,
	Layer54x19:    1.07,
}

// temperatureCoefficient is α at 20 °C (1/K). Steel-reinforced types use
// the coefficient of their aluminium part.
var temperatureCoefficient = map[ConductorType]float64{
	TypeAAC:      0.00403,
	TypeACSRGZ:   0.00403,
	TypeACSRAC:   0.00403,
	TypeAAAC1120: 0.00390,
	TypeSCGZ:     0.0044,
	TypeSCAC:     0.0036,
	TypeHDCU:     0.00381,
	TypeAACSRGZ:  0.00390,
	TypeAACSRAC:  0.00390,
}

// ConductorProfile describes one physical conductor. It is a value type:
// fields are unexported and set once by NewConductorProfile.
type ConductorProfile struct {
	name              string
	conductorType     ConductorType
	diameter          float64 // m
	dcResistance      float64 // ohm/m at 20 °C
	layerConstruction LayerConstruction

	k     float64
	alpha float64
}

// NewConductorProfile validates the construction arguments and derives the
// a.c. resistance multiplier and temperature coefficient. Resistance and
// name are not checked.
func NewConductorProfile(name string, ct ConductorType, diameter, dcResistance float64, layer LayerConstruction) (ConductorProfile, error) {
	if !ct.Valid() {
		return ConductorProfile{}, ErrInvalidConductorType
	}

	km := 1.0
	if ct.IsACSRFamily() {
		if layer == LayerNone {
			return ConductorProfile{}, ErrMissingLayerConstruction
		}
		f, ok := magneticEffectRatio[layer]
		if !ok {
			return ConductorProfile{}, ErrInvalidLayerConstruction
		}
		km = f
	} else if layer != LayerNone {
		return ConductorProfile{}, ErrUnexpectedLayerConstruction
	}

	if !(diameter > 0 && diameter <= MaxDiameter) {
		return ConductorProfile{}, ErrDiameterOutOfRange
	}

	return ConductorProfile{
		name:              name,
		conductorType:     ct,
		diameter:          diameter,
		dcResistance:      dcResistance,
		layerConstruction: layer,
		k:                 skinEffectRatio * km,
		alpha:             temperatureCoefficient[ct],
	}, nil
}

func (p ConductorProfile) Name() string                         { return p.name }
func (p ConductorProfile) Type() ConductorType                  { return p.conductorType }
func (p ConductorProfile) Diameter() float64                    { return p.diameter }
func (p ConductorProfile) DCResistance() float64                { return p.dcResistance }
func (p ConductorProfile) LayerConstruction() LayerConstruction { return p.layerConstruction }

// ResistanceMultiplier is k = k_s * k_m.
func (p ConductorProfile) ResistanceMultiplier() float64 { return p.k }

// TemperatureCoefficient is α, the resistance temperature coefficient at 20 °C.
func (p ConductorProfile) TemperatureCoefficient() float64 { return p.alpha }

// ACResistance returns the effective a.c. resistance (ohm/m) at conductor
// temperature tc in °C.
func (p ConductorProfile) ACResistance(tc float64) float64 {
	return p.k * p.dcResistance * (1 + p.alpha*(tc-20))
}
