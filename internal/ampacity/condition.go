package ampacity

// Bounds of the ambient conditions the heat balance is calibrated for.
const (
	MinAmbientTemperature   = 0.0
	MaxAmbientTemperature   = 50.0
	MinConductorTemperature = 50.0
	MaxConductorTemperature = 100.0
	MinWindSpeed            = 0.0
	MaxWindSpeed            = 3.0
)

// AmbientCondition is one weather case a conductor is rated for.
type AmbientCondition struct {
	AmbientTemperature   float64 // t_a, °C
	ConductorTemperature float64 // t_c, target conductor temperature, °C
	WindSpeed            float64 // v, transverse, m/s
	Weathering           Weathering
	TimeOfDay            TimeOfDay
}

// Validate checks ranges and enums. The conductor must also be hotter than
// the air around it.
func (c AmbientCondition) Validate() error {
	if !(c.AmbientTemperature >= MinAmbientTemperature && c.AmbientTemperature <= MaxAmbientTemperature) {
		return ErrAmbientTemperatureOutOfRange
	}
	if !(c.ConductorTemperature >= MinConductorTemperature && c.ConductorTemperature <= MaxConductorTemperature) {
		return ErrConductorTemperatureOutOfRange
	}
	if c.ConductorTemperature <= c.AmbientTemperature {
		return ErrConductorNotAboveAmbient
	}
	if !(c.WindSpeed >= MinWindSpeed && c.WindSpeed <= MaxWindSpeed) {
		return ErrWindSpeedOutOfRange
	}
	if !c.Weathering.Valid() {
		return ErrInvalidWeathering
	}
	if !c.TimeOfDay.Valid() {
		return ErrInvalidTimeOfDay
	}
	return nil
}

// StillAir reports whether the condition is rated by natural convection.
func (c AmbientCondition) StillAir() bool {
	return !(c.WindSpeed > 0)
}
