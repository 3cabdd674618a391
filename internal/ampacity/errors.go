package ampacity

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package matches exactly
// one of them with errors.Is.
var (
	ErrConstruction     = errors.New("invalid conductor")
	ErrRange            = errors.New("value out of range")
	ErrUnrecognizedEnum = errors.New("unrecognized value")
	ErrDomain           = errors.New("no real solution")
)

var (
	ErrInvalidConductorType        = fmt.Errorf("%w: unknown conductor type", ErrConstruction)
	ErrMissingLayerConstruction    = fmt.Errorf("%w: layer construction required for ACSR family", ErrConstruction)
	ErrInvalidLayerConstruction    = fmt.Errorf("%w: unknown layer construction", ErrConstruction)
	ErrUnexpectedLayerConstruction = fmt.Errorf("%w: layer construction only applies to ACSR family", ErrConstruction)
	ErrDiameterOutOfRange          = fmt.Errorf("%w: diameter must be in (0, 0.0495] m", ErrConstruction)

	ErrAmbientTemperatureOutOfRange   = fmt.Errorf("%w: ambient temperature must be in [0, 50] °C", ErrRange)
	ErrConductorTemperatureOutOfRange = fmt.Errorf("%w: conductor temperature must be in [50, 100] °C", ErrRange)
	ErrConductorNotAboveAmbient       = fmt.Errorf("%w: conductor temperature must exceed ambient temperature", ErrRange)
	ErrWindSpeedOutOfRange            = fmt.Errorf("%w: wind speed must be in [0, 3] m/s", ErrRange)

	ErrInvalidWeathering = fmt.Errorf("%w: weathering", ErrUnrecognizedEnum)
	ErrInvalidTimeOfDay  = fmt.Errorf("%w: time of day", ErrUnrecognizedEnum)

	ErrAttackAngleOutOfRange = fmt.Errorf("%w: wind angle of attack must be in [0, 90] degrees", ErrDomain)
	ErrNegativeHeatBalance   = fmt.Errorf("%w: solar gain exceeds heat loss", ErrDomain)
	ErrNonPositiveResistance = fmt.Errorf("%w: conductor resistance must be positive", ErrDomain)
	ErrNonFiniteRating       = fmt.Errorf("%w: rating is not a finite current", ErrDomain)
)

// Category names the error class of err for reports and metric labels:
// "construction", "range", "enum" or "domain". Errors from outside this
// package yield "other"; nil yields "".
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConstruction):
		return "construction"
	case errors.Is(err, ErrRange):
		return "range"
	case errors.Is(err, ErrUnrecognizedEnum):
		return "enum"
	case errors.Is(err, ErrDomain):
		return "domain"
	default:
		return "other"
	}
}
