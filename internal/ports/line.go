package ports

import (
	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/line"
)

// LineService is the control-plane port used by controllers (HTTP/MQTT/Modbus).
type LineService interface {
	Get() line.Snapshot
	SetCondition(ampacity.AmbientCondition) error
	UpdateCondition(func(*ampacity.AmbientCondition)) error
	SetAmbientTemperature(float64) error
	SetConductorTemperature(float64) error
	SetWindSpeed(float64) error
	SetWeathering(ampacity.Weathering) error
	SetTimeOfDay(ampacity.TimeOfDay) error
}
