package testutil

import (
	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/line"
)

// FakeLineService is a reusable fake implementing ports.LineService.
// Put ONLY what multiple test packages need here.
type FakeLineService struct {
	S line.Snapshot

	SetConditionCalled bool
	SetConditionArg    ampacity.AmbientCondition

	UpdateConditionCalled bool

	SetAmbientCalled bool
	SetAmbientArg    float64

	SetConductorCalled bool
	SetConductorArg    float64

	SetWindSpeedCalled bool
	SetWindSpeedArg    float64

	SetWeatheringCalled bool
	SetWeatheringArg    ampacity.Weathering

	SetTimeOfDayCalled bool
	SetTimeOfDayArg    ampacity.TimeOfDay

	// Err, when set, is returned by every setter and the snapshot is left alone.
	Err error
}

func NewFakeLineService() *FakeLineService {
	p, _ := ampacity.NewConductorProfile("Saturn", ampacity.TypeAAC, 21e-3, 0.110e-3, ampacity.LayerNone)
	return &FakeLineService{
		S: line.Snapshot{
			ID:      "default",
			Profile: p,
			Condition: ampacity.AmbientCondition{
				AmbientTemperature:   35,
				ConductorTemperature: 85,
				WindSpeed:            1,
				Weathering:           ampacity.WeatheringIndustrial,
				TimeOfDay:            ampacity.SummerNoon,
			},
			Rating: 732.75,
		},
	}
}

func (f *FakeLineService) Get() line.Snapshot { return f.S }

func (f *FakeLineService) SetCondition(c ampacity.AmbientCondition) error {
	f.SetConditionCalled = true
	f.SetConditionArg = c
	if f.Err != nil {
		return f.Err
	}
	f.S.Condition = c
	return nil
}

func (f *FakeLineService) UpdateCondition(mutate func(*ampacity.AmbientCondition)) error {
	f.UpdateConditionCalled = true
	if f.Err != nil {
		return f.Err
	}
	mutate(&f.S.Condition)
	return nil
}

func (f *FakeLineService) SetAmbientTemperature(v float64) error {
	f.SetAmbientCalled = true
	f.SetAmbientArg = v
	if f.Err != nil {
		return f.Err
	}
	f.S.Condition.AmbientTemperature = v
	return nil
}

func (f *FakeLineService) SetConductorTemperature(v float64) error {
	f.SetConductorCalled = true
	f.SetConductorArg = v
	if f.Err != nil {
		return f.Err
	}
	f.S.Condition.ConductorTemperature = v
	return nil
}

func (f *FakeLineService) SetWindSpeed(v float64) error {
	f.SetWindSpeedCalled = true
	f.SetWindSpeedArg = v
	if f.Err != nil {
		return f.Err
	}
	f.S.Condition.WindSpeed = v
	return nil
}

func (f *FakeLineService) SetWeathering(w ampacity.Weathering) error {
	f.SetWeatheringCalled = true
	f.SetWeatheringArg = w
	if f.Err != nil {
		return f.Err
	}
	f.S.Condition.Weathering = w
	return nil
}

func (f *FakeLineService) SetTimeOfDay(t ampacity.TimeOfDay) error {
	f.SetTimeOfDayCalled = true
	f.SetTimeOfDayArg = t
	if f.Err != nil {
		return f.Err
	}
	f.S.Condition.TimeOfDay = t
	return nil
}
