package ampacity

import "math"

// Physical constants of the heat balance.
const (
	Albedo          = 0.2     // F, ground reflectance
	Gravity         = 9.81    // g, m/s²
	StefanBoltzmann = 5.67e-8 // σ, W/m²K⁴
	AttackAngle     = 90.0    // ψ, degrees; transverse flow is assumed

	kelvinOffset = 273.0

	directIrradiance  = 1000.0 // W/m², summer noon
	diffuseIrradiance = 100.0  // W/m², summer noon

	naturalConvectionThreshold = 1e4  // Gr·Pr
	forcedConvectionThreshold  = 2650 // Re
	attackAngleThreshold       = 24.0 // degrees
)

// HeatBalance is the full set of intermediate terms for one conductor under
// one condition, together with the rating of both convection regimes.
type HeatBalance struct {
	SkyTemperature    float64 // t_d, °C
	GroundTemperature float64 // t_g, °C
	FilmViscosity     float64 // ν_f, m²/s
	FilmConductivity  float64 // λ_f, W/m.K

	Grashof  float64
	Prandtl  float64
	Reynolds float64
	Nusselt  float64

	ForcedConvection  float64 // PF, W/m
	NaturalConvection float64 // PN, W/m
	Radiation         float64 // PR, W/m
	SolarGain         float64 // PS, W/m

	ACResistance float64 // r_ac, ohm/m

	StillAir Rating // natural convection
	Wind     Rating // forced convection
}

// Rating is the current (A) of one regime, or the reason there is none.
type Rating struct {
	Current float64
	Err     error
}

// Calculate returns the steady-state rating in amperes. Moving air (v > 0)
// is rated by forced convection, still air by natural convection.
func Calculate(p ConductorProfile, c AmbientCondition) (float64, error) {
	hb, err := Evaluate(p, c)
	if err != nil {
		return 0, err
	}
	r := hb.Wind
	if c.StillAir() {
		r = hb.StillAir
	}
	return r.Current, r.Err
}

// Evaluate validates c and computes the heat balance terms and both
// regime ratings. A negative radicand in either regime is reported on
// that Rating, not as the returned error.
func Evaluate(p ConductorProfile, c AmbientCondition) (HeatBalance, error) {
	if err := c.Validate(); err != nil {
		return HeatBalance{}, err
	}
	if !p.conductorType.Valid() {
		return HeatBalance{}, ErrInvalidConductorType
	}

	ta, tc, v, d := c.AmbientTemperature, c.ConductorTemperature, c.WindSpeed, p.diameter

	// a and e coincide for both weathering classes.
	a := absorptivity(c.Weathering)
	e := a

	td := 0.0552*math.Pow(ta+kelvinOffset, 1.5) - kelvinOffset
	tg, iDir, iDiff := groundAndSolar(c.TimeOfDay, ta)

	mean := (tc + ta) / 2
	nu := 1.32e-5 + 9.5e-8*mean
	lambda := 2.42e-2 + 7.2e-5*mean

	gr := d * d * d * Gravity * (tc - ta) / ((mean + kelvinOffset) * nu * nu)
	pr := 0.715 - 2.5e-4*mean
	re := v * d / nu

	A, m := naturalConvectionCoefficients(gr * pr)
	B, n := forcedConvectionCoefficients(re)
	C, P, err := AttackCoefficients(AttackAngle)
	if err != nil {
		return HeatBalance{}, err
	}

	nusselt := A * math.Pow(gr*pr, m)

	sinPsi := math.Sin(AttackAngle * math.Pi / 180)
	pf := math.Pi * lambda * (tc - ta) * B * math.Pow(re, n) * (0.42 + C*math.Pow(sinPsi, P))
	pn := math.Pi * lambda * (tc - ta) * nusselt

	tcK, tgK, tdK := tc+kelvinOffset, tg+kelvinOffset, td+kelvinOffset
	prad := math.Pi * d * StefanBoltzmann * e * (pow4(tcK) - 0.5*pow4(tgK) - 0.5*pow4(tdK))

	ps := a * d * (iDir*(1+math.Pi/2*Albedo) + math.Pi/2*iDiff*(1+Albedo))

	rac := p.ACResistance(tc)

	return HeatBalance{
		SkyTemperature:    td,
		GroundTemperature: tg,
		FilmViscosity:     nu,
		FilmConductivity:  lambda,
		Grashof:           gr,
		Prandtl:           pr,
		Reynolds:          re,
		Nusselt:           nusselt,
		ForcedConvection:  pf,
		NaturalConvection: pn,
		Radiation:         prad,
		SolarGain:         ps,
		ACResistance:      rac,
		StillAir:          solve(prad+pn-ps, rac),
		Wind:              solve(prad+pf-ps, rac),
	}, nil
}

// AttackCoefficients returns the (C, P) pair for a wind angle of attack
// psi in degrees. 24° itself belongs to the lower band.
func AttackCoefficients(psi float64) (float64, float64, error) {
	switch {
	case psi >= 0 && psi <= attackAngleThreshold:
		return 0.68, 1.08, nil
	case psi > attackAngleThreshold && psi <= 90:
		return 0.58, 0.90, nil
	default:
		return 0, 0, ErrAttackAngleOutOfRange
	}
}

func naturalConvectionCoefficients(grPr float64) (A, m float64) {
	if grPr <= naturalConvectionThreshold {
		return 0.850, 0.188
	}
	return 0.480, 0.250
}

func forcedConvectionCoefficients(re float64) (B, n float64) {
	if re <= forcedConvectionThreshold {
		return 0.641, 0.471
	}
	return 0.048, 0.800
}

func absorptivity(w Weathering) float64 {
	if w == WeatheringIndustrial {
		return 0.85
	}
	return 0.5
}

// groundAndSolar returns the ground temperature and the direct and diffuse
// irradiance for the design time of day.
func groundAndSolar(t TimeOfDay, ta float64) (tg, iDir, iDiff float64) {
	if t == SummerNoon {
		return ta + 5, directIrradiance, diffuseIrradiance
	}
	return ta - 5, 0, 0
}

// solve never returns NaN or Inf: the d.c. resistance is not checked at
// construction, so a zero or negative one surfaces here.
func solve(netLoss, rac float64) Rating {
	if !(rac > 0) {
		return Rating{Err: ErrNonPositiveResistance}
	}
	if netLoss < 0 {
		return Rating{Err: ErrNegativeHeatBalance}
	}
	i := math.Sqrt(netLoss / rac)
	if math.IsNaN(i) || math.IsInf(i, 0) {
		return Rating{Err: ErrNonFiniteRating}
	}
	return Rating{Current: i}
}

func pow4(x float64) float64 {
	x2 := x * x
	return x2 * x2
}
