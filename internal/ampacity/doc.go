// Package ampacity computes the steady-state current rating of a bare
// overhead conductor in open air with the ENA D(b)5 (1988) heat balance.
//
// # Heat balance
//
// At the target conductor temperature the conductor must shed as much heat
// as it gains:
//
//	I²·r_ac + PS = PR + PC
//
// where PS is solar gain, PR radiation loss and PC convection loss. PC is
// natural convection (PN) in still air and forced convection (PF) when the
// wind speed is above zero. The rating is the I that balances the equation.
//
// # Regimes
//
// Empirical coefficients switch on dimensionless numbers:
//
//	Gr·Pr <= 1e4   A=0.850 m=0.188   otherwise A=0.480 m=0.250
//	Re    <= 2650  B=0.641 n=0.471   otherwise B=0.048 n=0.800
//	ψ in [0,24]    C=0.68  P=1.08    ψ in (24,90]  C=0.58 P=0.90
//
// ψ, the wind angle of attack, is fixed at 90°.
//
// When solar gain exceeds the losses there is no real current; this is
// reported as [ErrNegativeHeatBalance], never as NaN.
package ampacity
