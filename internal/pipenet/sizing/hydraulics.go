package sizing

import "math"

// Laminar/turbulent transition and Colebrook solve bounds.
const (
	laminarReynoldsLimit = 2300.0
	colebrookTolerance   = 1e-3
	colebrookMaxIters    = 10
)

// Velocity returns the mean flow velocity (m/s) for a mass flow through a
// circular cross-section.
func Velocity(flowKgS, densityKgM3, diameterM float64) float64 {
	area := math.Pi * diameterM * diameterM / 4
	return flowKgS / (densityKgM3 * area)
}

// DiameterFor inverts flow = v * rho * A for the continuous "ideal"
// diameter (m) at a target velocity.
func DiameterFor(flowKgS, densityKgM3, targetVelocityMS float64) float64 {
	area := flowKgS / (densityKgM3 * targetVelocityMS)
	return math.Sqrt(4 * area / math.Pi)
}

// Reynolds number for pipe flow.
func Reynolds(velocityMS, diameterM, kinViscosityM2S float64) float64 {
	return velocityMS * diameterM / kinViscosityM2S
}

// FrictionFactor returns the Darcy friction factor. Laminar flow uses the
// closed form 64/Re; turbulent flow iterates Colebrook-White to 1e-3 in at
// most 10 rounds, seeded with Swamee-Jain.
func FrictionFactor(re, relativeRoughness float64) float64 {
	if re <= 0 {
		return 0
	}
	if re < laminarReynoldsLimit {
		return 64 / re
	}

	f := swameeJain(re, relativeRoughness)
	for i := 0; i < colebrookMaxIters; i++ {
		rhs := -2 * math.Log10(relativeRoughness/3.7+2.51/(re*math.Sqrt(f)))
		next := 1 / (rhs * rhs)
		if math.Abs(next-f) < colebrookTolerance {
			return next
		}
		f = next
	}
	return f
}

func swameeJain(re, relativeRoughness float64) float64 {
	denom := math.Log10(relativeRoughness/3.7 + 5.74/math.Pow(re, 0.9))
	return 0.25 / (denom * denom)
}

// PressureDropPerM returns the Darcy-Weisbach pressure gradient (Pa/m).
func PressureDropPerM(frictionFactor, densityKgM3, velocityMS, diameterM float64) float64 {
	return frictionFactor / diameterM * densityKgM3 * velocityMS * velocityMS / 2
}
