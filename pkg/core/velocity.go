// pkg/core/velocity.go
package core

// VelocityComponents is the number of numeric components in Velocity.
const VelocityComponents = 6

// Velocity is the projectile physics parameter set. Every component is a
// factor over the host's vanilla physics, so the neutral set is all ones.
type Velocity struct {
	HorizontalMultiplier    float64
	VerticalMultiplier      float64
	SpreadMultiplier        float64
	Gravity                 float64
	HorizontalAirResistance float64
	VerticalAirResistance   float64
}

// DefaultVelocity is the neutral parameter set.
var DefaultVelocity = Velocity{
	HorizontalMultiplier:    1,
	VerticalMultiplier:      1,
	SpreadMultiplier:        1,
	Gravity:                 1,
	HorizontalAirResistance: 1,
	VerticalAirResistance:   1,
}

// Components returns the parameters in their fixed serialization order.
func (v Velocity) Components() []float64 {
	return []float64{
		v.HorizontalMultiplier,
		v.VerticalMultiplier,
		v.SpreadMultiplier,
		v.Gravity,
		v.HorizontalAirResistance,
		v.VerticalAirResistance,
	}
}

// WithComponents returns a copy of v with the leading components replaced by c.
// Components missing from a short c keep the value from v; extra ones are ignored.
func (v Velocity) WithComponents(c []float64) Velocity {
	fields := [VelocityComponents]*float64{
		&v.HorizontalMultiplier,
		&v.VerticalMultiplier,
		&v.SpreadMultiplier,
		&v.Gravity,
		&v.HorizontalAirResistance,
		&v.VerticalAirResistance,
	}
	for i := 0; i < len(c) && i < len(fields); i++ {
		*fields[i] = c[i]
	}
	return v
}
