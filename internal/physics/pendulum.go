package physics

import (
	"math"

	"github.com/san-kum/fsim/internal/dynamo"
)

type PendulumParams struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulumParams() *PendulumParams {
	return &PendulumParams{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *PendulumParams) Copy() dynamo.Params { c := *p; return &c }

func (p *PendulumParams) Values() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *PendulumParams) Set(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam("pendulum", name)
	}
	return nil
}

// Pendulum has state (theta, omega). Input "u" is a torque at the pivot.
type Pendulum struct{}

func NewPendulum() *Pendulum { return &Pendulum{} }

func (*Pendulum) Name() string                 { return "pendulum" }
func (*Pendulum) Kind() dynamo.Kind            { return dynamo.Continuous }
func (*Pendulum) DefaultState() dynamo.State   { return dynamo.State{0.5, 0.0} }
func (*Pendulum) DefaultParams() dynamo.Params { return NewPendulumParams() }

func pendulumParams(p dynamo.Params) *PendulumParams {
	if pp, ok := p.(*PendulumParams); ok {
		return pp
	}
	return NewPendulumParams()
}

func (*Pendulum) Derive(dx, x dynamo.State, p dynamo.Params, _ float64, in dynamo.Inputs) {
	pp := pendulumParams(p)
	theta := x[0]
	omega := x[1]

	torque := in.Float("u")
	alpha := (-pp.Damping*omega - pp.Mass*pp.Gravity*pp.Length*math.Sin(theta) + torque) / (pp.Mass * pp.Length * pp.Length)

	dx[0] = omega
	dx[1] = alpha
}

func (*Pendulum) Energy(x dynamo.State, p dynamo.Params) float64 {
	pp := pendulumParams(p)
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := pp.Length * x[1]
	ke := 0.5 * pp.Mass * v * v
	pe := pp.Mass * pp.Gravity * pp.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

func (m *Pendulum) DeriveLog(dx, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) dynamo.Record {
	m.Derive(dx, x, p, t, in)
	return dynamo.Record{
		"theta":  x[0],
		"omega":  x[1],
		"alpha":  dx[1],
		"u":      in.Float("u"),
		"energy": m.Energy(x, p),
	}
}
