package physics

import "github.com/san-kum/fsim/internal/dynamo"

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMassParams describe a chain of n masses. Stiffness has n entries for
// a chain fixed on the left and n+1 when the right end is fixed too.
type SpringMassParams struct {
	Masses    []float64
	Stiffness []float64
	Damping   []float64
}

func (p *SpringMassParams) Copy() dynamo.Params {
	return &SpringMassParams{
		Masses:    append([]float64(nil), p.Masses...),
		Stiffness: append([]float64(nil), p.Stiffness...),
		Damping:   append([]float64(nil), p.Damping...),
	}
}

// Values exposes the first mass of the chain.
func (p *SpringMassParams) Values() map[string]float64 {
	return map[string]float64{
		"mass":      p.Masses[0],
		"stiffness": p.Stiffness[0],
		"damping":   p.Damping[0],
	}
}

// Set changes a parameter for every element of the chain.
func (p *SpringMassParams) Set(name string, value float64) error {
	var dst []float64
	switch name {
	case "mass":
		dst = p.Masses
	case "stiffness":
		dst = p.Stiffness
	case "damping":
		dst = p.Damping
	default:
		return unknownParam("spring_mass", name)
	}
	for i := range dst {
		dst[i] = value
	}
	return nil
}

func NewSpringMassParams() *SpringMassParams {
	return &SpringMassParams{
		Masses:    []float64{DefaultMass},
		Stiffness: []float64{DefaultStiffness},
		Damping:   []float64{DefaultDamping},
	}
}

func NewSpringMassChainParams(n int) *SpringMassParams {
	masses := make([]float64, n)
	stiffness := make([]float64, n+1)
	damping := make([]float64, n)

	for i := 0; i < n; i++ {
		masses[i] = DefaultMass
		stiffness[i] = DefaultStiffness
		damping[i] = 0.2
	}
	stiffness[n] = DefaultStiffness

	return &SpringMassParams{
		Masses:    masses,
		Stiffness: stiffness,
		Damping:   damping,
	}
}

// SpringMass is a chain of masses; the state is positions followed by
// velocities. Input "u" is an external force on the first mass.
type SpringMass struct{}

func NewSpringMass() *SpringMass { return &SpringMass{} }

func (*SpringMass) Name() string                 { return "spring_mass" }
func (*SpringMass) Kind() dynamo.Kind            { return dynamo.Continuous }
func (*SpringMass) DefaultState() dynamo.State   { return dynamo.State{1.0, 0.0} }
func (*SpringMass) DefaultParams() dynamo.Params { return NewSpringMassParams() }

func springParams(p dynamo.Params) *SpringMassParams {
	if sp, ok := p.(*SpringMassParams); ok {
		return sp
	}
	return NewSpringMassParams()
}

func (*SpringMass) Derive(dx, x dynamo.State, p dynamo.Params, _ float64, in dynamo.Inputs) {
	s := springParams(p)
	n := len(x) / 2

	for i := 0; i < n; i++ {
		dx[i] = x[n+i]
	}

	extForce := in.Float("u")

	for i := 0; i < n; i++ {
		pos, vel := x[i], x[n+i]

		var forceLeft, forceRight float64
		if i == 0 {
			forceLeft = -s.Stiffness[0] * pos
		} else {
			forceLeft = -s.Stiffness[i] * (pos - x[i-1])
		}

		if i == n-1 {
			if len(s.Stiffness) > n {
				forceRight = -s.Stiffness[n] * pos
			}
		} else {
			forceRight = -s.Stiffness[i+1] * (pos - x[i+1])
		}

		totalForce := forceLeft + forceRight - s.Damping[i]*vel
		if i == 0 {
			totalForce += extForce
		}
		dx[n+i] = totalForce / s.Masses[i]
	}
}

// Energy splits the mechanical energy into kinetic and potential parts.
func (*SpringMass) Energy(x dynamo.State, p dynamo.Params) (kinetic, potential float64) {
	s := springParams(p)
	n := len(x) / 2

	for i := 0; i < n; i++ {
		v := x[n+i]
		kinetic += 0.5 * s.Masses[i] * v * v
	}

	for i := 0; i < n; i++ {
		pos := x[i]
		if i == 0 {
			potential += 0.5 * s.Stiffness[0] * pos * pos
		} else {
			stretch := pos - x[i-1]
			potential += 0.5 * s.Stiffness[i] * stretch * stretch
		}
	}

	if len(s.Stiffness) > n {
		potential += 0.5 * s.Stiffness[n] * x[n-1] * x[n-1]
	}
	return kinetic, potential
}

func (m *SpringMass) DeriveLog(dx, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) dynamo.Record {
	n := len(x) / 2
	ke, pe := m.Energy(x, p)
	return dynamo.Record{
		"pos": x[:n],
		"vel": x[n:],
		"u":   in.Float("u"),
		"energy": dynamo.Record{
			"kinetic":   ke,
			"potential": pe,
			"total":     ke + pe,
		},
	}
}
