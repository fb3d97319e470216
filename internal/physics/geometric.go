package physics

import "github.com/san-kum/fsim/internal/dynamo"

type GeometricParams struct {
	Factor float64
}

func (p *GeometricParams) Copy() dynamo.Params { c := *p; return &c }

func (p *GeometricParams) Values() map[string]float64 {
	return map[string]float64{"factor": p.Factor}
}

func (p *GeometricParams) Set(name string, value float64) error {
	if name != "factor" {
		return unknownParam("geometric", name)
	}
	p.Factor = value
	return nil
}

// Geometric is the discrete map x' = a x.
type Geometric struct{}

func NewGeometric() *Geometric { return &Geometric{} }

func (*Geometric) Name() string                 { return "geometric" }
func (*Geometric) Kind() dynamo.Kind            { return dynamo.Discrete }
func (*Geometric) DefaultState() dynamo.State   { return dynamo.State{1.0, 2.0} }
func (*Geometric) DefaultParams() dynamo.Params { return &GeometricParams{Factor: 0.99} }

func (*Geometric) Derive(next, x dynamo.State, p dynamo.Params, _ float64, _ dynamo.Inputs) {
	a := 0.99
	switch v := p.(type) {
	case *GeometricParams:
		a = v.Factor
	case float64:
		a = v
	}
	for i := range x {
		next[i] = a * x[i]
	}
}

func (g *Geometric) DeriveLog(next, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) dynamo.Record {
	return dynamo.Record{"x": x}
}
