package physics

import "github.com/san-kum/fsim/internal/dynamo"

type DecayParams struct {
	Rate float64
}

func (p *DecayParams) Copy() dynamo.Params { c := *p; return &c }

func (p *DecayParams) Values() map[string]float64 {
	return map[string]float64{"rate": p.Rate}
}

func (p *DecayParams) Set(name string, value float64) error {
	if name != "rate" {
		return unknownParam("decay", name)
	}
	p.Rate = value
	return nil
}

// Decay is dx = -k x for every component. Params may be *DecayParams or a
// plain float64 rate.
type Decay struct{}

func NewDecay() *Decay { return &Decay{} }

func (*Decay) Name() string                 { return "decay" }
func (*Decay) Kind() dynamo.Kind            { return dynamo.Continuous }
func (*Decay) DefaultState() dynamo.State   { return dynamo.State{1.0, 2.0} }
func (*Decay) DefaultParams() dynamo.Params { return &DecayParams{Rate: 1.0} }

func decayRate(p dynamo.Params) float64 {
	switch v := p.(type) {
	case *DecayParams:
		return v.Rate
	case float64:
		return v
	}
	return 1.0
}

func (*Decay) Derive(dx, x dynamo.State, p dynamo.Params, _ float64, _ dynamo.Inputs) {
	k := decayRate(p)
	for i := range x {
		dx[i] = -k * x[i]
	}
}

func (d *Decay) DeriveLog(dx, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) dynamo.Record {
	d.Derive(dx, x, p, t, in)
	return dynamo.Record{"x": x, "dx": dx}
}
