package physics

import "github.com/san-kum/fsim/internal/dynamo"

type LorenzParams struct{ Sigma, Rho, Beta float64 }

func (p *LorenzParams) Copy() dynamo.Params { c := *p; return &c }

func (p *LorenzParams) Values() map[string]float64 {
	return map[string]float64{"sigma": p.Sigma, "rho": p.Rho, "beta": p.Beta}
}

func (p *LorenzParams) Set(n string, v float64) error {
	switch n {
	case "sigma":
		p.Sigma = v
	case "rho":
		p.Rho = v
	case "beta":
		p.Beta = v
	default:
		return unknownParam("lorenz", n)
	}
	return nil
}

// Lorenz has no logging form; simulations of it record empty rows.
type Lorenz struct{}

func NewLorenz() *Lorenz                     { return &Lorenz{} }
func (*Lorenz) Name() string                 { return "lorenz" }
func (*Lorenz) Kind() dynamo.Kind            { return dynamo.Continuous }
func (*Lorenz) DefaultState() dynamo.State   { return dynamo.State{1.0, 1.0, 1.0} }
func (*Lorenz) DefaultParams() dynamo.Params { return &LorenzParams{10.0, 28.0, 8.0 / 3.0} }

// Derive calculates the Lorenz attractor derivatives.
func (*Lorenz) Derive(dx, s dynamo.State, p dynamo.Params, _ float64, _ dynamo.Inputs) {
	l, ok := p.(*LorenzParams)
	if !ok {
		l = &LorenzParams{10.0, 28.0, 8.0 / 3.0}
	}
	dx[0] = l.Sigma * (s[1] - s[0])
	dx[1] = s[0]*(l.Rho-s[2]) - s[1]
	dx[2] = s[0]*s[1] - l.Beta*s[2]
}
