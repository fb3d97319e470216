package integrators

import (
	"github.com/san-kum/fsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(f Deriv, x dynamo.State, t float64, dt float64) dynamo.State {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}
	f.into(e.dx, x, t)
	result := make(dynamo.State, len(x))
	floats.AddScaledTo(result, x, dt, e.dx)
	return result
}
