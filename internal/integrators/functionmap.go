package integrators

import "github.com/san-kum/fsim/internal/dynamo"

// FunctionMap steps discrete problems: the dynamics writes the next state
// into dx and dt is ignored.
type FunctionMap struct{}

func NewFunctionMap() *FunctionMap {
	return &FunctionMap{}
}

func (m *FunctionMap) Name() string { return "map" }

func (m *FunctionMap) Step(f Deriv, x dynamo.State, t, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	f.into(next, x, t)
	return next
}
