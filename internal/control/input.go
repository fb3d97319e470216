package control

import (
	"github.com/san-kum/fsim/internal/dynamo"
)

// Input produces the value of one named input at (x, p, t).
type Input interface {
	Eval(x dynamo.State, p dynamo.Params, t float64) any
}

// Peeker is an [Input] with state that can also be evaluated without
// committing that state. Telemetry reads inputs through Peek so that
// logging a sample never moves the simulation.
type Peeker interface {
	Input
	Peek(x dynamo.State, p dynamo.Params, t float64) any
}

// InputFunc adapts a plain function to [Input].
type InputFunc func(x dynamo.State, p dynamo.Params, t float64) any

func (f InputFunc) Eval(x dynamo.State, p dynamo.Params, t float64) any { return f(x, p, t) }

type constant struct{ v any }

func (c constant) Eval(dynamo.State, dynamo.Params, float64) any { return c.v }

// Constant is an input that always evaluates to v.
func Constant(v any) Input { return constant{v: v} }

// Zero is a constant zero vector of length dim.
func Zero(dim int) Input { return Constant(make(dynamo.State, dim)) }

type applied struct {
	inner  dynamo.Dynamics
	logger dynamo.Loggable
	inputs map[string]Input
}

// ApplyInputs wraps inner so every call first evaluates inputs and passes
// them on. Inputs given by the caller of the wrapper are kept unless an
// input of the same name shadows them.
//
// The result is always loggable. When inner is not, DeriveLog returns an
// empty record.
func ApplyInputs(inner dynamo.Dynamics, inputs map[string]Input) dynamo.Loggable {
	a := &applied{inner: inner, inputs: make(map[string]Input, len(inputs))}
	for k, v := range inputs {
		a.inputs[k] = v
	}
	a.logger, _ = inner.(dynamo.Loggable)
	return a
}

func (a *applied) eval(x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs, peek bool) dynamo.Inputs {
	out := make(dynamo.Inputs, len(in)+len(a.inputs))
	for k, v := range in {
		out[k] = v
	}
	for k, u := range a.inputs {
		if pk, ok := u.(Peeker); ok && peek {
			out[k] = pk.Peek(x, p, t)
			continue
		}
		out[k] = u.Eval(x, p, t)
	}
	return out
}

func (a *applied) Derive(dx, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) {
	a.inner.Derive(dx, x, p, t, a.eval(x, p, t, in, false))
}

// DeriveLog peeks stateful inputs instead of evaluating them.
func (a *applied) DeriveLog(dx, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) dynamo.Record {
	if a.logger == nil {
		return dynamo.Record{}
	}
	return a.logger.DeriveLog(dx, x, p, t, a.eval(x, p, t, in, true))
}

// Stateful reports whether any input or the inner dynamics keeps state
// between calls.
func (a *applied) Stateful() bool {
	for _, u := range a.inputs {
		if _, ok := u.(dynamo.Resetter); ok {
			return true
		}
	}
	return dynamo.IsStateful(a.inner)
}

// Reset clears stateful inputs and a stateful inner dynamics.
func (a *applied) Reset() {
	for _, u := range a.inputs {
		if r, ok := u.(dynamo.Resetter); ok {
			r.Reset()
		}
	}
	if r, ok := a.inner.(dynamo.Resetter); ok {
		r.Reset()
	}
}
