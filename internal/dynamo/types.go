package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	if s == nil {
		return nil
	}
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return floats.Norm(s, 2)
}

// Params is whatever the dynamics reads its parameters from. It may be nil.
type Params = any

// Copier is implemented by parameter values that know how to copy themselves.
type Copier interface {
	Copy() Params
}

// CopyParams returns an independent copy of p when p is copyable and p
// itself otherwise.
func CopyParams(p Params) Params {
	switch v := p.(type) {
	case nil:
		return nil
	case Copier:
		return v.Copy()
	case State:
		return v.Clone()
	case []float64:
		return append([]float64(nil), v...)
	case map[string]float64:
		c := make(map[string]float64, len(v))
		for k, x := range v {
			c[k] = x
		}
		return c
	default:
		return p
	}
}

// Inputs carries externally supplied values into a dynamics call.
type Inputs map[string]any

// Float returns the named input as a scalar. Missing or non-numeric inputs
// read as zero.
func (in Inputs) Float(name string) float64 {
	switch v := in[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case State:
		if len(v) > 0 {
			return v[0]
		}
	case []float64:
		if len(v) > 0 {
			return v[0]
		}
	}
	return 0
}

// Vector returns the named input as a vector, or nil.
func (in Inputs) Vector(name string) State {
	switch v := in[name].(type) {
	case State:
		return v
	case []float64:
		return v
	case float64:
		return State{v}
	}
	return nil
}

// Record is the raw telemetry produced by one DeriveLog call. Values are
// scalars, vectors or nested records.
type Record map[string]any

// Dynamics writes the time derivative (continuous problems) or the next
// state (discrete problems) of x into dx.
type Dynamics interface {
	Derive(dx, x State, p Params, t float64, in Inputs)
}

// Loggable is a Dynamics that can also report telemetry for a sample.
// DeriveLog must not be relied on for the state update.
type Loggable interface {
	Dynamics
	DeriveLog(dx, x State, p Params, t float64, in Inputs) Record
}

// Resetter is implemented by dynamics and inputs that keep state between
// calls. Simulators reset them whenever they rewind to t0.
type Resetter interface {
	Reset()
}

// IsStateful reports whether dyn keeps state between calls: it is a
// Resetter, unless it also reports Stateful() false.
func IsStateful(dyn Dynamics) bool {
	if s, ok := dyn.(interface{ Stateful() bool }); ok {
		return s.Stateful()
	}
	_, ok := dyn.(Resetter)
	return ok
}

// Func adapts a plain function to Dynamics.
type Func func(dx, x State, p Params, t float64, in Inputs)

func (f Func) Derive(dx, x State, p Params, t float64, in Inputs) { f(dx, x, p, t, in) }

// LogFunc is the telemetry half of a [Loggable] built from functions.
type LogFunc func(dx, x State, p Params, t float64, in Inputs) Record

type loggableFunc struct {
	derive Func
	log    LogFunc
}

// WithLog pairs a derivative function with its logging form.
func WithLog(derive Func, log LogFunc) Loggable {
	return loggableFunc{derive: derive, log: log}
}

func (l loggableFunc) Derive(dx, x State, p Params, t float64, in Inputs) {
	l.derive(dx, x, p, t, in)
}

func (l loggableFunc) DeriveLog(dx, x State, p Params, t float64, in Inputs) Record {
	return l.log(dx, x, p, t, in)
}

// Integrator is the narrow view the driver has of a numerical solver.
type Integrator interface {
	Time() float64
	// State is the live state vector. Callers must not write through it.
	State() State
	Params() Params
	// Dir is +1 when integrating forward in time and -1 otherwise.
	Dir() float64
	Problem() *Problem
	// Step advances by dt. With stopAtTdt the integrator lands exactly on
	// Time()+dt; without it the last internal step may overshoot.
	Step(dt float64, stopAtTdt bool) error
	// Reinit resets time, state and parameters to the problem's initial values.
	Reinit()
}

// Mutator is the write side of an Integrator, used by callbacks.
type Mutator interface {
	// SetState overwrites the live state. A vector of the wrong length is
	// ErrDimensionMismatch.
	SetState(x State) error
	SetParams(p Params)
}

// Callback fires when integration reaches one of Times. When Condition is
// set it gates the action; a callback with no Times is checked after every
// Step call of a solve.
type Callback struct {
	Name      string
	Times     []float64
	Condition func(integ Integrator) bool
	Affect    func(integ Integrator) error
}

// CallbackSet fires in slice order at a shared time.
type CallbackSet []Callback

// SavedValues is the buffer a saving callback fills during a solve.
type SavedValues struct {
	T     []float64
	Saved []Record
}

func (sv *SavedValues) Len() int { return len(sv.T) }

func (sv *SavedValues) Append(t float64, r Record) {
	sv.T = append(sv.T, t)
	sv.Saved = append(sv.Saved, r)
}
