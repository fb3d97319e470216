package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	DefaultContinuousDt = 0.01
	DefaultDiscreteDt   = 1.0
	DefaultTolerance    = 1e-6
	DefaultMaxSteps     = 1_000_000

	timeTol = 1e-12
)

// Options tune the internal stepping of an Integrator.
type Options struct {
	// Dt is the internal step for continuous problems (initial step when
	// Adaptive) and the tick length for discrete ones. Zero picks the default
	// for the problem kind.
	Dt            float64 `yaml:"dt" json:"dt"`
	Adaptive      bool    `yaml:"adaptive" json:"adaptive"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
	MinDt         float64 `yaml:"min_dt" json:"min_dt"`
	MaxDt         float64 `yaml:"max_dt" json:"max_dt"`
	MaxSteps      int     `yaml:"max_steps" json:"max_steps"`
	ValidateState bool    `yaml:"validate_state" json:"validate_state"`
}

func DefaultOptions() Options {
	return Options{
		Tolerance:     DefaultTolerance,
		MinDt:         1e-10,
		MaxDt:         0.1,
		MaxSteps:      DefaultMaxSteps,
		ValidateState: true,
	}
}

func (o Options) withDefaults(kind dynamo.Kind) (Options, error) {
	if o.Dt < 0 || math.IsNaN(o.Dt) {
		return o, fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrConfig, o.Dt)
	}
	if o.Dt == 0 {
		o.Dt = DefaultContinuousDt
		if kind == dynamo.Discrete {
			o.Dt = DefaultDiscreteDt
		}
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.MaxDt <= 0 {
		o.MaxDt = math.Inf(1)
	}
	if o.MinDt < 0 || o.MinDt > o.MaxDt {
		return o, fmt.Errorf("%w: min_dt %g outside (0, max_dt]", dynamo.ErrConfig, o.MinDt)
	}
	return o, nil
}

// Integrator is a fixed- or adaptive-step solver bound to one Problem.
type Integrator struct {
	prob   *dynamo.Problem
	method Method
	opts   Options
	log    logrus.FieldLogger

	t     float64
	u     dynamo.State
	p     dynamo.Params
	h     float64
	steps int
	f     Deriv
}

// Init binds a method to a problem and positions the integrator at t0.
// A nil method selects the default for the problem kind.
func Init(prob *dynamo.Problem, method Method, opts Options) (*Integrator, error) {
	if prob == nil {
		return nil, fmt.Errorf("%w: nil problem", dynamo.ErrConfig)
	}
	if method == nil {
		method = DefaultFor(prob.Kind())
	}
	_, isMap := method.(*FunctionMap)
	switch {
	case prob.Kind() == dynamo.Discrete && !isMap:
		return nil, fmt.Errorf("%w: %s cannot step a discrete problem", dynamo.ErrConfig, method.Name())
	case prob.Kind() == dynamo.Continuous && isMap:
		return nil, fmt.Errorf("%w: %s cannot step a continuous problem", dynamo.ErrConfig, method.Name())
	}
	if opts.Adaptive {
		if _, ok := method.(AdaptiveMethod); !ok {
			return nil, fmt.Errorf("%w: %s has no error estimate for adaptive stepping", dynamo.ErrConfig, method.Name())
		}
	}
	opts, err := opts.withDefaults(prob.Kind())
	if err != nil {
		return nil, err
	}

	i := &Integrator{
		prob:   prob,
		method: method,
		opts:   opts,
		log:    logrus.StandardLogger(),
	}
	i.f = func(dx, x dynamo.State, t float64) {
		prob.Dynamics().Derive(dx, x, i.p, t, nil)
	}
	i.Reinit()
	return i, nil
}

// SetLogger replaces the logger used for step diagnostics.
func (i *Integrator) SetLogger(l logrus.FieldLogger) { i.log = l }

func (i *Integrator) Time() float64             { return i.t }
func (i *Integrator) State() dynamo.State       { return i.u }
func (i *Integrator) Params() dynamo.Params     { return i.p }
func (i *Integrator) Dir() float64              { return i.prob.Dir() }
func (i *Integrator) Problem() *dynamo.Problem  { return i.prob }
func (i *Integrator) Method() Method            { return i.method }
func (i *Integrator) Options() Options          { return i.opts }
func (i *Integrator) StepCount() int            { return i.steps }
func (i *Integrator) SetParams(p dynamo.Params) { i.p = p }

func (i *Integrator) SetState(x dynamo.State) error {
	if len(x) != len(i.u) {
		return fmt.Errorf("%w: state has %d components, got %d", dynamo.ErrDimensionMismatch, len(i.u), len(x))
	}
	copy(i.u, x)
	return nil
}

func (i *Integrator) Reinit() {
	i.t, _ = i.prob.TSpan()
	i.u = i.prob.InitialState()
	i.p = dynamo.CopyParams(i.prob.Params())
	i.h = i.opts.Dt
	i.steps = 0
}

func (i *Integrator) Step(dt float64, stopAtTdt bool) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: step %v", dynamo.ErrConfig, dt)
	}
	if dt == 0 {
		return nil
	}
	dir := i.Dir()
	if dir*dt < 0 {
		return fmt.Errorf("%w: step %g runs against the direction of integration", dynamo.ErrConfig, dt)
	}

	_, tf := i.prob.TSpan()
	target := i.t + dt
	if dir*(target-tf) > 0 {
		target = tf
	}

	if i.prob.Kind() == dynamo.Discrete {
		return i.stepDiscrete(target, stopAtTdt)
	}
	return i.stepContinuous(target, stopAtTdt)
}

func (i *Integrator) reached(target float64) bool {
	return scalar.EqualWithinAbsOrRel(i.t, target, timeTol, timeTol) || i.Dir()*(target-i.t) < 0
}

func (i *Integrator) stepContinuous(target float64, stopAtTdt bool) error {
	dir := i.Dir()
	_, tf := i.prob.TSpan()
	adaptive, _ := i.method.(AdaptiveMethod)

	for !i.reached(target) {
		h := i.h
		limit := math.Abs(tf - i.t)
		if stopAtTdt {
			limit = math.Abs(target - i.t)
		}
		if h >= limit || scalar.EqualWithinAbsOrRel(h, limit, timeTol, timeTol) {
			h = limit
		}

		var xNew dynamo.State
		if i.opts.Adaptive {
			var hNew float64
			var ok bool
			xNew, hNew, ok = adaptive.StepAdaptive(i.f, i.u, i.t, dir*h, i.opts.Tolerance)
			hNew = math.Min(math.Abs(hNew), i.opts.MaxDt)
			if !ok {
				if h <= i.opts.MinDt {
					return &dynamo.SimulationError{Step: i.steps, Time: i.t, State: i.u.Clone(), Wrapped: dynamo.ErrStepTooSmall}
				}
				i.log.Debugf("[t=%.6f] step %.3g rejected, retrying with %.3g", i.t, h, hNew)
				i.h = math.Max(hNew, i.opts.MinDt)
				continue
			}
			if h == i.h {
				i.h = math.Max(hNew, i.opts.MinDt)
			}
		} else {
			xNew = i.method.Step(i.f, i.u, i.t, dir*h)
		}

		if i.opts.ValidateState && !xNew.IsValid() {
			return &dynamo.SimulationError{Step: i.steps, Time: i.t, State: i.u.Clone(), Wrapped: dynamo.ErrInvalidState}
		}

		copy(i.u, xNew)
		i.t += dir * h
		if scalar.EqualWithinAbsOrRel(i.t, target, timeTol, timeTol) {
			i.t = target
		}
		i.steps++
		if i.steps > i.opts.MaxSteps {
			return &dynamo.SimulationError{Step: i.steps, Time: i.t, State: i.u.Clone(), Wrapped: dynamo.ErrMaxSteps}
		}
	}
	return nil
}

// Discrete ticks sit on the grid t0 + k*Dt. Stopping between two ticks
// holds the state and moves only the clock.
func (i *Integrator) stepDiscrete(target float64, stopAtTdt bool) error {
	dir := i.Dir()
	t0, tf := i.prob.TSpan()
	tick := i.opts.Dt

	for !i.reached(target) {
		k := math.Floor(dir*(i.t-t0)/tick + 1e-9)
		next := t0 + dir*(k+1)*tick
		beyondTarget := dir*(next-target) > 0 && !scalar.EqualWithinAbsOrRel(next, target, timeTol, timeTol)
		beyondEnd := dir*(next-tf) > 0 && !scalar.EqualWithinAbsOrRel(next, tf, timeTol, timeTol)
		if beyondTarget && (stopAtTdt || beyondEnd) {
			i.t = target
			return nil
		}

		xNew := i.method.Step(i.f, i.u, i.t, dir*tick)
		if i.opts.ValidateState && !xNew.IsValid() {
			return &dynamo.SimulationError{Step: i.steps, Time: i.t, State: i.u.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
		copy(i.u, xNew)
		i.t = next
		if scalar.EqualWithinAbsOrRel(i.t, target, timeTol, timeTol) {
			i.t = target
		}
		i.steps++
		if i.steps > i.opts.MaxSteps {
			return &dynamo.SimulationError{Step: i.steps, Time: i.t, State: i.u.Clone(), Wrapped: dynamo.ErrMaxSteps}
		}
	}
	return nil
}
