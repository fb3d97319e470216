// Package sim drives an integrator through a simulation and collects the
// telemetry of its dynamics into a [Table].
//
// A Simulator is used either in one shot:
//
//	s, _ := sim.New(cfg)
//	table, err := s.Solve(sim.SolveOptions{SaveStep: 0.01})
//
// or interactively, with the caller choosing where to stop and what to keep:
//
//	table := sim.NewTable()
//	s.Push(table, true)
//	for _, t := range stops {
//	    ok, err := s.StepUntil(t)
//	    ...
//	    s.Push(table, ok)
//	}
//
// Simulators are NOT thread-safe. Build one per goroutine; see [Ensemble].
package sim

import (
	"fmt"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/integrators"
	"github.com/san-kum/fsim/internal/record"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats/scalar"
)

// Times closer than this (relative, with a tiny absolute floor) are the same
// instant.
const (
	timeRelTol = 1.4901161193847656e-08
	timeAbsTol = 1e-12
)

func sameTime(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, timeAbsTol, timeRelTol)
}

// Config describes a Simulator.
type Config struct {
	State0 dynamo.State
	Dyn    dynamo.Dynamics
	Params dynamo.Params
	T0     float64
	TF     float64
	Kind   dynamo.Kind
	// Method names the integration method; empty picks the default for Kind.
	Method string
	Solver integrators.Options
	// Record makes the simulator own a Table that Reinit seeds and Step
	// appends to.
	Record bool
	Logger logrus.FieldLogger
	// Integrator overrides how the integrator is built from the problem.
	Integrator func(prob *dynamo.Problem) (dynamo.Integrator, error)
}

func DefaultConfig() Config {
	return Config{
		T0:     0,
		TF:     1,
		Kind:   dynamo.Continuous,
		Solver: integrators.DefaultOptions(),
	}
}

// Phase is the position of a Simulator in its time span.
type Phase int

const (
	Fresh Phase = iota
	Running
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Fresh:
		return "fresh"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Simulator struct {
	integ dynamo.Integrator
	logf  LogFunc
	table *Table
	reset dynamo.Resetter
	log   logrus.FieldLogger
}

func New(cfg Config) (*Simulator, error) {
	prob, err := dynamo.NewProblem(cfg.Dyn, cfg.State0, cfg.T0, cfg.TF, cfg.Params, cfg.Kind)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	var integ dynamo.Integrator
	if cfg.Integrator != nil {
		integ, err = cfg.Integrator(prob)
	} else {
		integ, err = newIntegrator(prob, cfg, log)
	}
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		integ: integ,
		logf:  NewLogFunc(cfg.Dyn),
		log:   log,
	}
	s.reset, _ = cfg.Dyn.(dynamo.Resetter)
	if cfg.Record {
		s.table = NewTable()
	}
	s.Reinit()
	return s, nil
}

func newIntegrator(prob *dynamo.Problem, cfg Config, log logrus.FieldLogger) (*integrators.Integrator, error) {
	method := integrators.DefaultFor(prob.Kind())
	if cfg.Method != "" {
		m, err := integrators.ByName(cfg.Method)
		if err != nil {
			return nil, err
		}
		method = m
	}
	integ, err := integrators.Init(prob, method, cfg.Solver)
	if err != nil {
		return nil, err
	}
	integ.SetLogger(log)
	return integ, nil
}

func (s *Simulator) Integrator() dynamo.Integrator { return s.integ }

// Loggable reports whether the dynamics had a logging form at construction.
func (s *Simulator) Loggable() bool { return s.logf != nil }

// Table is the owned table, or nil when the simulator was built without Record.
func (s *Simulator) Table() *Table { return s.table }

func (s *Simulator) Time() float64 { return s.integ.Time() }

func (s *Simulator) Phase() Phase {
	t0, tf := s.integ.Problem().TSpan()
	t := s.integ.Time()
	switch {
	case sameTime(t, t0):
		return Fresh
	case sameTime(t, tf):
		return Terminated
	default:
		return Running
	}
}

// Reinit rewinds to t0 and resets stateful dynamics. An owned table is
// cleared and seeded with the initial sample.
func (s *Simulator) Reinit() {
	if s.reset != nil {
		s.reset.Reset()
	}
	s.integ.Reinit()
	if s.table != nil {
		s.table.Reset()
		s.Push(s.table, true)
	}
}

// Sample is the normalized record of the current state. It is empty when
// the dynamics cannot log.
func (s *Simulator) Sample() record.Struct {
	return record.Normalize(s.save(s.integ.State(), s.integ.Time(), s.integ))
}

func (s *Simulator) save(x dynamo.State, t float64, integ dynamo.Integrator) dynamo.Record {
	if s.logf == nil {
		return nil
	}
	return s.logf(x, t, integ, nil)
}

// Push appends the current sample to table when ok is true.
func (s *Simulator) Push(table *Table, ok bool) {
	if !ok || table == nil {
		return
	}
	table.Append(s.integ.Time(), s.Sample())
}

type stepConfig struct {
	autosave bool
	warn     bool
	into     *Table
}

// StepOption tunes Step and StepUntil.
type StepOption func(*stepConfig)

// NoSave skips appending to the owned table.
func NoSave() StepOption { return func(c *stepConfig) { c.autosave = false } }

// NoWarn silences truncation and no-op warnings.
func NoWarn() StepOption { return func(c *stepConfig) { c.warn = false } }

// Into appends the post-step sample to table.
func Into(table *Table) StepOption { return func(c *stepConfig) { c.into = table } }

func stepOptions(opts []StepOption) stepConfig {
	c := stepConfig{autosave: true, warn: true}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Step advances by exactly dt. Integrator errors are returned unchanged.
func (s *Simulator) Step(dt float64, opts ...StepOption) error {
	return s.step(dt, stepOptions(opts))
}

func (s *Simulator) step(dt float64, c stepConfig) error {
	if err := s.integ.Step(dt, true); err != nil {
		return err
	}
	if c.autosave && s.table != nil {
		s.Push(s.table, true)
	}
	if c.into != nil && c.into != s.table {
		s.Push(c.into, true)
	}
	return nil
}

// StepUntil advances to target. A target past the end of the time span is
// truncated to it. When there is nothing to do the call reports false and
// takes no step.
func (s *Simulator) StepUntil(target float64, opts ...StepOption) (bool, error) {
	c := stepOptions(opts)
	t := s.integ.Time()
	_, tf := s.integ.Problem().TSpan()
	dir := s.integ.Dir()

	if dir*(target-tf) > 0 {
		if !sameTime(target, tf) && c.warn {
			s.log.WithFields(logrus.Fields{"t": t, "target": target, "tf": tf}).
				Warn("step target beyond the time span; truncating to tf")
		}
		target = tf
	}
	if sameTime(target, t) {
		if c.warn {
			s.log.WithFields(logrus.Fields{"t": t, "target": target}).
				Warn("already at step target; no step taken")
		}
		return false, nil
	}
	if err := s.step(target-t, c); err != nil {
		return false, err
	}
	return true, nil
}
