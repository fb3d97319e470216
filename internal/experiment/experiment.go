// Package experiment turns a run file into a ready simulator.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fsim/internal/config"
	"github.com/san-kum/fsim/internal/control"
	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/metrics"
	"github.com/san-kum/fsim/internal/physics"
	"github.com/san-kum/fsim/internal/sim"
	"github.com/sirupsen/logrus"
)

type Experiment struct {
	cfg      *config.Config
	model    physics.Model
	base     sim.Config
	sim      *sim.Simulator
	registry *Registry
}

type Option func(*sim.Config)

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *sim.Config) { c.Logger = log }
}

// WithInputs adds inputs on top of the configured controller.
func WithInputs(inputs map[string]control.Input) Option {
	return func(c *sim.Config) { c.Dyn = control.ApplyInputs(c.Dyn, inputs) }
}

// Build resolves the model, parameters, controller and schedule of cfg.
func (r *Registry) Build(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := r.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	params, err := Params(model, cfg.Params)
	if err != nil {
		return nil, err
	}

	state := dynamo.State(cfg.State)
	if len(state) == 0 {
		state = model.DefaultState()
	}

	kind := model.Kind()
	if cfg.Kind != "" {
		if kind, err = dynamo.ParseKind(cfg.Kind); err != nil {
			return nil, err
		}
	}

	var dyn dynamo.Dynamics = model
	u, err := r.GetController(cfg.Controller, cfg.ControllerParams, model)
	if err != nil {
		return nil, err
	}
	if u != nil {
		dyn = control.ApplyInputs(model, map[string]control.Input{"u": u})
	}

	base := sim.Config{
		State0: state,
		Dyn:    dyn,
		Params: params,
		T0:     cfg.T0,
		TF:     cfg.TF,
		Kind:   kind,
		Method: cfg.Method,
		Solver: cfg.Solver,
	}
	for _, o := range opts {
		o(&base)
	}

	s, err := sim.New(base)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", cfg.Model, err)
	}
	return &Experiment{cfg: cfg, model: model, base: base, sim: s, registry: r}, nil
}

// Params starts from the model defaults and applies overrides by name.
func Params(model physics.Model, overrides map[string]float64) (dynamo.Params, error) {
	params := model.DefaultParams()
	if len(overrides) == 0 {
		return params, nil
	}
	t, ok := params.(physics.Tunable)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no tunable parameters", dynamo.ErrConfig, model.Name())
	}
	for name, v := range overrides {
		if err := t.Set(name, v); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Model() physics.Model      { return e.model }
func (e *Experiment) Simulator() *sim.Simulator { return e.sim }

// SimConfig is the configuration the simulator was built from.
func (e *Experiment) SimConfig() sim.Config { return e.base }

func (e *Experiment) SolveOptions() sim.SolveOptions {
	return sim.SolveOptions{SaveAt: e.cfg.SaveAt, SaveStep: e.cfg.SaveStep}
}

// SaveStep is the sampling step used when stepping interactively.
func (e *Experiment) SaveStep() float64 {
	if e.cfg.SaveStep > 0 {
		return e.cfg.SaveStep
	}
	return sim.DefaultSaveStep(e.base.Kind)
}

func (e *Experiment) Run(ctx context.Context) (*sim.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.sim.Solve(e.SolveOptions())
}

// Metrics evaluates the default metrics of the model over table.
func (e *Experiment) Metrics(table *sim.Table) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range metrics.Evaluate(table, e.registry.DefaultMetrics(e.model.Name(), table.Columns())...) {
		out[r.Name] = r.Value
	}
	return out
}

// Sweep solves the experiment once per value of one parameter, in parallel
// unless the dynamics keeps state between calls.
func (e *Experiment) Sweep(ctx context.Context, param string, values []float64, workers int) ([]*sim.Table, error) {
	params := make([]dynamo.Params, len(values))
	for i, v := range values {
		overrides := map[string]float64{param: v}
		for k, x := range e.cfg.Params {
			if k != param {
				overrides[k] = x
			}
		}
		p, err := Params(e.model, overrides)
		if err != nil {
			return nil, err
		}
		params[i] = p
	}
	return sim.NewEnsemble(e.base, e.SolveOptions()).SetWorkers(workers).Run(ctx, params)
}
