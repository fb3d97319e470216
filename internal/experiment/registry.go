package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/fsim/internal/config"
	"github.com/san-kum/fsim/internal/control"
	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/metrics"
	"github.com/san-kum/fsim/internal/physics"
)

type Registry struct {
	models      map[string]func() physics.Model
	controllers map[string]func(config.ControllerConfig, physics.Model) (control.Input, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() physics.Model),
		controllers: make(map[string]func(config.ControllerConfig, physics.Model) (control.Input, error)),
	}

	r.models["decay"] = func() physics.Model { return physics.NewDecay() }
	r.models["geometric"] = func() physics.Model { return physics.NewGeometric() }
	r.models["spring_mass"] = func() physics.Model { return physics.NewSpringMass() }
	r.models["pendulum"] = func() physics.Model { return physics.NewPendulum() }
	r.models["lorenz"] = func() physics.Model { return physics.NewLorenz() }

	r.controllers["none"] = func(config.ControllerConfig, physics.Model) (control.Input, error) {
		return nil, nil
	}
	r.controllers["pid"] = func(c config.ControllerConfig, _ physics.Model) (control.Input, error) {
		return control.NewPID(c.Kp, c.Ki, c.Kd, c.Target), nil
	}
	r.controllers["lqr"] = func(_ config.ControllerConfig, m physics.Model) (control.Input, error) {
		switch m.Name() {
		case "pendulum":
			return control.NewPendulumLQR(), nil
		case "spring_mass":
			return control.NewSpringMassLQR(), nil
		}
		return nil, fmt.Errorf("%w: no lqr gains for %s", dynamo.ErrConfig, m.Name())
	}

	return r
}

func (r *Registry) GetModel(name string) (physics.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model: %s", dynamo.ErrConfig, name)
	}
	return fn(), nil
}

// GetController returns the input for the named controller, or nil for
// "none".
func (r *Registry) GetController(name string, c config.ControllerConfig, m physics.Model) (control.Input, error) {
	if name == "" {
		name = "none"
	}
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown controller: %s", dynamo.ErrConfig, name)
	}
	return fn(c, m)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics picks the metrics worth reporting for a model. Models
// without a known energy column get a plain summary of every column.
func (r *Registry) DefaultMetrics(model string, columns []string) []metrics.Metric {
	switch model {
	case "pendulum":
		return []metrics.Metric{
			metrics.NewEnergyDrift("energy"),
			metrics.NewStability("theta", math.Pi),
			metrics.NewEffort("u"),
			metrics.NewDominantFrequency("theta"),
		}
	case "spring_mass":
		return []metrics.Metric{
			metrics.NewEnergyDrift("energy.total"),
			metrics.NewStability("pos", 10.0),
			metrics.NewEffort("u"),
			metrics.NewDominantFrequency("pos[0]"),
		}
	}
	return metrics.Summary(columns)
}
