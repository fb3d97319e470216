// Package physics provides example dynamical systems.
//
// Each model is a [dynamo.Dynamics] whose parameters travel in the problem,
// not in the model, so one model value can serve many simulators:
//
//   - [Decay]: exponential decay dx = -k x
//   - [Geometric]: discrete map x' = a x
//   - [SpringMass]: damped spring-mass chain driven by input "u"
//   - [Pendulum]: damped pendulum driven by input "u"
//   - [Lorenz]: butterfly attractor
//
// All but Lorenz implement [dynamo.Loggable]. Parameter types implement
// [dynamo.Copier] and [Tunable].
//
// # Energy
//
// Hamiltonian models report their energy in the log record:
//
//	s, _ := sim.New(cfg)
//	e, _ := s.Sample().Float("energy", "total")
package physics

import (
	"fmt"

	"github.com/san-kum/fsim/internal/dynamo"
)

// Model is a dynamics with everything needed to start a simulation.
type Model interface {
	dynamo.Dynamics
	Name() string
	Kind() dynamo.Kind
	DefaultState() dynamo.State
	DefaultParams() dynamo.Params
}

// Tunable parameters can be inspected and changed by name.
type Tunable interface {
	Values() map[string]float64
	Set(name string, value float64) error
}

func unknownParam(model, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", dynamo.ErrConfig, model, name)
}
