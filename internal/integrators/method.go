package integrators

import (
	"fmt"
	"strings"

	"github.com/san-kum/fsim/internal/dynamo"
)

// Deriv evaluates a right-hand side into dx. dx is zeroed before the call.
type Deriv func(dx, x dynamo.State, t float64)

func (f Deriv) into(dx, x dynamo.State, t float64) {
	for i := range dx {
		dx[i] = 0
	}
	f(dx, x, t)
}

// Method advances x by one internal step of size dt. dt is negative when
// integrating backwards in time.
type Method interface {
	Name() string
	Step(f Deriv, x dynamo.State, t, dt float64) dynamo.State
}

// AdaptiveMethod additionally estimates the local error of a step and
// proposes the next step size. accepted is false when the error exceeded tol.
type AdaptiveMethod interface {
	Method
	StepAdaptive(f Deriv, x dynamo.State, t, dt, tol float64) (xNew dynamo.State, dtNew float64, accepted bool)
}

// ByName returns a fresh method for a configuration name.
func ByName(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "euler":
		return NewEuler(), nil
	case "", "rk4":
		return NewRK4(), nil
	case "rk45", "dopri5":
		return NewRK45(), nil
	case "map", "functionmap":
		return NewFunctionMap(), nil
	}
	return nil, fmt.Errorf("%w: unknown integrator: %s", dynamo.ErrConfig, name)
}

// Names lists the names ByName accepts.
func Names() []string {
	return []string{"euler", "rk4", "rk45", "map"}
}

// DefaultFor returns the method used when none is configured.
func DefaultFor(kind dynamo.Kind) Method {
	if kind == dynamo.Discrete {
		return NewFunctionMap()
	}
	return NewRK4()
}
