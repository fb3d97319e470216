package physics

import (
	"math"
	"testing"

	"github.com/san-kum/fsim/internal/dynamo"
)

func TestModelsImplementContracts(t *testing.T) {
	models := []Model{NewDecay(), NewGeometric(), NewSpringMass(), NewPendulum(), NewLorenz()}
	for _, m := range models {
		t.Run(m.Name(), func(t *testing.T) {
			x := m.DefaultState()
			dx := make(dynamo.State, len(x))
			m.Derive(dx, x, m.DefaultParams(), 0, nil)
			if !dx.IsValid() {
				t.Errorf("derivative not finite: %v", dx)
			}
			if _, ok := m.DefaultParams().(dynamo.Copier); !ok {
				t.Error("params should be copyable")
			}
			if _, ok := m.DefaultParams().(Tunable); !ok {
				t.Error("params should be tunable")
			}
		})
	}

	if _, ok := any(NewLorenz()).(dynamo.Loggable); ok {
		t.Error("lorenz should not log")
	}
	if NewGeometric().Kind() != dynamo.Discrete {
		t.Error("geometric should be discrete")
	}
}

func TestDecay(t *testing.T) {
	dx := make(dynamo.State, 2)
	NewDecay().Derive(dx, dynamo.State{1, 2}, 2.0, 0, nil)
	if dx[0] != -2 || dx[1] != -4 {
		t.Errorf("dx = %v", dx)
	}
	NewDecay().Derive(dx, dynamo.State{1, 2}, &DecayParams{Rate: 0.5}, 0, nil)
	if dx[0] != -0.5 {
		t.Errorf("dx = %v", dx)
	}
}

func TestGeometric(t *testing.T) {
	next := make(dynamo.State, 1)
	NewGeometric().Derive(next, dynamo.State{2}, &GeometricParams{Factor: 0.5}, 0, nil)
	if next[0] != 1 {
		t.Errorf("next = %v", next)
	}
}

func TestLorenzFixedPoint(t *testing.T) {
	p := NewLorenz().DefaultParams().(*LorenzParams)
	c := math.Sqrt(p.Beta * (p.Rho - 1))
	dx := make(dynamo.State, 3)
	NewLorenz().Derive(dx, dynamo.State{c, c, p.Rho - 1}, p, 0, nil)
	for i, v := range dx {
		if math.Abs(v) > 1e-9 {
			t.Errorf("dx[%d] = %g at fixed point", i, v)
		}
	}
}
