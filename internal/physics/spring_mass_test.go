package physics

import (
	"math"
	"testing"

	"github.com/san-kum/fsim/internal/dynamo"
	"github.com/san-kum/fsim/internal/record"
)

func TestSpringMassDerivative_Equilibrium(t *testing.T) {
	dx := make(dynamo.State, 2)
	NewSpringMass().Derive(dx, dynamo.State{0.0, 0.0}, nil, 0.0, nil)

	if dx[0] != 0 {
		t.Errorf("velocity at equilibrium should be 0, got %f", dx[0])
	}
	if dx[1] != 0 {
		t.Errorf("acceleration at equilibrium should be 0, got %f", dx[1])
	}
}

func TestSpringMassDerivative_Displaced(t *testing.T) {
	dx := make(dynamo.State, 2)
	NewSpringMass().Derive(dx, dynamo.State{1.0, 0.0}, NewSpringMassParams(), 0.0, nil)

	if dx[0] != 0 {
		t.Errorf("velocity should be 0, got %f", dx[0])
	}

	expectedAcc := -DefaultStiffness * 1.0 / DefaultMass
	if math.Abs(dx[1]-expectedAcc) > 0.001 {
		t.Errorf("expected acceleration %f, got %f", expectedAcc, dx[1])
	}
}

func TestSpringMassDerivative_Force(t *testing.T) {
	dx := make(dynamo.State, 2)
	NewSpringMass().Derive(dx, dynamo.State{0.0, 0.0}, nil, 0.0, dynamo.Inputs{"u": 3.0})

	if dx[1] != 3.0/DefaultMass {
		t.Errorf("expected acceleration %f, got %f", 3.0/DefaultMass, dx[1])
	}
}

func TestSpringMassEnergy(t *testing.T) {
	sm := NewSpringMass()

	ke1, pe1 := sm.Energy(dynamo.State{1.0, 0.0}, nil)
	ke2, pe2 := sm.Energy(dynamo.State{0.0, 3.16}, nil)

	if math.Abs((ke1+pe1)-(ke2+pe2)) > 1.0 {
		t.Errorf("energy should be approximately conserved: PE=%f, KE=%f", pe1, ke2)
	}
}

func TestSpringMassChain(t *testing.T) {
	p := NewSpringMassChainParams(3)
	x := dynamo.State{0, 1, 0, 0, 0, 0}
	dx := make(dynamo.State, 6)
	NewSpringMass().Derive(dx, x, p, 0, nil)

	if dx[3] != DefaultStiffness || dx[5] != DefaultStiffness {
		t.Errorf("neighbours should be pulled toward the middle mass, got %v", dx[3:])
	}
	if dx[4] != -2*DefaultStiffness {
		t.Errorf("middle mass acceleration = %f", dx[4])
	}
}

func TestSpringMassLogNested(t *testing.T) {
	m := NewSpringMass()
	rec := record.Normalize(m.DeriveLog(make(dynamo.State, 2), dynamo.State{1, 0}, nil, 0, dynamo.Inputs{"u": 0.5}))

	total, ok := rec.Float("energy", "total")
	if !ok || total != 0.5*DefaultStiffness {
		t.Errorf("energy.total = %v, %v", total, ok)
	}
	pos, ok := rec.Vector("pos")
	if !ok || len(pos) != 1 || pos[0] != 1 {
		t.Errorf("pos = %v", pos)
	}
	if u, _ := rec.Float("u"); u != 0.5 {
		t.Errorf("u = %v", u)
	}
}

func TestSpringMassParamsCopy(t *testing.T) {
	p := NewSpringMassChainParams(2)
	c := p.Copy().(*SpringMassParams)
	if err := c.Set("mass", 5); err != nil {
		t.Fatal(err)
	}
	if p.Masses[0] != DefaultMass {
		t.Error("copy should be deep")
	}
	if c.Values()["mass"] != 5 {
		t.Errorf("mass = %f", c.Values()["mass"])
	}
}
