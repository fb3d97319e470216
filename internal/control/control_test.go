package control

import (
	"errors"
	"testing"

	"github.com/san-kum/fsim/internal/dynamo"
)

func TestZero(t *testing.T) {
	u := Zero(2).Eval(dynamo.State{1.0, 2.0}, nil, 0.0).(dynamo.State)

	if len(u) != 2 {
		t.Errorf("expected 2 inputs, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("input[%d] should be 0, got %f", i, v)
		}
	}
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	u := ctrl.Eval(dynamo.State{1.0, 0.0}, nil, 0.0).(float64)
	if u >= 0 {
		t.Error("PID should output negative input for positive error")
	}

	ctrl.Eval(dynamo.State{0.5, 0.0}, nil, 1.0)
	if ctrl.integral == 0 {
		t.Error("expected integral to accumulate")
	}
	ctrl.Reset()
	if ctrl.integral != 0 || !ctrl.first {
		t.Error("Reset should clear integral state")
	}
}

func TestPID_SameTimeDoesNotIntegrate(t *testing.T) {
	ctrl := NewPID(1.0, 1.0, 1.0, 0.0)
	ctrl.Eval(dynamo.State{1.0}, nil, 0.0)
	ctrl.Eval(dynamo.State{1.0}, nil, 0.5)
	before := ctrl.integral
	ctrl.Eval(dynamo.State{1.0}, nil, 0.5)
	if ctrl.integral != before {
		t.Errorf("integral moved on a repeated time: %f -> %f", before, ctrl.integral)
	}
}

func TestPID_SameTimeKeepsDerivative(t *testing.T) {
	ctrl := NewPID(1.0, 0.0, 2.0, 0.0)
	ctrl.Eval(dynamo.State{1.0}, nil, 0.0)
	first := ctrl.Eval(dynamo.State{0.5}, nil, 0.5).(float64)

	// stages revisiting t=0.5 with the same state see the same output
	again := ctrl.Eval(dynamo.State{0.5}, nil, 0.5).(float64)
	if again != first {
		t.Errorf("output changed on a repeated (x, t): %f -> %f", first, again)
	}
	if want := -0.5 + 2.0*1.0; first != want {
		t.Errorf("expected %f, got %f", want, first)
	}
}

func TestPID_PeekDoesNotCommit(t *testing.T) {
	ctrl := NewPID(2.0, 1.0, 0.5, 1.0)
	ctrl.Eval(dynamo.State{0.0}, nil, 0.0)
	before := *ctrl

	peeked := ctrl.Peek(dynamo.State{0.2}, nil, 0.1).(float64)
	if *ctrl != before {
		t.Error("Peek changed the controller state")
	}
	if got := ctrl.Eval(dynamo.State{0.2}, nil, 0.1).(float64); got != peeked {
		t.Errorf("Eval after Peek: expected %f, got %f", peeked, got)
	}
}

func TestApplyInputs_LogPeeksStatefulInputs(t *testing.T) {
	pid := NewPID(1.0, 1.0, 1.0, 0.0)
	logged := dynamo.WithLog(
		func(dx, x dynamo.State, _ dynamo.Params, _ float64, in dynamo.Inputs) { dx[0] = in.Float("u") },
		func(_, _ dynamo.State, _ dynamo.Params, _ float64, in dynamo.Inputs) dynamo.Record {
			return dynamo.Record{"u": in.Float("u")}
		},
	)
	dyn := ApplyInputs(logged, map[string]Input{"u": pid})

	dx := make(dynamo.State, 1)
	dyn.Derive(dx, dynamo.State{1.0}, nil, 0.0, nil)
	before := *pid
	dyn.DeriveLog(dx, dynamo.State{0.5}, nil, 1.0, nil)
	if *pid != before {
		t.Error("DeriveLog advanced a stateful input")
	}
}

func TestPID_SetParam(t *testing.T) {
	ctrl := NewPID(1, 0, 0, 0)
	ctrl.SetParam("Kp", 3)
	ctrl.SetParam("bogus", 9)
	if ctrl.Params()["Kp"] != 3 {
		t.Errorf("expected Kp 3, got %f", ctrl.Params()["Kp"])
	}
}

func TestLQR(t *testing.T) {
	k := [][]float64{{1.0, 2.0}}
	target := dynamo.State{0.0, 0.0}
	ctrl := NewLQR(k, target)

	u := ctrl.Eval(dynamo.State{0.0, 0.0}, nil, 0.0).(dynamo.State)
	if u[0] != 0 {
		t.Errorf("expected zero input at target, got %f", u[0])
	}

	u = ctrl.Eval(dynamo.State{1.0, 0.0}, nil, 0.0).(dynamo.State)
	if u[0] != -1 {
		t.Errorf("expected -1 away from target, got %f", u[0])
	}
}

func TestPendulumLQR(t *testing.T) {
	ctrl := NewPendulumLQR()
	u := ctrl.Eval(dynamo.State{0.1, 0.0}, nil, 0.0).(dynamo.State)

	if len(u) != 1 {
		t.Fatalf("expected 1 input, got %d", len(u))
	}
	if u[0] == 0 {
		t.Error("pendulum LQR should output non-zero input for non-zero angle")
	}
}

func TestManual(t *testing.T) {
	m := NewManual(2)
	if err := m.Set(1, 2); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(1, 2, 3); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}

	got := m.Eval(nil, nil, 0).(dynamo.State)
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
	got[0] = 99
	if m.Get()[0] != 1 {
		t.Error("Eval should return a copy")
	}
	m.Reset()
	if m.Get()[0] != 0 {
		t.Error("Reset should zero the input")
	}
}

func TestApplyInputs_Stateful(t *testing.T) {
	inner := dynamo.Func(func(dx, x dynamo.State, p dynamo.Params, t float64, in dynamo.Inputs) {})

	cases := []struct {
		name   string
		inputs map[string]Input
		want   bool
	}{
		{"none", nil, false},
		{"constant", map[string]Input{"u": Constant(1.0)}, false},
		{"lqr", map[string]Input{"u": NewSpringMassLQR()}, false},
		{"pid", map[string]Input{"u": NewPID(1, 0, 0, 0)}, true},
		{"manual", map[string]Input{"u": Constant(1.0), "v": NewManual(1)}, true},
	}
	for _, c := range cases {
		if got := dynamo.IsStateful(ApplyInputs(inner, c.inputs)); got != c.want {
			t.Errorf("%s: stateful = %v, want %v", c.name, got, c.want)
		}
	}
}
