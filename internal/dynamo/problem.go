package dynamo

import (
	"fmt"
	"strings"
)

// Kind selects how the integrator interprets a dynamics function.
type Kind int

const (
	Continuous Kind = iota
	Discrete
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Discrete:
		return "discrete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continuous", "ode":
		return Continuous, nil
	case "discrete", "map":
		return Discrete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != Continuous && k != Discrete {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Problem is what a simulator integrates. It is never mutated after
// NewProblem returns.
type Problem struct {
	dyn  Dynamics
	x0   State
	t0   float64
	tf   float64
	p    Params
	kind Kind
}

func NewProblem(dyn Dynamics, x0 State, t0, tf float64, p Params, kind Kind) (*Problem, error) {
	if dyn == nil {
		return nil, fmt.Errorf("%w: nil dynamics", ErrConfig)
	}
	if len(x0) == 0 {
		return nil, fmt.Errorf("%w: empty initial state", ErrConfig)
	}
	if kind != Continuous && kind != Discrete {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, int(kind))
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("%w: initial state: %w", ErrConfig, ErrInvalidState)
	}
	return &Problem{
		dyn:  dyn,
		x0:   x0.Clone(),
		t0:   t0,
		tf:   tf,
		p:    p,
		kind: kind,
	}, nil
}

func (pr *Problem) Dynamics() Dynamics { return pr.dyn }

// InitialState returns a copy of the initial state.
func (pr *Problem) InitialState() State { return pr.x0.Clone() }

func (pr *Problem) TSpan() (t0, tf float64) { return pr.t0, pr.tf }

func (pr *Problem) Params() Params { return pr.p }

func (pr *Problem) Kind() Kind { return pr.kind }

// Dir is the direction of travel from t0 to tf.
func (pr *Problem) Dir() float64 {
	if pr.tf < pr.t0 {
		return -1
	}
	return 1
}
