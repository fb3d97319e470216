package control

import "github.com/san-kum/fsim/internal/dynamo"

// LQR is linear state feedback. Gains are computed offline.
type LQR struct {
	K      [][]float64
	Target dynamo.State
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Eval(x dynamo.State, _ dynamo.Params, _ float64) any {
	u := make(dynamo.State, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

var (
	pendulumGains = [][]float64{{31.62, 10.0}}
	springGains   = [][]float64{{10.0, 6.32}}
)

func NewPendulumLQR() *LQR {
	return NewLQR(pendulumGains, dynamo.State{0, 0})
}

func NewSpringMassLQR() *LQR {
	return NewLQR(springGains, dynamo.State{0, 0})
}
