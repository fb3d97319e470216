package control

import "github.com/san-kum/fsim/internal/dynamo"

// PID acts on the first state component. It keeps the integral and the
// previous error between calls, so call Reset before rerunning.
//
// Between two forward-moving calls the output is a function of (x, t)
// only: a call at a time no later than the last committed one reuses the
// last integral and derivative.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	integral float64
	deriv    float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

type pidStep struct {
	err      float64
	integral float64
	deriv    float64
	advance  bool
}

func (p *PID) step(x dynamo.State, t float64) (float64, pidStep) {
	err := p.Target - x[0]
	if p.first {
		return p.Kp * err, pidStep{err: err, advance: true}
	}

	s := pidStep{err: err, integral: p.integral, deriv: p.deriv}
	// solver stages revisit earlier times; only forward progress integrates
	if dt := t - p.prevT; dt > 0 {
		s.integral += err * dt
		s.deriv = (err - p.prevErr) / dt
		s.advance = true
	}
	return p.Kp*err + p.Ki*s.integral + p.Kd*s.deriv, s
}

// Eval returns the control output and commits it when t moved forward.
func (p *PID) Eval(x dynamo.State, _ dynamo.Params, t float64) any {
	if len(x) == 0 {
		return 0.0
	}
	u, s := p.step(x, t)
	if s.advance {
		p.integral = s.integral
		p.deriv = s.deriv
		p.prevErr = s.err
		p.prevT = t
		p.first = false
	}
	return u
}

// Peek returns what Eval would return without committing anything.
func (p *PID) Peek(x dynamo.State, _ dynamo.Params, t float64) any {
	if len(x) == 0 {
		return 0.0
	}
	u, _ := p.step(x, t)
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.deriv = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

// Params returns the tunable gains.
func (p *PID) Params() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

// SetParam adjusts one gain by name. Unknown names are ignored.
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	}
}
