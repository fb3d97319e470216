// Package control supplies external inputs to dynamics.
//
// [ApplyInputs] wraps a dynamics with named inputs that are evaluated on
// every call and handed to the inner dynamics through [dynamo.Inputs]:
//
//   - [Constant]: the same value every call
//   - [InputFunc]: a function of (x, p, t)
//   - [PID]: scalar feedback on the first state component
//   - [LQR]: full state feedback u = -K(x - target)
//   - [Manual]: a vector set from outside, e.g. by the TUI
//
// # Usage
//
//	dyn := control.ApplyInputs(physics.NewSpringMass(), map[string]control.Input{
//	    "u": control.NewSpringMassLQR(),
//	})
//
// The wrapped dynamics always implements [dynamo.Loggable], so wrapping
// never hides or breaks the logging capability of a simulator.
package control
