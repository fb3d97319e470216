// Package dynamo defines the contracts shared by the simulation driver and
// its collaborators.
//
//   - [State]: state vector of a dynamical system
//   - [Dynamics]: in-place state transition dx = f(x, p, t)
//   - [Loggable]: optional second form of a dynamics that also reports a [Record]
//   - [Problem]: immutable description of what to simulate
//   - [Integrator]: opaque stepping service owned by a single simulator
//   - [Callback]: action fired by the solver at preset times
//
// # Logging capability
//
// A dynamics value opts into telemetry by implementing [Loggable]. The
// check is a type assertion made once, when a simulator is built:
//
//	if l, ok := dyn.(dynamo.Loggable); ok {
//	    rec := l.DeriveLog(dx, x.Clone(), p, t, nil)
//	}
//
// DeriveLog may scribble on dx and x; callers hand it copies.
//
// # Thread Safety
//
// Integrators are NOT thread-safe and are never shared between simulators.
package dynamo
