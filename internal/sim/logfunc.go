package sim

import "github.com/san-kum/fsim/internal/dynamo"

// LogFunc recomputes the telemetry of a sample without touching the live
// trajectory.
type LogFunc func(x dynamo.State, t float64, integ dynamo.Integrator, in dynamo.Inputs) dynamo.Record

// AsLoggable reports whether dyn has a logging form.
func AsLoggable(dyn dynamo.Dynamics) (dynamo.Loggable, bool) {
	l, ok := dyn.(dynamo.Loggable)
	return l, ok
}

// NewLogFunc builds the logging closure for dyn, or returns nil when dyn
// cannot log.
//
// The dynamics receives a fresh zero derivative buffer, a copy of x and a
// copy of the integrator's parameters when they are copyable. Writing
// through x would corrupt the integrator state.
func NewLogFunc(dyn dynamo.Dynamics) LogFunc {
	l, ok := AsLoggable(dyn)
	if !ok {
		return nil
	}
	return func(x dynamo.State, t float64, integ dynamo.Integrator, in dynamo.Inputs) dynamo.Record {
		dx := make(dynamo.State, len(x))
		return l.DeriveLog(dx, x.Clone(), dynamo.CopyParams(integ.Params()), t, in)
	}
}
