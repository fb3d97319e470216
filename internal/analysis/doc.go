// Package analysis characterizes the long-run behavior of a model.
//
// [Lyapunov] estimates the largest Lyapunov exponent by stepping a
// reference and a perturbed simulator side by side. A positive value
// indicates chaos:
//
//	lambda, err := analysis.Lyapunov(cfg, analysis.LyapunovOptions{})
//	if lambda > 0 {
//	    // nearby trajectories diverge
//	}
package analysis
