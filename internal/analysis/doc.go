// Package analysis characterizes closed-loop dynamics beyond the binary ROA
// label.
//
// [Exponent] and [Spectrum] estimate Lyapunov exponents by trajectory
// separation. Inside a region of attraction of an exponentially stable
// equilibrium the largest exponent is negative:
//
//	lambda, err := analysis.Exponent(closedLoop, x0, dt, 500, 1e-6)
//	if err == nil && lambda < 0 {
//	    // neighbouring trajectories contract
//	}
package analysis
