// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental types shared by the models and the
// region-of-attraction tooling:
//
//   - [State]: vector representing system state
//   - [System]: interface for time-invariant ODEs (dX/dt = f(X, u))
//   - [Normalization]: diagonal scaling between physical and working units
//   - [Backend]: explicit numeric execution settings
//
// Batches of states are represented as *mat.Dense with one state per row.
//
// # Example
//
//	norm, _ := dynamo.NewNormalization([]float64{math.Pi, 2}, []float64{5})
//	x, u := norm.Denormalize(xn, un)
package dynamo
