// Package roa estimates regions of attraction by forward simulation.
//
// A batch of initial states is pushed through a closed-loop map for a fixed
// horizon and every state is labeled by where it ends up: close to a target
// equilibrium (Compute, ComputeContinuous) or close to its own previous step
// (ComputeSteadyState). GenerateTrajectories produces the visited states
// together with their finite-difference velocities.
package roa
