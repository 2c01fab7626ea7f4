// Package experiment wires a configured system, its feedback policy, and
// the ROA estimators into one pipeline.
//
// A run builds the model from [config.SystemConfig], designs a discrete LQR
// gain on its linearization when asked to, labels every grid point by
// whether its closed-loop trajectory settles, and optionally rolls out
// sample trajectories and scores a Lyapunov network candidate against the
// labels. [Experiment.Save] persists the result through [storage.Store].
package experiment
