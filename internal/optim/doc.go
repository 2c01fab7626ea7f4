// Package optim sweeps experiment settings over a parameter grid.
//
// A [Sweep] is the robustness view of a single ROA estimate: rerunning the
// pipeline while a model parameter such as the perturbation offset or a
// mass varies shows how the region of attraction shrinks under model
// uncertainty.
package optim
