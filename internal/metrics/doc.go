// Package metrics scores ROA estimates and the trajectories behind them.
package metrics
