// Package control provides feedback policies that close the loop around a
// discrete-time dynamics model.
//
// Policies implement [Policy] to compute a batch of actions from a batch of
// normalized states:
//
//   - [LQR]: linear state feedback u = -K (x - target)
//   - [None]: zero action, also used for autonomous systems
//
// [DLQR] synthesizes the LQR gain from a discrete linearization, and
// [ClosedLoop] composes a model step with a policy into the state-to-state
// map consumed by the region-of-attraction estimator.
//
// # Usage
//
//	Ad, Bd, _ := model.Linearize()
//	K, _, _ := control.DLQR(Ad, Bd, Q, R)
//	step := control.ClosedLoop(model, control.NewLQR(K, nil))
package control
