// Package physics provides the dynamical system models used for
// region-of-attraction estimation.
//
// Each model implements [VectorField], defining the continuous-time
// differential equations in physical units together with their Jacobian
// about the origin:
//
//   - [InvertedPendulum]: torque-actuated pendulum about the upright position
//   - [CartPole]: pendulum on a force-actuated cart
//   - [EulerRigidBody]: Euler's rotation equations with body torques
//   - [VanDerPol]: Van der Pol oscillator in reverse time
//   - [Duffing]: forced cubic-stiffness oscillator
//   - [Backstepping3D]: strict-feedback chain x1 -> x2 -> x3 -> u
//   - [Perturbed]: planar polynomial system with a constant offset
//
// A [Model] wraps any vector field with a sampling time and an optional
// [dynamo.Normalization], and exposes the discrete one-step map used by
// closed-loop simulation:
//
//	field := physics.NewInvertedPendulum(0.15, 0.5, 0.1)
//	norm, _ := dynamo.NewNormalization([]float64{math.Pi, 2 * math.Pi}, []float64{0.7})
//	model, _ := physics.NewModel(field, 0.01, norm, dynamo.DefaultBackend())
//	next, _ := model.Step(states, actions)
//
// Models implement [dynamo.Configurable] so parameters can be read back for
// reporting. Parameters must not be changed once a field is wrapped in a
// [Model].
package physics
