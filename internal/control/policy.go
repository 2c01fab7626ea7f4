package control

import (
	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Policy maps a batch of states (one per row) to a batch of actions.
// Act returns nil when the policy has no action dimension.
type Policy interface {
	Act(states *mat.Dense) *mat.Dense
	ActionDim() int
}

// Evaluator maps a batch of [state, action] rows to the next states.
type Evaluator interface {
	Eval(stateAction *mat.Dense) (*mat.Dense, error)
}

// ClosedLoop composes model and policy into x -> model.Eval([x, policy(x)]).
func ClosedLoop(model Evaluator, policy Policy) func(*mat.Dense) (*mat.Dense, error) {
	return func(x *mat.Dense) (*mat.Dense, error) {
		return model.Eval(dynamo.HStack(x, policy.Act(x)))
	}
}

// Compute evaluates p on a single state.
func Compute(p Policy, x dynamo.State) dynamo.Control {
	u := p.Act(dynamo.FromStates([]dynamo.State{x}))
	if u == nil {
		return dynamo.Control{}
	}
	return dynamo.Control(dynamo.Row(u, 0))
}
