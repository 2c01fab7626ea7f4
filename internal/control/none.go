package control

import "gonum.org/v1/gonum/mat"

type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{
		dim: dim,
	}
}

func (n *None) ActionDim() int { return n.dim }

func (n *None) Act(states *mat.Dense) *mat.Dense {
	if n.dim == 0 {
		return nil
	}
	r, _ := states.Dims()
	return mat.NewDense(r, n.dim, nil)
}
