package lyapunov

import (
	"encoding/gob"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Evaluator computes V for every row of a batch.
type Evaluator interface {
	Eval(x *mat.Dense) []float64
}

func init() {
	gob.Register(&PDChain{})
	gob.Register(&QuadraticForm{})
	gob.Register(&Perturbation{})
	gob.Register(&Ridge{})
	gob.Register(&Sum{})
	gob.Register(&Network{})
}

// PDChain evaluates V(x) = ‖φ(x)‖² through a chain of PDLayers.
type PDChain struct {
	Layers []PDLayer
}

func (c *PDChain) Eval(x *mat.Dense) []float64 {
	h := x
	for i := range c.Layers {
		h = c.Layers[i].Forward(h)
	}
	return squaredRowNorms(h)
}

// QuadraticForm evaluates V(x) = xᵀ(LᵀL + εI)x.
type QuadraticForm struct {
	L   *mat.Dense
	Eps float64
}

func (q *QuadraticForm) Matrix() *mat.Dense {
	var p mat.Dense
	p.Mul(q.L.T(), q.L)
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		p.Set(i, i, p.At(i, i)+q.Eps)
	}
	return &p
}

func (q *QuadraticForm) Eval(x *mat.Dense) []float64 {
	var lx mat.Dense
	lx.Mul(x, q.L.T())
	out := squaredRowNorms(&lx)
	for i, v := range squaredRowNorms(x) {
		out[i] += q.Eps * v
	}
	return out
}

// Perturbation evaluates V(x) = ‖ψ(x) − ψ(0)‖² for an unconstrained network ψ.
// V is positive semi-definite.
type Perturbation struct {
	Layers []DenseLayer
}

func (p *Perturbation) forward(x *mat.Dense) *mat.Dense {
	h := x
	for i := range p.Layers {
		h = p.Layers[i].Forward(h)
	}
	return h
}

func (p *Perturbation) Eval(x *mat.Dense) []float64 {
	_, d := x.Dims()
	zero := p.forward(mat.NewDense(1, d, nil)).RawRowView(0)
	h := p.forward(x)
	h.Apply(func(_, j int, v float64) float64 { return v - zero[j] }, h)
	return squaredRowNorms(h)
}

// Ridge evaluates V(x) = ε‖x‖².
type Ridge struct {
	Eps float64
}

func (r *Ridge) Eval(x *mat.Dense) []float64 {
	out := squaredRowNorms(x)
	for i := range out {
		out[i] *= r.Eps
	}
	return out
}

// Sum adds its terms.
type Sum struct {
	Terms []Evaluator
}

func (s *Sum) Eval(x *mat.Dense) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	for _, t := range s.Terms {
		for i, v := range t.Eval(x) {
			out[i] += v
		}
	}
	return out
}

type Config struct {
	InputDim    int
	LayerDims   []int
	Activations []string
	Eps         float64
	Structure   Structure
	Seed        uint64
}

// Network is a Lyapunov candidate of a given structure.
type Network struct {
	Structure Structure
	Net       Evaluator
}

// New builds and Xavier-initializes the network selected by cfg.Structure.
func New(cfg Config, log logrus.FieldLogger) (*Network, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.InputDim < 1 {
		return nil, fmt.Errorf("input dimension %d: %w", cfg.InputDim, ErrInvalidLayers)
	}
	if len(cfg.LayerDims) != len(cfg.Activations) {
		return nil, fmt.Errorf("%d layers with %d activations: %w", len(cfg.LayerDims), len(cfg.Activations), ErrInvalidLayers)
	}
	acts := make([]Activation, len(cfg.Activations))
	for i, name := range cfg.Activations {
		a, err := ParseActivation(name)
		if err != nil {
			return nil, err
		}
		acts[i] = a
	}

	b := &builder{
		cfg:  cfg,
		acts: acts,
		rng:  rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}

	var net Evaluator
	var err error
	switch cfg.Structure {
	case ETH:
		net, err = b.pdChain()
	case Quadratic:
		net = b.quadratic()
	case SumOfTwo:
		net, err = b.sum(b.pdChain, func() (Evaluator, error) { return b.quadratic(), nil })
	case PerturbPosSemi:
		net, err = b.perturbation()
	case PerturbETH:
		net, err = b.sum(b.pdChain, b.perturbation)
	case SumOfTwoPosSemi:
		net, err = b.sum(b.perturbation, b.ridge)
	case SumOfTwoETH:
		net, err = b.sum(b.pdChain, b.ridge)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStructure, cfg.Structure)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"structure": cfg.Structure.String(),
		"layers":    cfg.LayerDims,
	}).Debug("lyapunov network built")
	return &Network{Structure: cfg.Structure, Net: net}, nil
}

func (n *Network) Eval(x *mat.Dense) []float64 {
	return n.Net.Eval(x)
}

type builder struct {
	cfg  Config
	acts []Activation
	rng  *rand.Rand
}

// xavier fills an (out × in) matrix from U(-a, a), a = sqrt(6 / (in + out)).
func (b *builder) xavier(out, in int) *mat.Dense {
	a := math.Sqrt(6 / float64(in+out))
	u := distuv.Uniform{Min: -a, Max: a, Src: b.rng}
	data := make([]float64, out*in)
	for i := range data {
		data[i] = u.Rand()
	}
	return mat.NewDense(out, in, data)
}

func (b *builder) pdChain() (Evaluator, error) {
	if len(b.cfg.LayerDims) == 0 {
		return nil, fmt.Errorf("eth chain needs at least one layer: %w", ErrInvalidLayers)
	}
	chain := &PDChain{Layers: make([]PDLayer, len(b.cfg.LayerDims))}
	in := b.cfg.InputDim
	for i, out := range b.cfg.LayerDims {
		if out < in {
			return nil, fmt.Errorf("layer %d narrows %d to %d: %w", i, in, out, ErrInvalidLayers)
		}
		q := (in + 2) / 2
		layer := PDLayer{
			G:          b.xavier(q, in),
			Eps:        b.cfg.Eps,
			Activation: b.acts[i],
		}
		if out > in {
			layer.G2 = b.xavier(out-in, in)
		}
		chain.Layers[i] = layer
		in = out
	}
	return chain, nil
}

func (b *builder) quadratic() Evaluator {
	n := b.cfg.InputDim
	return &QuadraticForm{L: b.xavier(n, n), Eps: b.cfg.Eps}
}

func (b *builder) perturbation() (Evaluator, error) {
	if len(b.cfg.LayerDims) == 0 {
		return nil, fmt.Errorf("perturbation network needs at least one layer: %w", ErrInvalidLayers)
	}
	p := &Perturbation{Layers: make([]DenseLayer, len(b.cfg.LayerDims))}
	in := b.cfg.InputDim
	for i, out := range b.cfg.LayerDims {
		if out < 1 {
			return nil, fmt.Errorf("layer %d has width %d: %w", i, out, ErrInvalidLayers)
		}
		p.Layers[i] = DenseLayer{
			W:          b.xavier(out, in),
			B:          make([]float64, out),
			Activation: b.acts[i],
		}
		in = out
	}
	return p, nil
}

func (b *builder) ridge() (Evaluator, error) {
	return &Ridge{Eps: b.cfg.Eps}, nil
}

func (b *builder) sum(parts ...func() (Evaluator, error)) (Evaluator, error) {
	s := &Sum{Terms: make([]Evaluator, len(parts))}
	for i, part := range parts {
		t, err := part()
		if err != nil {
			return nil, err
		}
		s.Terms[i] = t
	}
	return s, nil
}
