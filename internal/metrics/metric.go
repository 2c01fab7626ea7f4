package metrics

import (
	"math"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
)

// Metric accumulates a scalar over a trajectory.
type Metric interface {
	Name() string
	Observe(x dynamo.State, u dynamo.Control)
	Value() float64
	Reset()
}

// Observe feeds a trajectory and its actions to every metric. us may be
// shorter than xs or empty for autonomous systems.
func Observe(ms []Metric, xs []dynamo.State, us []dynamo.Control) {
	for i, x := range xs {
		var u dynamo.Control
		if i < len(us) {
			u = us[i]
		}
		for _, m := range ms {
			m.Observe(x, u)
		}
	}
}

// Values collects Name() -> Value() for every metric.
func Values(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(_ dynamo.State, u dynamo.Control) {
	for _, val := range u {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Boundedness is the share of observed states whose every coordinate stays
// within threshold.
type Boundedness struct {
	threshold  float64
	violations int
	samples    int
}

func NewBoundedness(threshold float64) *Boundedness {
	return &Boundedness{
		threshold: threshold,
	}
}

func (b *Boundedness) Name() string { return "boundedness" }

func (b *Boundedness) Observe(x dynamo.State, _ dynamo.Control) {
	b.samples++
	for _, val := range x {
		if math.Abs(val) > b.threshold {
			b.violations++
			break
		}
	}
}

func (b *Boundedness) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Boundedness) Reset() {
	b.violations = 0
	b.samples = 0
}

// Energetic is implemented by vector fields with a natural energy function.
type Energetic interface {
	Energy(x dynamo.State) float64
}

// EnergyDecay reports the final energy relative to the first observed one.
type EnergyDecay struct {
	sys     Energetic
	initial float64
	current float64
	samples int
}

func NewEnergyDecay(sys Energetic) *EnergyDecay {
	return &EnergyDecay{sys: sys}
}

func (e *EnergyDecay) Name() string { return "energy_ratio" }

func (e *EnergyDecay) Observe(x dynamo.State, _ dynamo.Control) {
	energy := e.sys.Energy(x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++
}

func (e *EnergyDecay) Value() float64 {
	if e.samples == 0 || e.initial == 0 {
		return 0
	}
	return e.current / e.initial
}

func (e *EnergyDecay) Reset() {
	e.initial = 0
	e.current = 0
	e.samples = 0
}
