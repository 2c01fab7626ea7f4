package physics

import (
	"fmt"
	"math"

	"github.com/twhsu-stanley/Neural-Lyapunov-Uncertainties/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// CartPole is a pendulum hinged on a cart driven by a horizontal force.
// State: [position, angle, velocity, angular velocity], action: [force].
type CartPole struct {
	PoleMass float64
	CartMass float64
	Length   float64
	Friction float64
	Gravity  float64
}

func NewCartPole(poleMass, cartMass, length, friction float64) *CartPole {
	return &CartPole{
		PoleMass: poleMass,
		CartMass: cartMass,
		Length:   length,
		Friction: friction,
		Gravity:  Gravity,
	}
}

func (c *CartPole) Name() string { return "cartpole" }

func (c *CartPole) Clone() VectorField {
	cp := *c
	return &cp
}

func (c *CartPole) StateDim() int {
	return 4
}

func (c *CartPole) ActionDim() int {
	return 1
}

func (c *CartPole) ODE(x dynamo.State, u dynamo.Control) dynamo.State {
	vel := x[2]
	theta := x[1]
	omega := x[3]
	force := action(u, 0)

	m := c.PoleMass
	M := c.CartMass
	l := c.Length
	b := c.Friction
	g := c.Gravity

	sint := math.Sin(theta)
	cost := math.Cos(theta)
	sin2t := math.Sin(2 * theta)

	det := M + m*sint*sint
	vacc := (force - b*vel - m*l*omega*omega*sint + 0.5*m*g*sin2t) / det
	thetaacc := (force*cost - 0.5*m*l*omega*omega*sin2t - b*vel*cost + (m+M)*g*sint) / (det * l)

	return dynamo.State{vel, omega, vacc, thetaacc}
}

func (c *CartPole) Jacobian() (*mat.Dense, *mat.Dense) {
	m := c.PoleMass
	M := c.CartMass
	l := c.Length
	b := c.Friction
	g := c.Gravity

	A := mat.NewDense(4, 4, []float64{
		0, 0, 1, 0,
		0, 0, 0, 1,
		0, m * g / M, -b / M, 0,
		0, g * (m + M) / (l * M), -b / (M * l), 0,
	})
	B := mat.NewDense(4, 1, []float64{0, 0, 1 / M, 1 / (M * l)})
	return A, B
}

func (c *CartPole) GetParams() map[string]float64 {
	return map[string]float64{
		"pole_mass": c.PoleMass,
		"cart_mass": c.CartMass,
		"length":    c.Length,
		"friction":  c.Friction,
		"gravity":   c.Gravity,
	}
}

func (c *CartPole) SetParam(name string, value float64) error {
	switch name {
	case "pole_mass":
		c.PoleMass = value
	case "cart_mass":
		c.CartMass = value
	case "length":
		c.Length = value
	case "friction":
		c.Friction = value
	case "gravity":
		c.Gravity = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
