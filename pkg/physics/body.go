package physics

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/solarlune/resolv"
)

// Shape is the collision shape of a body.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeRectangle
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

const (
	// density converts area to mass
	density float64 = 0.001
)

// Body is a rigid body in a World. Positions are centres. The exported state
// is copied into the simulation before each step and read back after it, so
// callers may set velocities and angles directly between steps. Position
// changes go through World.SetPosition.
type Body struct {
	ID     uint64
	Shape  Shape
	Tag    string
	Static bool

	X, Y            float64
	VX, VY          float64
	Angle           float64
	AngularVelocity float64

	Radius        float64
	Width, Height float64
	Restitution   float64

	body   *cp.Body
	shape  *cp.Shape
	object *resolv.Object
}

// NewCircle returns a dynamic circular body.
func NewCircle(x, y, radius float64, tag string) *Body {
	return &Body{
		Shape:  ShapeCircle,
		Tag:    tag,
		X:      x,
		Y:      y,
		Radius: radius,
	}
}

// NewRectangle returns a static rectangular body.
func NewRectangle(x, y, width, height float64, tag string) *Body {
	return &Body{
		Shape:  ShapeRectangle,
		Tag:    tag,
		Static: true,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// Mass is proportional to area.
func (b *Body) Mass() float64 {
	switch b.Shape {
	case ShapeCircle:
		return math.Pi * b.Radius * b.Radius * density
	case ShapeRectangle:
		return b.Width * b.Height * density
	}
	return 0
}

func (b *Body) moment() float64 {
	if b.Shape == ShapeCircle {
		return cp.MomentForCircle(b.Mass(), 0, b.Radius, cp.Vector{})
	}
	return cp.MomentForBox(b.Mass(), b.Width, b.Height)
}

// Bounds returns the axis aligned box around the body as min and max corners.
func (b *Body) Bounds() (minX, minY, maxX, maxY float64) {
	hw, hh := b.halfExtents()
	return b.X - hw, b.Y - hh, b.X + hw, b.Y + hh
}

func (b *Body) halfExtents() (float64, float64) {
	if b.Shape == ShapeCircle {
		return b.Radius, b.Radius
	}
	return b.Width / 2, b.Height / 2
}

// newSimBody builds the simulation body and shape for b.
func (b *Body) newSimBody() {
	if b.Static {
		b.body = cp.NewStaticBody()
	} else {
		b.body = cp.NewBody(b.Mass(), b.moment())
	}
	b.body.SetPosition(cp.Vector{X: b.X, Y: b.Y})
	b.body.SetAngle(b.Angle)
	b.body.UserData = b

	if b.Shape == ShapeCircle {
		b.shape = cp.NewCircle(b.body, b.Radius, cp.Vector{})
	} else {
		b.shape = cp.NewBox(b.body, b.Width, b.Height, 0)
	}
	// the engine multiplies the coefficients of both shapes in a pair
	b.shape.SetElasticity(math.Sqrt(b.Restitution))
	b.shape.SetFriction(math.Sqrt(frictionCoeff))
	b.shape.SetCollisionType(collisionTypeBody)
	b.shape.UserData = b
}

// push copies the exported state into the simulation body.
func (b *Body) push() {
	b.body.SetPosition(cp.Vector{X: b.X, Y: b.Y})
	b.body.SetAngle(b.Angle)
	if b.Static {
		return
	}
	b.body.SetVelocity(b.VX, b.VY)
	b.body.SetAngularVelocity(b.AngularVelocity)
}

// pull copies the simulation body's state back into the exported fields.
func (b *Body) pull() {
	p := b.body.Position()
	v := b.body.Velocity()
	b.X, b.Y = p.X, p.Y
	b.VX, b.VY = v.X, v.Y
	b.Angle = b.body.Angle()
	b.AngularVelocity = b.body.AngularVelocity()
}
