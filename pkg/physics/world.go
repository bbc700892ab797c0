package physics

import (
	"fmt"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/solarlune/resolv"

	"github.com/cbodonnell/suika/pkg/kinematic"
)

const (
	// DefaultGravity is in pixels per second squared, pointing down the y axis.
	DefaultGravity float64 = 2000
	// DefaultCellSize is the query index cell size in pixels.
	DefaultCellSize int = 32
	// DefaultIterations is the number of solver iterations per step.
	DefaultIterations uint = 10

	frictionCoeff float64 = 0.1
	airFriction   float64 = 0.01

	collisionTypeBody cp.CollisionType = 1
)

// Contact is a pair of touching bodies. A always has the lower ID.
type Contact struct {
	A, B *Body
}

type pairKey struct {
	a, b uint64
}

func keyOf(a, b *Body) pairKey {
	if a.ID > b.ID {
		a, b = b, a
	}
	return pairKey{a: a.ID, b: b.ID}
}

// StepResult lists the contacts that began, ended, and persisted during a step.
type StepResult struct {
	Started  []Contact
	Ended    []Contact
	Touching []Contact
}

// World simulates bodies under gravity on a chipmunk space. A resolv space
// indexes body bounds for region queries.
type World struct {
	gravity float64
	space   *cp.Space
	index   *resolv.Space
	originX float64
	originY float64

	nextID   uint64
	bodies   []*Body
	contacts map[pairKey]Contact
	started  []Contact
	ended    []Contact
	removing bool
}

// NewWorldOptions contains options for creating a new World.
type NewWorldOptions struct {
	// Width and Height bound the query index, starting at OriginX, OriginY.
	Width    int
	Height   int
	OriginX  float64
	OriginY  float64
	CellSize int
	Gravity  float64
	// Iterations defaults to DefaultIterations.
	Iterations uint
}

func NewWorld(opts NewWorldOptions) *World {
	cellSize := opts.CellSize
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}

	w := &World{
		gravity:  opts.Gravity,
		space:    cp.NewSpace(),
		index:    resolv.NewSpace(opts.Width, opts.Height, cellSize, cellSize),
		originX:  opts.OriginX,
		originY:  opts.OriginY,
		contacts: make(map[pairKey]Contact),
	}
	// gravity is integrated by Step
	w.space.SetGravity(cp.Vector{})
	w.space.Iterations = iterations

	handler := w.space.NewCollisionHandler(collisionTypeBody, collisionTypeBody)
	handler.BeginFunc = w.beginContact
	handler.SeparateFunc = w.separateContact
	return w
}

// Add inserts a body and assigns its ID.
func (w *World) Add(b *Body) error {
	if b.body != nil {
		return fmt.Errorf("body %d is already in a world", b.ID)
	}
	if b.Shape == ShapeCircle && b.Radius <= 0 {
		return fmt.Errorf("circle radius must be positive, got %v", b.Radius)
	}
	if b.Shape == ShapeRectangle && (b.Width <= 0 || b.Height <= 0) {
		return fmt.Errorf("rectangle size must be positive, got %vx%v", b.Width, b.Height)
	}
	w.nextID++
	b.ID = w.nextID
	b.newSimBody()
	w.space.AddBody(b.body)
	w.space.AddShape(b.shape)

	hw, hh := b.halfExtents()
	tags := make([]string, 0, 1)
	if b.Tag != "" {
		tags = append(tags, b.Tag)
	}
	b.object = resolv.NewObject(b.X-hw-w.originX, b.Y-hh-w.originY, hw*2, hh*2, tags...)
	b.object.Data = b
	w.index.Add(b.object)

	w.bodies = append(w.bodies, b)
	return nil
}

// Remove deletes a body. Contacts involving it are dropped without being
// reported as ended.
func (w *World) Remove(b *Body) bool {
	if !w.Contains(b) {
		return false
	}

	w.removing = true
	w.space.RemoveShape(b.shape)
	w.space.RemoveBody(b.body)
	w.removing = false
	w.index.Remove(b.object)
	b.body, b.shape, b.object = nil, nil, nil

	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	for key := range w.contacts {
		if key.a == b.ID || key.b == b.ID {
			delete(w.contacts, key)
		}
	}
	w.started = dropContactsOf(w.started, b)
	w.ended = dropContactsOf(w.ended, b)
	return true
}

func dropContactsOf(contacts []Contact, b *Body) []Contact {
	kept := contacts[:0]
	for _, c := range contacts {
		if c.A != b && c.B != b {
			kept = append(kept, c)
		}
	}
	return kept
}

// Contains reports whether b is in the world.
func (w *World) Contains(b *Body) bool {
	if b == nil || b.body == nil {
		return false
	}
	owner, ok := b.body.UserData.(*Body)
	return ok && owner == b && b.object != nil && b.object.Space == w.index
}

// Bodies returns the bodies in insertion order.
func (w *World) Bodies() []*Body {
	bodies := make([]*Body, len(w.bodies))
	copy(bodies, w.bodies)
	return bodies
}

// SetStatic freezes or releases a body. Freezing clears its velocity.
func (w *World) SetStatic(b *Body, static bool) {
	if static {
		b.VX, b.VY, b.AngularVelocity = 0, 0, 0
	}
	if b.Static == static {
		return
	}
	b.Static = static
	if !w.Contains(b) {
		return
	}

	if static {
		b.body.SetType(cp.BODY_STATIC)
	} else {
		b.body.SetType(cp.BODY_DYNAMIC)
		b.body.SetMass(b.Mass())
		b.body.SetMoment(b.moment())
	}
	b.push()
	w.space.ReindexShapesForBody(b.body)
}

// SetPosition teleports a body.
func (w *World) SetPosition(b *Body, x, y float64) {
	b.X, b.Y = x, y
	if !w.Contains(b) {
		return
	}
	b.body.SetPosition(cp.Vector{X: x, Y: y})
	w.space.ReindexShapesForBody(b.body)
	w.syncObject(b)
}

// Step advances the world by dt seconds.
func (w *World) Step(dt float64) StepResult {
	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		b.VY = kinematic.FinalVelocity(b.VY, dt, w.gravity)
		b.VX *= 1 - airFriction
		b.VY *= 1 - airFriction
		b.AngularVelocity *= 1 - airFriction
		b.push()
	}

	w.space.Step(dt)

	for _, b := range w.bodies {
		if !b.Static {
			b.pull()
		}
		w.syncObject(b)
	}

	result := StepResult{
		Started:  w.started,
		Ended:    w.ended,
		Touching: make([]Contact, 0, len(w.contacts)),
	}
	for _, c := range w.contacts {
		result.Touching = append(result.Touching, c)
	}
	w.started = nil
	w.ended = nil

	sortContacts(result.Started)
	sortContacts(result.Ended)
	sortContacts(result.Touching)
	return result
}

// BodiesIn returns the bodies whose bounds overlap the given rectangle,
// ordered by ID. When tags are given only bodies with one of them match.
func (w *World) BodiesIn(x, y, width, height float64, tags ...string) []*Body {
	sx, sy := w.index.WorldToSpace(x-w.originX, y-w.originY)
	ex, ey := w.index.WorldToSpace(x+width-w.originX, y+height-w.originY)

	seen := make(map[*Body]struct{})
	found := make([]*Body, 0)
	for _, obj := range w.index.CheckCells(sx, sy, ex-sx+1, ey-sy+1, tags...) {
		b, ok := obj.Data.(*Body)
		if !ok {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		minX, minY, maxX, maxY := b.Bounds()
		if maxX < x || minX > x+width || maxY < y || minY > y+height {
			continue
		}
		found = append(found, b)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ID < found[j].ID
	})
	return found
}

func (w *World) syncObject(b *Body) {
	if b.object == nil {
		return
	}
	hw, hh := b.halfExtents()
	b.object.Position.X = b.X - hw - w.originX
	b.object.Position.Y = b.Y - hh - w.originY
	b.object.Update()
}

func (w *World) contactOf(arb *cp.Arbiter) (Contact, bool) {
	sa, sb := arb.Shapes()
	a, okA := sa.UserData.(*Body)
	b, okB := sb.UserData.(*Body)
	if !okA || !okB || a == b {
		return Contact{}, false
	}
	if a.ID > b.ID {
		a, b = b, a
	}
	return Contact{A: a, B: b}, true
}

func (w *World) beginContact(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	c, ok := w.contactOf(arb)
	if !ok {
		return true
	}
	key := keyOf(c.A, c.B)
	if _, ok := w.contacts[key]; !ok {
		w.contacts[key] = c
		w.started = append(w.started, c)
	}
	return true
}

func (w *World) separateContact(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
	c, ok := w.contactOf(arb)
	if !ok {
		return
	}
	key := keyOf(c.A, c.B)
	if _, ok := w.contacts[key]; !ok {
		return
	}
	delete(w.contacts, key)
	if !w.removing {
		w.ended = append(w.ended, c)
	}
}

func sortContacts(contacts []Contact) {
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].A.ID != contacts[j].A.ID {
			return contacts[i].A.ID < contacts[j].A.ID
		}
		return contacts[i].B.ID < contacts[j].B.ID
	})
}
