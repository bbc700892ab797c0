package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/game/types"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/cbodonnell/suika/pkg/physics"
	"github.com/cbodonnell/suika/pkg/scheduler"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be applied. The board
// is left untouched.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Match is one client's simulation of both boards in a shared physics world.
// It is not safe for concurrent use.
type Match struct {
	world     *physics.World
	scheduler *scheduler.Scheduler
	bag       []int
	boards    [2]*types.Board
	players   [2]*types.Player
	fruits    map[*physics.Body]*types.Fruit
	partners  map[*types.Fruit]*types.Fruit
	events    []types.Event
	popDelay  uint64
	dt        float64
}

// NewMatchOptions contains options for creating a new Match.
type NewMatchOptions struct {
	// LocalSeat is the seat whose board is simulated authoritatively.
	LocalSeat int
	Bag       []int
	Scheduler *scheduler.Scheduler
	// PopDelayTicks defaults to constants.PopDelayTicks.
	PopDelayTicks uint64
	// TickRate defaults to constants.TickRate.
	TickRate int
}

func NewMatch(opts NewMatchOptions) (*Match, error) {
	if opts.LocalSeat < 0 || opts.LocalSeat > 1 {
		return nil, fmt.Errorf("local seat must be 0 or 1, got %d", opts.LocalSeat)
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = scheduler.New()
	}
	popDelay := opts.PopDelayTicks
	if popDelay == 0 {
		popDelay = constants.PopDelayTicks
	}
	tickRate := opts.TickRate
	if tickRate <= 0 {
		tickRate = constants.TickRate
	}

	m := &Match{
		world:     NewCollisionWorld(),
		scheduler: sched,
		fruits:    make(map[*physics.Body]*types.Fruit),
		partners:  make(map[*types.Fruit]*types.Fruit),
		events:    make([]types.Event, 0),
		popDelay:  popDelay,
		dt:        1 / float64(tickRate),
	}
	m.SetBag(opts.Bag)
	for seat := 0; seat < 2; seat++ {
		board := types.NewBoard(seat, seat == opts.LocalSeat)
		if err := m.addBox(board); err != nil {
			return nil, fmt.Errorf("failed to add box for seat %d: %v", seat, err)
		}
		m.boards[seat] = board
		m.players[seat] = types.NewPlayer(seat, board)
	}
	return m, nil
}

func (m *Match) Scheduler() *scheduler.Scheduler {
	return m.scheduler
}

func (m *Match) World() *physics.World {
	return m.world
}

// Board returns the board for a seat, or nil.
func (m *Match) Board(seat int) *types.Board {
	if seat < 0 || seat > 1 {
		return nil
	}
	return m.boards[seat]
}

// Player returns the player for a seat, or nil.
func (m *Match) Player(seat int) *types.Player {
	if seat < 0 || seat > 1 {
		return nil
	}
	return m.players[seat]
}

// SetBag replaces the shared spawn order.
func (m *Match) SetBag(bag []int) {
	m.bag = append([]int(nil), bag...)
}

func (m *Match) Bag() []int {
	return m.bag
}

// BagRank returns the rank at a bag position. Positions wrap around the bag.
// An empty bag always yields cherries.
func (m *Match) BagRank(index int) int {
	if len(m.bag) == 0 {
		return 0
	}
	i := index % len(m.bag)
	if i < 0 {
		i += len(m.bag)
	}
	return m.bag[i]
}

// SpawnFruit adds a released fruit of the given rank to a board.
func (m *Match) SpawnFruit(board *types.Board, x, y float64, rank int) (*types.Fruit, error) {
	fruit, err := m.newFruit(board, x, y, rank)
	if err != nil {
		return nil, err
	}
	board.Fruits = append(board.Fruits, fruit)
	return fruit, nil
}

func (m *Match) newFruit(board *types.Board, x, y float64, rank int) (*types.Fruit, error) {
	if !types.ValidRank(rank) {
		return nil, fmt.Errorf("fruit rank %d out of range", rank)
	}
	body := physics.NewCircle(x, y, types.FruitRadius(rank), types.CollisionTagFruit)
	body.Restitution = constants.FruitRestitution
	body.Angle = constants.FruitSpawnAngle
	if err := m.world.Add(body); err != nil {
		return nil, fmt.Errorf("failed to add fruit body: %v", err)
	}
	fruit := &types.Fruit{
		Rank:  rank,
		Board: board,
		Body:  body,
	}
	m.fruits[body] = fruit
	return fruit, nil
}

// RemoveFruit deletes a fruit from a board and cancels any task it owns. It
// reports whether the fruit was on the board.
func (m *Match) RemoveFruit(board *types.Board, fruit *types.Fruit) bool {
	if fruit == nil || !board.Detach(fruit) {
		return false
	}
	m.destroy(fruit)
	return true
}

func (m *Match) destroy(fruit *types.Fruit) {
	m.abandonMerge(fruit)
	m.scheduler.CancelOwner(fruit)
	m.world.Remove(fruit.Body)
	delete(m.fruits, fruit.Body)
	for _, player := range m.players {
		if player != nil && player.InFlight == fruit {
			player.InFlight = nil
		}
	}
}

// SetImmovable freezes or releases a fruit.
func (m *Match) SetImmovable(fruit *types.Fruit, immovable bool) {
	m.world.SetStatic(fruit.Body, immovable)
}

// ClearBoard removes every released fruit from a board.
func (m *Match) ClearBoard(board *types.Board) {
	for _, fruit := range board.Fruits {
		m.destroy(fruit)
	}
	board.Fruits = board.Fruits[:0]
}

// FruitForBody maps a physics body back to its fruit.
func (m *Match) FruitForBody(body *physics.Body) (*types.Fruit, bool) {
	fruit, ok := m.fruits[body]
	return fruit, ok
}

// clampX keeps a held fruit of the given radius inside the box.
func clampX(board *types.Board, x, radius float64) float64 {
	minX, maxX := board.Bounds()
	return math.Max(minX+radius, math.Min(x, maxX-radius))
}

// SpawnHeld gives a player a new immovable held fruit at their cursor,
// replacing any fruit they were already holding.
func (m *Match) SpawnHeld(player *types.Player, rank int) (*types.Fruit, error) {
	if player.Dead {
		return nil, fmt.Errorf("player %d is dead", player.Seat)
	}
	m.DiscardHeld(player)
	x := clampX(player.Board, player.X, types.FruitRadius(rank))
	fruit, err := m.newFruit(player.Board, x, constants.HeldY, rank)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn held fruit: %v", err)
	}
	m.SetImmovable(fruit, true)
	player.Held = fruit
	player.InFlight = nil
	return fruit, nil
}

// DiscardHeld removes a player's held fruit without releasing it.
func (m *Match) DiscardHeld(player *types.Player) {
	if player.Held == nil {
		return
	}
	m.destroy(player.Held)
	player.Held = nil
}

// MoveHeld moves a player's cursor and any fruit they hold.
func (m *Match) MoveHeld(player *types.Player, x float64) {
	player.X = x
	if player.Held == nil {
		return
	}
	m.world.SetPosition(player.Held.Body, clampX(player.Board, x, player.Held.Radius()), constants.HeldY)
}

// Release drops a player's held fruit into their board.
func (m *Match) Release(player *types.Player) (*types.Fruit, error) {
	fruit := player.Held
	if fruit == nil {
		return nil, fmt.Errorf("player %d is not holding a fruit", player.Seat)
	}
	player.Held = nil
	player.InFlight = fruit
	m.SetImmovable(fruit, false)
	player.Board.Fruits = append(player.Board.Fruits, fruit)
	return fruit, nil
}

// Kill marks a player dead and freezes their board.
func (m *Match) Kill(player *types.Player) {
	if player.Dead {
		return
	}
	player.Dead = true
	m.scheduler.CancelOwner(player)
	if player.Held != nil {
		m.SetImmovable(player.Held, true)
	}
	for _, fruit := range player.Board.Fruits {
		m.abandonMerge(fruit)
		m.scheduler.CancelOwner(fruit)
		m.SetImmovable(fruit, true)
	}
}

// Step advances the physics world one tick and applies merge and death
// rules to the authoritative board. Merges that popped since the previous
// step are reported along with this step's events.
func (m *Match) Step() []types.Event {
	result := m.world.Step(m.dt)
	m.handleContacts(result.Touching)
	if len(result.Ended) > 0 {
		m.emit(types.ContactsEndedEvent{Count: len(result.Ended)})
	}
	for _, board := range m.boards {
		m.discardLost(board)
		if board.Authoritative {
			m.checkDeath(board)
		}
	}

	events := m.events
	m.events = make([]types.Event, 0)
	return events
}

func (m *Match) emit(event types.Event) {
	m.events = append(m.events, event)
}

func (m *Match) discardLost(board *types.Board) {
	lost := make([]*types.Fruit, 0)
	for _, fruit := range board.Fruits {
		if fruit.Body.Y > constants.LostY {
			lost = append(lost, fruit)
		}
	}
	for _, fruit := range lost {
		log.Debug("Discarding fruit %s that fell out of board %d", fruit.Label(), board.Seat)
		m.RemoveFruit(board, fruit)
	}
}

func (m *Match) checkDeath(board *types.Board) {
	player := m.players[board.Seat]
	if player.Dead {
		return
	}
	minX, maxX := board.Bounds()
	above := m.world.BodiesIn(minX, constants.SpaceTop, maxX-minX, constants.DeathLineY-constants.SpaceTop, types.CollisionTagFruit)
	for _, body := range above {
		fruit, ok := m.fruits[body]
		if !ok || fruit.Board != board {
			continue
		}
		if fruit.Active && !fruit.Consumed && fruit.Body.Y < constants.DeathLineY {
			log.Debug("Fruit %s crossed the death line on board %d", fruit.Label(), board.Seat)
			m.Kill(player)
			m.emit(types.DeathEvent{Seat: board.Seat})
			return
		}
	}
}

// Snapshot returns the state of every released fruit on a board that is not
// already merging.
func (m *Match) Snapshot(board *types.Board) []messages.FruitState {
	states := make([]messages.FruitState, 0, len(board.Fruits))
	for _, fruit := range board.Fruits {
		if fruit.Consumed {
			continue
		}
		states = append(states, FruitStateFromFruit(fruit))
	}
	return states
}

// ApplySnapshot replaces a board's fruit with the given states. Fruit the
// sender was already merging are skipped. The states are validated first; on
// error the board is unchanged.
func (m *Match) ApplySnapshot(board *types.Board, states []messages.FruitState) error {
	kept := make([]messages.FruitState, 0, len(states))
	ranks := make([]int, 0, len(states))
	for i, state := range states {
		if state.Label == types.ConsumedLabel {
			continue
		}
		rank, err := ValidateFruitState(state)
		if err != nil {
			return fmt.Errorf("%w: fruit %d: %v", ErrInvalidSnapshot, i, err)
		}
		kept = append(kept, state)
		ranks = append(ranks, rank)
	}

	m.ClearBoard(board)
	for i, state := range kept {
		fruit, err := m.SpawnFruit(board, state.X, state.Y, ranks[i])
		if err != nil {
			return fmt.Errorf("failed to rebuild fruit %d: %v", i, err)
		}
		body := fruit.Body
		body.Angle = state.Angle
		body.VX, body.VY = state.VX, state.VY
		body.AngularVelocity = state.AngularVelocity
		if state.Static {
			m.world.SetStatic(body, true)
		}
	}
	return nil
}
