package game

import (
	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/game/types"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/physics"
)

// NewCollisionWorld returns an empty physics world sized for the arena.
func NewCollisionWorld() *physics.World {
	return physics.NewWorld(physics.NewWorldOptions{
		Width:    constants.SpaceWidth,
		Height:   constants.SpaceHeight,
		OriginY:  constants.SpaceTop,
		CellSize: constants.SpaceCellSize,
		Gravity:  constants.Gravity,
	})
}

// addBox builds the two walls and floor of a board.
func (m *Match) addBox(board *types.Board) error {
	minX, maxX := board.Bounds()
	t := constants.WallThickness
	wallY := constants.FloorY - constants.BoxHeight/2
	walls := []*physics.Body{
		physics.NewRectangle(minX-t/2, wallY, t, constants.BoxHeight, types.CollisionTagWall),
		physics.NewRectangle(maxX+t/2, wallY, t, constants.BoxHeight, types.CollisionTagWall),
		physics.NewRectangle(board.CenterX, constants.FloorY+t/2, constants.BoxWidth+2*t, t, types.CollisionTagWall),
	}
	for _, wall := range walls {
		wall.Restitution = constants.FruitRestitution
		if err := m.world.Add(wall); err != nil {
			return err
		}
	}
	board.Walls = walls
	return nil
}

func (m *Match) isHeld(fruit *types.Fruit) bool {
	for _, player := range m.players {
		if player.Held == fruit {
			return true
		}
	}
	return false
}

func (m *Match) isInFlight(fruit *types.Fruit) bool {
	for _, player := range m.players {
		if player.InFlight == fruit {
			return true
		}
	}
	return false
}

// handleContacts activates fruit touching other fruit and starts merges on
// authoritative boards. A pair reported more than once merges at most once.
// Touching a player's last dropped fruit does not activate the other fruit.
func (m *Match) handleContacts(contacts []physics.Contact) {
	for _, contact := range contacts {
		a, okA := m.fruits[contact.A]
		b, okB := m.fruits[contact.B]
		if !okA || !okB {
			// walls never activate or merge
			continue
		}
		if m.isHeld(a) || m.isHeld(b) {
			continue
		}

		m.activate(a, b)
		m.activate(b, a)

		if m.canMerge(a, b) {
			m.startMerge(a, b)
		}
	}
}

func (m *Match) canMerge(a, b *types.Fruit) bool {
	if a.Consumed || b.Consumed || a.Rank != b.Rank || a.Board != b.Board {
		return false
	}
	if !a.Board.Authoritative || m.players[a.Board.Seat].Dead {
		return false
	}
	return !a.Body.Static && !b.Body.Static
}

func (m *Match) activate(fruit, other *types.Fruit) {
	if fruit.Active || m.isInFlight(other) {
		return
	}
	if fruit.Board.Contains(fruit.Body.X) {
		fruit.Active = true
	}
}

// startMerge claims both fruit immediately and pops them after the pop delay.
// The pop is cancelled if either fruit is removed first.
func (m *Match) startMerge(a, b *types.Fruit) {
	a.Consumed = true
	b.Consumed = true
	m.partners[a] = b
	m.partners[b] = a
	m.scheduler.After(m.popDelay, func() {
		m.pop(a, b)
	}, a, b)
}

// abandonMerge releases a fruit and its partner from a merge that will not
// pop.
func (m *Match) abandonMerge(fruit *types.Fruit) {
	partner, ok := m.partners[fruit]
	if !ok {
		return
	}
	delete(m.partners, fruit)
	delete(m.partners, partner)
	fruit.Consumed = false
	partner.Consumed = false
}

func (m *Match) pop(a, b *types.Fruit) {
	delete(m.partners, a)
	delete(m.partners, b)
	board := a.Board
	if !board.Has(a) || !board.Has(b) {
		return
	}
	rank := a.Rank
	x := (a.Body.X + b.Body.X) / 2
	y := (a.Body.Y + b.Body.Y) / 2
	active := a.Active || b.Active
	m.RemoveFruit(board, a)
	m.RemoveFruit(board, b)

	event := types.MergeEvent{
		Seat:   board.Seat,
		Rank:   rank,
		Points: types.MergePoints(rank),
	}
	if rank < constants.MaxRank {
		result, err := m.SpawnFruit(board, x, y, rank+1)
		if err != nil {
			log.Error("Failed to spawn merged fruit on board %d: %v", board.Seat, err)
			return
		}
		result.Active = active
		event.Result = result
	}

	player := m.players[board.Seat]
	player.Score += event.Points
	m.emit(event)
}
