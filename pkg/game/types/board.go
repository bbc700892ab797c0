package types

import (
	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/physics"
)

// Board is one seat's box and the fruit released into it.
type Board struct {
	Seat    int
	CenterX float64
	// Authoritative boards run merge and death rules. The other board is a
	// mirror driven by the peer's updates.
	Authoritative bool
	Fruits        []*Fruit
	Walls         []*physics.Body
}

func NewBoard(seat int, authoritative bool) *Board {
	return &Board{
		Seat:          seat,
		CenterX:       constants.BoxCenterX(seat),
		Authoritative: authoritative,
		Fruits:        make([]*Fruit, 0),
	}
}

// Bounds returns the inner horizontal extent of the box.
func (b *Board) Bounds() (float64, float64) {
	return b.CenterX - constants.BoxWidth/2, b.CenterX + constants.BoxWidth/2
}

// Contains reports whether x lies inside the box.
func (b *Board) Contains(x float64) bool {
	minX, maxX := b.Bounds()
	return x >= minX && x <= maxX
}

func (b *Board) indexOf(f *Fruit) int {
	for i, other := range b.Fruits {
		if other == f {
			return i
		}
	}
	return -1
}

// Has reports whether f is one of the board's released fruit.
func (b *Board) Has(f *Fruit) bool {
	return b.indexOf(f) >= 0
}

// Detach removes f from the fruit list without touching its body.
func (b *Board) Detach(f *Fruit) bool {
	i := b.indexOf(f)
	if i < 0 {
		return false
	}
	b.Fruits = append(b.Fruits[:i], b.Fruits[i+1:]...)
	return true
}

// Player is the state of one seat.
type Player struct {
	Seat         int
	Board        *Board
	Held         *Fruit
	Index        int
	Dead         bool
	X            float64
	Score        int
	Username     string
	ConnectionID string

	// InFlight is the last fruit the player dropped, until they hold a new one.
	InFlight *Fruit
}

func NewPlayer(seat int, board *Board) *Player {
	return &Player{
		Seat:  seat,
		Board: board,
		X:     board.CenterX,
	}
}
