package client

import (
	"math"
	"math/rand"

	"github.com/cbodonnell/suika/pkg/game/types"
)

const (
	// DefaultBotSpeed is how far the bot moves its cursor per tick
	DefaultBotSpeed = 12.0
)

// Bot is a headless Input that sweeps its cursor to a random spot in its box
// and drops on a fixed cadence.
type Bot struct {
	rand      *rand.Rand
	dropEvery uint64
	speed     float64
	target    float64
	hasTarget bool
}

func NewBot(seed int64, dropEvery uint64) *Bot {
	if dropEvery == 0 {
		dropEvery = 1
	}
	return &Bot{
		rand:      rand.New(rand.NewSource(seed)),
		dropEvery: dropEvery,
		speed:     DefaultBotSpeed,
	}
}

func (b *Bot) Next(player *types.Player, tick uint64) Action {
	if !b.hasTarget {
		minX, maxX := player.Board.Bounds()
		b.target = minX + b.rand.Float64()*(maxX-minX)
		b.hasTarget = true
	}

	action := Action{}
	if player.X != b.target {
		step := math.Max(-b.speed, math.Min(b.speed, b.target-player.X))
		action.Move = true
		action.X = player.X + step
	}
	if tick%b.dropEvery == 0 && player.Held != nil {
		action.Drop = true
		b.hasTarget = false
	}
	return action
}
