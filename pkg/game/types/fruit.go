package types

import (
	"math"

	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/physics"
)

const (
	// CollisionTagFruit tags fruit bodies in the collision space
	CollisionTagFruit string = "fruit"
	// CollisionTagWall tags box bodies in the collision space
	CollisionTagWall string = "wall"

	// ConsumedLabel replaces the label of a fruit that is already merging
	ConsumedLabel string = "consumed"
)

var fruitNames = [constants.MaxRank + 1]string{
	"cherry",
	"strawberry",
	"grapes",
	"dekopon",
	"orange",
	"apple",
	"pear",
	"peach",
	"pineapple",
	"melon",
	"watermelon",
}

// FruitName returns the label of a rank, or "" if the rank is out of range.
func FruitName(rank int) string {
	if !ValidRank(rank) {
		return ""
	}
	return fruitNames[rank]
}

// RankOf returns the rank for a fruit label.
func RankOf(label string) (int, bool) {
	for rank, name := range fruitNames {
		if name == label {
			return rank, true
		}
	}
	return 0, false
}

func ValidRank(rank int) bool {
	return rank >= 0 && rank <= constants.MaxRank
}

// FruitRadius grows with rank along the curve the art was drawn to.
func FruitRadius(rank int) float64 {
	return (math.Pow(float64(rank), 1.36)*15.45 + 46.52) / 2
}

// MergePoints is the score for merging two fruit of the given rank.
func MergePoints(rank int) int {
	if rank >= constants.MaxRank {
		return constants.WatermelonPoints
	}
	created := rank + 1
	return created * (created + 1) / 2
}

// Fruit is a fruit body in one board.
type Fruit struct {
	Rank  int
	Board *Board
	Body  *physics.Body
	// Active is set once the fruit has touched another fruit inside its own
	// box. Only active fruit can kill a board.
	Active bool
	// Consumed is set as soon as the fruit is claimed by a merge.
	Consumed bool
}

func (f *Fruit) Label() string {
	if f.Consumed {
		return ConsumedLabel
	}
	return FruitName(f.Rank)
}

func (f *Fruit) Radius() float64 {
	return f.Body.Radius
}
