package rooms

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cbodonnell/suika/pkg/game/constants"
)

// BagGenerator returns a new shared spawn order for a room.
type BagGenerator func() []int

// NewBag draws size fruit ranks uniformly from [0, ranks).
func NewBag(r *rand.Rand, size, ranks int) []int {
	bag := make([]int, size)
	for i := range bag {
		bag[i] = r.Intn(ranks)
	}
	return bag
}

// DefaultBagGenerator returns a generator of BagSize bags over the spawnable
// ranks, seeded from the clock.
func DefaultBagGenerator() BagGenerator {
	var lock sync.Mutex
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func() []int {
		lock.Lock()
		defer lock.Unlock()
		return NewBag(r, constants.BagSize, constants.SpawnableRanks)
	}
}

// FixedBagGenerator always returns a copy of bag.
func FixedBagGenerator(bag []int) BagGenerator {
	return func() []int {
		return append([]int(nil), bag...)
	}
}
