package game

import (
	"fmt"
	"math"

	"github.com/cbodonnell/suika/pkg/game/types"
	"github.com/cbodonnell/suika/pkg/messages"
)

func FruitStateFromFruit(fruit *types.Fruit) messages.FruitState {
	body := fruit.Body
	return messages.FruitState{
		X:               body.X,
		Y:               body.Y,
		Angle:           body.Angle,
		VX:              body.VX,
		VY:              body.VY,
		AngularVelocity: body.AngularVelocity,
		Label:           fruit.Label(),
		Static:          body.Static,
	}
}

// ValidateFruitState checks a received fruit state and returns its rank.
func ValidateFruitState(state messages.FruitState) (int, error) {
	rank, ok := types.RankOf(state.Label)
	if !ok {
		return 0, fmt.Errorf("unknown label %q", state.Label)
	}
	values := map[string]float64{
		"x":               state.X,
		"y":               state.Y,
		"angle":           state.Angle,
		"vx":              state.VX,
		"vy":              state.VY,
		"angularVelocity": state.AngularVelocity,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s is not finite", name)
		}
	}
	return rank, nil
}
