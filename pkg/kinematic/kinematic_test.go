package kinematic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalVelocity(t *testing.T) {
	tests := []struct {
		name         string
		v0, t, a     float64
		wantVelocity float64
	}{
		{name: "at rest", v0: 0, t: 1, a: 0, wantVelocity: 0},
		{name: "constant velocity", v0: 3, t: 2, a: 0, wantVelocity: 3},
		{name: "falling", v0: 0, t: 0.5, a: 2000, wantVelocity: 1000},
		{name: "thrown up", v0: -100, t: 0.1, a: 2000, wantVelocity: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantVelocity, FinalVelocity(tt.v0, tt.t, tt.a), 1e-9)
		})
	}
}
