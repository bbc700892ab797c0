package messages

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		update Update
		want   string
	}{
		{
			name:   "playermove",
			update: Update{Sender: "a", Event: PlayerMove{X: 400}},
			want:   `{"sender":"a","event":{"type":"playermove","data":400}}`,
		},
		{
			name:   "reload without index",
			update: Update{Sender: "a", Event: Reload{}},
			want:   `{"sender":"a","event":{"type":"reload"}}`,
		},
		{
			name:   "drop with index",
			update: Update{Sender: "a", Event: Drop{Index: IntPtr(3)}},
			want:   `{"sender":"a","event":{"type":"drop","data":3}}`,
		},
		{
			name:   "death",
			update: Update{Sender: "a", Event: Death{}},
			want:   `{"sender":"a","event":{"type":"death"}}`,
		},
		{
			name:   "score",
			update: Update{Sender: "a", Event: Score{Score: 42}},
			want:   `{"sender":"a","event":{"type":"score","data":42}}`,
		},
		{
			name: "updateOthers",
			update: Update{Sender: "a", Event: UpdateOthers{Seq: 7, Fruits: []FruitState{
				{X: 1, Y: 2, Label: "cherry"},
			}}},
			want: `{"sender":"a","event":{"type":"updateOthers","data":{"seq":7,"fruits":[{"x":1,"y":2,"angle":0,"vx":0,"vy":0,"angularVelocity":0,"label":"cherry","static":false}]}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.update)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			got := Update{}
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, tt.update, got)
		})
	}
}

func TestUpdate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Event
		wantErr bool
	}{
		{
			name: "score as string",
			data: `{"sender":"b","event":{"type":"score","data":"128"}}`,
			want: Score{Score: 128},
		},
		{
			name: "reload with null data",
			data: `{"sender":"b","event":{"type":"reload","data":null}}`,
			want: Reload{},
		},
		{
			name: "legacy bare snapshot list",
			data: `{"sender":"b","event":{"type":"updateOthers","data":[{"x":5,"y":6,"label":"grapes"}]}}`,
			want: UpdateOthers{Fruits: []FruitState{{X: 5, Y: 6, Label: "grapes"}}},
		},
		{
			name:    "score not a number",
			data:    `{"sender":"b","event":{"type":"score","data":"lots"}}`,
			wantErr: true,
		},
		{
			name:    "playermove missing data",
			data:    `{"sender":"b","event":{"type":"playermove"}}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			data:    `{"sender":"b","event":{"type":"teleport"}}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Update{}
			err := json.Unmarshal([]byte(tt.data), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "b", got.Sender)
			assert.Equal(t, tt.want, got.Event)
		})
	}
}

func TestUpdate_UnknownTypeIsTyped(t *testing.T) {
	got := Update{}
	err := got.UnmarshalJSON([]byte(`{"sender":"b","event":{"type":"teleport"}}`))
	assert.True(t, errors.Is(err, ErrUnknownEventType))
}
