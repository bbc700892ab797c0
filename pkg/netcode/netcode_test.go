package netcode

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cbodonnell/suika/pkg/game"
	"github.com/cbodonnell/suika/pkg/game/types"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynchronizer(t *testing.T, localSeat int) *Synchronizer {
	t.Helper()
	localID := "a"
	if localSeat == 1 {
		localID = "b"
	}
	m, err := game.NewMatch(game.NewMatchOptions{
		LocalSeat:     localSeat,
		Bag:           []int{0, 3, 1, 2},
		PopDelayTicks: 1,
	})
	require.NoError(t, err)
	s := NewSynchronizer(NewSynchronizerOptions{
		Match:            m,
		LocalID:          localID,
		LocalSeat:        localSeat,
		HeartbeatEvery:   3,
		ReloadDelayTicks: 2,
	})
	s.SetConnections([]messages.Connection{
		{ID: "a", Num: 0, Username: "alice", Host: true},
		{ID: "b", Num: 1, Username: "bob"},
	})
	return s
}

func TestSynchronizer_SetConnections(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	assert.Equal(t, "alice", s.Match().Player(0).Username)
	assert.Equal(t, "b", s.Match().Player(1).ConnectionID)
}

func TestSynchronizer_UnknownSender(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	err := s.HandleUpdate(messages.Update{Sender: "zed", Event: messages.Death{}})
	assert.True(t, errors.Is(err, ErrUnknownSender))
	assert.False(t, s.Match().Player(1).Dead)

	err = s.HandleUpdate(messages.Update{Sender: "a", Event: messages.Death{}})
	assert.Error(t, err)
	assert.False(t, s.Match().Player(0).Dead)
}

func TestSynchronizer_HandleUpdate(t *testing.T) {
	tests := []struct {
		name   string
		events []messages.Event
		check  func(t *testing.T, s *Synchronizer)
	}{
		{
			name:   "playermove",
			events: []messages.Event{messages.PlayerMove{X: 1500}},
			check: func(t *testing.T, s *Synchronizer) {
				assert.Equal(t, 1500.0, s.Match().Player(1).X)
			},
		},
		{
			name:   "reload with index",
			events: []messages.Event{messages.Reload{Index: messages.IntPtr(1)}},
			check: func(t *testing.T, s *Synchronizer) {
				held := s.Match().Player(1).Held
				require.NotNil(t, held)
				assert.Equal(t, 3, held.Rank)
				assert.True(t, held.Body.Static)
				assert.Empty(t, s.Match().Board(1).Fruits)
			},
		},
		{
			name: "reload then drop",
			events: []messages.Event{
				messages.Reload{},
				messages.PlayerMove{X: 1400},
				messages.Drop{},
			},
			check: func(t *testing.T, s *Synchronizer) {
				player := s.Match().Player(1)
				assert.Nil(t, player.Held)
				assert.Equal(t, 1, player.Index)
				fruits := s.Match().Board(1).Fruits
				require.Len(t, fruits, 1)
				assert.Equal(t, 0, fruits[0].Rank)
				assert.False(t, fruits[0].Body.Static)
				assert.InDelta(t, 1400, fruits[0].Body.X, 1e-9)
			},
		},
		{
			name:   "drop resyncs index",
			events: []messages.Event{messages.Drop{Index: messages.IntPtr(2)}},
			check: func(t *testing.T, s *Synchronizer) {
				player := s.Match().Player(1)
				assert.Equal(t, 3, player.Index)
				fruits := s.Match().Board(1).Fruits
				require.Len(t, fruits, 1)
				assert.Equal(t, 1, fruits[0].Rank)
			},
		},
		{
			name: "death freezes the mirror",
			events: []messages.Event{
				messages.Drop{},
				messages.Death{},
			},
			check: func(t *testing.T, s *Synchronizer) {
				player := s.Match().Player(1)
				assert.True(t, player.Dead)
				for _, fruit := range s.Match().Board(1).Fruits {
					assert.True(t, fruit.Body.Static)
				}
			},
		},
		{
			name: "dead players do not spawn",
			events: []messages.Event{
				messages.Death{},
				messages.Reload{},
				messages.Drop{},
			},
			check: func(t *testing.T, s *Synchronizer) {
				assert.Nil(t, s.Match().Player(1).Held)
				assert.Empty(t, s.Match().Board(1).Fruits)
			},
		},
		{
			name:   "score",
			events: []messages.Event{messages.Score{Score: 120}},
			check: func(t *testing.T, s *Synchronizer) {
				assert.Equal(t, 120, s.Match().Player(1).Score)
			},
		},
		{
			name: "updateOthers replaces the mirror",
			events: []messages.Event{
				messages.Drop{},
				messages.UpdateOthers{Seq: 1, Fruits: []messages.FruitState{
					{X: 1400, Y: 800, Label: "pear"},
					{X: 1600, Y: 800, Label: "apple", Static: true},
				}},
			},
			check: func(t *testing.T, s *Synchronizer) {
				fruits := s.Match().Board(1).Fruits
				require.Len(t, fruits, 2)
				assert.Equal(t, "pear", fruits[0].Label())
				assert.Equal(t, "apple", fruits[1].Label())
				assert.True(t, fruits[1].Body.Static)
			},
		},
		{
			name: "updateOthers skips fruit the sender is merging",
			events: []messages.Event{
				messages.UpdateOthers{Seq: 1, Fruits: []messages.FruitState{
					{X: 1400, Y: 800, Label: types.ConsumedLabel},
					{X: 1500, Y: 800, Label: "peach"},
					{X: 1440, Y: 800, Label: types.ConsumedLabel},
				}},
			},
			check: func(t *testing.T, s *Synchronizer) {
				fruits := s.Match().Board(1).Fruits
				require.Len(t, fruits, 1)
				assert.Equal(t, "peach", fruits[0].Label())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSynchronizer(t, 0)
			for _, event := range tt.events {
				require.NoError(t, s.HandleUpdate(messages.Update{Sender: "b", Event: event}))
			}
			tt.check(t, s)
			assert.Empty(t, s.Flush())
		})
	}
}

func TestSynchronizer_SnapshotOrdering(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	apply := func(seq uint64, label string) error {
		return s.HandleUpdate(messages.Update{Sender: "b", Event: messages.UpdateOthers{
			Seq:    seq,
			Fruits: []messages.FruitState{{X: 1500, Y: 800, Label: label}},
		}})
	}

	require.NoError(t, apply(5, "grapes"))
	err := apply(4, "melon")
	assert.True(t, errors.Is(err, ErrStaleSnapshot))
	err = apply(5, "melon")
	assert.True(t, errors.Is(err, ErrStaleSnapshot))
	assert.Equal(t, "grapes", s.Match().Board(1).Fruits[0].Label())

	// unsequenced snapshots are always applied
	require.NoError(t, apply(0, "peach"))
	assert.Equal(t, "peach", s.Match().Board(1).Fruits[0].Label())

	require.NoError(t, apply(6, "orange"))
	assert.Equal(t, "orange", s.Match().Board(1).Fruits[0].Label())
}

func TestSynchronizer_InvalidSnapshotRejected(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	require.NoError(t, s.HandleUpdate(messages.Update{Sender: "b", Event: messages.Drop{}}))

	err := s.HandleUpdate(messages.Update{Sender: "b", Event: messages.UpdateOthers{
		Seq:    1,
		Fruits: []messages.FruitState{{X: 1, Y: 1, Label: "durian"}},
	}})
	assert.True(t, errors.Is(err, ErrInvalidSnapshot))
	require.Len(t, s.Match().Board(1).Fruits, 1)
	assert.Equal(t, "cherry", s.Match().Board(1).Fruits[0].Label())

	// a rejected snapshot does not advance the sequence
	require.NoError(t, s.HandleUpdate(messages.Update{Sender: "b", Event: messages.UpdateOthers{
		Seq:    1,
		Fruits: []messages.FruitState{},
	}}))
	assert.Empty(t, s.Match().Board(1).Fruits)
}

func TestSynchronizer_LocalActions(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	assert.False(t, s.CanDrop())
	assert.Error(t, s.Drop())

	require.NoError(t, s.Reload())
	assert.True(t, s.CanDrop())
	s.Move(400)
	s.Move(400)
	require.NoError(t, s.Drop())

	out := s.Flush()
	require.Len(t, out, 3)
	assert.Equal(t, messages.Reload{Index: messages.IntPtr(0)}, out[0].Event)
	assert.Equal(t, messages.PlayerMove{X: 400}, out[1].Event)
	assert.Equal(t, messages.Drop{Index: messages.IntPtr(0)}, out[2].Event)
	assert.Equal(t, 1, s.LocalPlayer().Index)
	assert.Empty(t, s.Flush())

	// the next fruit arrives after the reload delay
	s.Match().Scheduler().Advance()
	assert.Nil(t, s.LocalPlayer().Held)
	s.Match().Scheduler().Advance()
	require.NotNil(t, s.LocalPlayer().Held)
	assert.Equal(t, 3, s.LocalPlayer().Held.Rank)
	out = s.Flush()
	require.Len(t, out, 1)
	assert.Equal(t, messages.Reload{Index: messages.IntPtr(1)}, out[0].Event)
}

func TestSynchronizer_ReloadCancelledByDeath(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	require.NoError(t, s.Reload())
	require.NoError(t, s.Drop())
	s.Flush()

	s.HandleEvents([]types.Event{types.DeathEvent{Seat: 0}})
	s.Match().Kill(s.LocalPlayer())
	s.Match().Scheduler().Advance()
	s.Match().Scheduler().Advance()
	assert.Nil(t, s.LocalPlayer().Held)

	out := s.Flush()
	require.Len(t, out, 1)
	assert.Equal(t, messages.Death{}, out[0].Event)
	assert.False(t, out[0].Volatile)
}

func TestSynchronizer_MergeSendsSnapshotAndScore(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	s.LocalPlayer().Score = 10

	s.HandleEvents([]types.Event{
		types.MergeEvent{Seat: 1, Rank: 0, Points: 1},
		types.MergeEvent{Seat: 0, Rank: 0, Points: 1},
	})
	s.HandleEvents([]types.Event{types.MergeEvent{Seat: 0, Rank: 1, Points: 3}})

	out := s.Flush()
	require.Len(t, out, 4)
	first, ok := out[0].Event.(messages.UpdateOthers)
	require.True(t, ok)
	assert.Equal(t, uint64(1), first.Seq)
	assert.False(t, out[0].Volatile)
	assert.Equal(t, messages.Score{Score: 10}, out[1].Event)
	second, ok := out[2].Event.(messages.UpdateOthers)
	require.True(t, ok)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestSynchronizer_Heartbeat(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	ended := []types.Event{types.ContactsEndedEvent{Count: 1}}
	for i := 0; i < 7; i++ {
		s.HandleEvents(ended)
	}
	out := s.Flush()
	require.Len(t, out, 2)
	for _, o := range out {
		assert.True(t, o.Volatile)
		assert.IsType(t, messages.UpdateOthers{}, o.Event)
	}
}

// Two clients exchange updates through their outboxes the way the relay
// forwards them.
func TestSynchronizer_DropReachesPeer(t *testing.T) {
	alice := newTestSynchronizer(t, 0)
	bob := newTestSynchronizer(t, 1)

	require.NoError(t, alice.Reload())
	alice.Move(400)
	require.NoError(t, alice.Drop())

	for _, out := range alice.Flush() {
		b, err := json.Marshal(messages.Update{Sender: "a", Event: out.Event})
		require.NoError(t, err)
		update := messages.Update{}
		require.NoError(t, json.Unmarshal(b, &update))
		require.NoError(t, bob.HandleUpdate(update))
	}

	mirror := bob.Match().Board(0)
	require.Len(t, mirror.Fruits, 1)
	fruit := mirror.Fruits[0]
	assert.Equal(t, 0, fruit.Rank)
	assert.InDelta(t, 400, fruit.Body.X, 1e-9)
	assert.Equal(t, 1, bob.Match().Player(0).Index)
	assert.Nil(t, bob.Match().Player(0).Held)
}

func TestSynchronizer_SeatChangesHands(t *testing.T) {
	s := newTestSynchronizer(t, 0)
	require.NoError(t, s.HandleUpdate(messages.Update{Sender: "b", Event: messages.Drop{Index: messages.IntPtr(0)}}))
	require.NoError(t, s.HandleUpdate(messages.Update{Sender: "b", Event: messages.UpdateOthers{Seq: 9, Fruits: s.Match().Snapshot(s.Match().Board(1))}}))
	require.NoError(t, s.HandleUpdate(messages.Update{Sender: "b", Event: messages.Death{}}))
	require.NotEmpty(t, s.Match().Board(1).Fruits)

	s.SetConnections([]messages.Connection{
		{ID: "a", Num: 0, Username: "alice", Host: true},
		{ID: "c", Num: 1, Username: "carol"},
	})

	remote := s.Match().Player(1)
	assert.Empty(t, s.Match().Board(1).Fruits)
	assert.False(t, remote.Dead)
	assert.Equal(t, 0, remote.Index)
	assert.Equal(t, "carol", remote.Username)

	// the new peer starts its sequence again
	err := s.HandleUpdate(messages.Update{Sender: "c", Event: messages.UpdateOthers{Seq: 1}})
	assert.NoError(t, err)
	err = s.HandleUpdate(messages.Update{Sender: "b", Event: messages.Death{}})
	assert.True(t, errors.Is(err, ErrUnknownSender))
}
