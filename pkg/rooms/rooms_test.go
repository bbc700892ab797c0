package rooms

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	mocks "github.com/cbodonnell/suika/mocks/github.com/cbodonnell/suika/pkg/rooms"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sent struct {
	msg      *messages.Message
	volatile bool
}

// recordingEmitter keeps every message per client.
type recordingEmitter struct {
	lock sync.Mutex
	sent map[string][]sent
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{sent: make(map[string][]sent)}
}

func (e *recordingEmitter) Emit(clientID string, msg *messages.Message, volatile bool) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.sent[clientID] = append(e.sent[clientID], sent{msg: msg, volatile: volatile})
	return nil
}

func (e *recordingEmitter) last(t *testing.T, clientID string, mt messages.MessageType) *messages.Message {
	t.Helper()
	e.lock.Lock()
	defer e.lock.Unlock()
	for i := len(e.sent[clientID]) - 1; i >= 0; i-- {
		if e.sent[clientID][i].msg.Type == mt {
			return e.sent[clientID][i].msg
		}
	}
	t.Fatalf("no %s message sent to %s", mt, clientID)
	return nil
}

func (e *recordingEmitter) count(clientID string) int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.sent[clientID])
}

func newTestDirectory(emitter Emitter, events chan<- Event) *Directory {
	return NewDirectory(NewDirectoryOptions{
		Emitter:      emitter,
		BagGenerator: FixedBagGenerator([]int{0, 4, 2, 1}),
		Events:       events,
	})
}

func connectionsIn(t *testing.T, msg *messages.Message) []messages.Connection {
	t.Helper()
	conns := []messages.Connection{}
	require.NoError(t, json.Unmarshal(msg.Payload, &conns))
	return conns
}

func TestFindMissingNumber(t *testing.T) {
	tests := []struct {
		used []int
		want int
	}{
		{used: []int{0, 1}, want: 2},
		{used: []int{1}, want: 0},
		{used: []int{}, want: 0},
		{used: nil, want: 0},
		{used: []int{2, 0, 3}, want: 1},
		{used: []int{0, 0, 1}, want: 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FindMissingNumber(tt.used), "used %v", tt.used)
	}
}

func TestDirectory_JoinBroadcastsConnectionsAndBag(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)

	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))

	for _, id := range []string{"a", "b"} {
		conns := connectionsIn(t, emitter.last(t, id, messages.MessageTypeServerConnectionAdded))
		require.Len(t, conns, 2)
		assert.Equal(t, messages.Connection{ID: "a", Num: 0, Username: "alice", Host: true}, conns[0])
		assert.Equal(t, messages.Connection{ID: "b", Num: 1, Username: "bob"}, conns[1])

		bag := emitter.last(t, id, messages.MessageTypeServerBagUpdate)
		assert.JSONEq(t, `[0,4,2,1]`, string(bag.Payload))
	}

	room, ok := d.Room("R")
	require.True(t, ok)
	assert.Equal(t, StateActive, room.State)
}

func TestDirectory_JoinFullRoomIsNoop(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)

	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))
	before, _ := d.Room("R")

	for _, id := range []string{"c", "d", "e"} {
		require.NoError(t, d.Join(id, "R", id))
		assert.Equal(t, 0, emitter.count(id))
		_, in := d.RoomOf(id)
		assert.False(t, in)
	}

	after, _ := d.Room("R")
	assert.Equal(t, before.Connections, after.Connections)
}

func TestDirectory_JoinTwiceIsNoop(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)

	require.NoError(t, d.Join("a", "R", "alice"))
	n := emitter.count("a")
	require.NoError(t, d.Join("a", "R", "alice"))
	assert.Equal(t, n, emitter.count("a"))

	room, _ := d.Room("R")
	assert.Len(t, room.Connections, 1)
	assert.Equal(t, StateWaitingForPlayers, room.State)
}

func TestDirectory_JoinRequiresCode(t *testing.T) {
	d := newTestDirectory(newRecordingEmitter(), nil)
	assert.Error(t, d.Join("a", "", "alice"))
}

func TestDirectory_SeatReuse(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)

	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))
	d.Disconnect("a")

	removed := connectionsIn(t, emitter.last(t, "b", messages.MessageTypeServerConnectionRemoved))
	require.Len(t, removed, 1)
	assert.Equal(t, "b", removed[0].ID)

	room, _ := d.Room("R")
	assert.Equal(t, StatePaused, room.State)

	require.NoError(t, d.Join("c", "R", "carol"))
	room, _ = d.Room("R")
	require.Len(t, room.Connections, 2)
	assert.Equal(t, "c", room.Connections[1].ID)
	assert.Equal(t, 0, room.Connections[1].Num)
	// the room was not empty, so the newcomer is not host
	assert.False(t, room.Connections[1].Host)
	assert.Equal(t, StateActive, room.State)
}

func TestDirectory_JoinAnotherRoomLeavesTheFirst(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)

	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))
	require.NoError(t, d.Join("a", "S", "alice"))

	code, ok := d.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, "S", code)

	r, _ := d.Room("R")
	require.Len(t, r.Connections, 1)
	assert.Equal(t, "b", r.Connections[0].ID)
	s, _ := d.Room("S")
	require.Len(t, s.Connections, 1)
	assert.True(t, s.Connections[0].Host)
}

func TestDirectory_EmptyRoomIsDeleted(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)

	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))
	require.Len(t, d.ListRooms(), 1)

	d.Disconnect("a")
	d.Disconnect("b")
	d.Disconnect("b")

	_, ok := d.Room("R")
	assert.False(t, ok)
	assert.Empty(t, d.ListRooms())

	require.NoError(t, d.SendRoomList("z"))
	rooms := []messages.RoomInfo{}
	require.NoError(t, json.Unmarshal(emitter.last(t, "z", messages.MessageTypeServerUpdateRooms).Payload, &rooms))
	assert.Empty(t, rooms)
}

func TestDirectory_ListRooms(t *testing.T) {
	d := newTestDirectory(newRecordingEmitter(), nil)
	require.NoError(t, d.Join("a", "zeta", "alice"))
	require.NoError(t, d.Join("b", "alpha", "bob"))
	require.NoError(t, d.Join("c", "alpha", "carol"))

	assert.Equal(t, []messages.RoomInfo{
		{RoomName: "alpha", Capacity: "2/2", Occupancy: 2, MaxPlayers: 2, Host: "bob", State: "active"},
		{RoomName: "zeta", Capacity: "1/2", Occupancy: 1, MaxPlayers: 2, Host: "alice", State: "waitingForPlayers"},
	}, d.ListRooms())
}

func TestDirectory_Relay(t *testing.T) {
	emitter := newRecordingEmitter()
	d := newTestDirectory(emitter, nil)
	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))
	require.NoError(t, d.Join("c", "S", "carol"))

	nA, nC := emitter.count("a"), emitter.count("c")
	envelope := json.RawMessage(`{"sender":"a","event":{"type":"drop","data":0}}`)
	require.NoError(t, d.Relay("a", "R", envelope, true))

	got := emitter.last(t, "b", messages.MessageTypeServerUpdate)
	assert.Equal(t, string(envelope), string(got.Payload))
	assert.True(t, emitter.sent["b"][len(emitter.sent["b"])-1].volatile)
	assert.Equal(t, nA, emitter.count("a"))
	assert.Equal(t, nC, emitter.count("c"))

	assert.Error(t, d.Relay("c", "R", envelope, false))
	assert.Error(t, d.Relay("a", "nowhere", envelope, false))
}

func TestDirectory_RelayWithMockEmitter(t *testing.T) {
	emitter := mocks.NewEmitter(t)
	emitter.EXPECT().Emit(mock.Anything, mock.Anything, false).Return(nil)
	d := newTestDirectory(emitter, nil)
	require.NoError(t, d.Join("a", "R", "alice"))
	require.NoError(t, d.Join("b", "R", "bob"))

	envelope := json.RawMessage(`{"sender":"b","event":{"type":"death"}}`)
	emitter.EXPECT().Emit("a", mock.MatchedBy(func(msg *messages.Message) bool {
		return msg.Type == messages.MessageTypeServerUpdate && string(msg.Payload) == string(envelope)
	}), true).Return(errors.New("send buffer full")).Once()

	// a failed delivery is logged, not returned
	assert.NoError(t, d.Relay("b", "R", envelope, true))
}

func TestDirectory_PublishesLifecycleEvents(t *testing.T) {
	events := make(chan Event, 16)
	d := newTestDirectory(newRecordingEmitter(), events)

	require.NoError(t, d.Join("a", "R", "alice"))
	d.Disconnect("a")
	close(events)

	got := make([]EventType, 0)
	for e := range events {
		assert.Equal(t, "R", e.Room)
		assert.Equal(t, "a", e.ConnectionID)
		got = append(got, e.Type)
	}
	assert.Equal(t, []EventType{EventTypeCreated, EventTypeJoined, EventTypeLeft, EventTypeClosed}, got)
}

func TestDirectory_PublishNeverBlocks(t *testing.T) {
	events := make(chan Event)
	d := newTestDirectory(newRecordingEmitter(), events)
	require.NoError(t, d.Join("a", "R", "alice"))
	d.Disconnect("a")
}

func TestDefaultBagGenerator(t *testing.T) {
	bag := DefaultBagGenerator()()
	assert.Len(t, bag, 1000)
	for _, rank := range bag {
		assert.GreaterOrEqual(t, rank, 0)
		assert.Less(t, rank, 5)
	}
}
