package rooms

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
)

const (
	// DefaultMaxPlayers is the capacity of every room
	DefaultMaxPlayers = 2
)

// State is the lifecycle state of a room.
type State string

const (
	StateWaitingForPlayers State = "waitingForPlayers"
	StateActive            State = "active"
	StatePaused            State = "paused"
)

// Room is a group of connections sharing a bag.
type Room struct {
	Code        string
	Connections []messages.Connection
	MaxPlayers  int
	State       State
	Bag         []int
}

func (r *Room) copy() Room {
	c := *r
	c.Connections = append([]messages.Connection(nil), r.Connections...)
	c.Bag = append([]int(nil), r.Bag...)
	return c
}

func (r *Room) indexOf(connID string) int {
	for i, conn := range r.Connections {
		if conn.ID == connID {
			return i
		}
	}
	return -1
}

func (r *Room) seats() []int {
	seats := make([]int, len(r.Connections))
	for i, conn := range r.Connections {
		seats[i] = conn.Num
	}
	return seats
}

func (r *Room) hostname() string {
	for _, conn := range r.Connections {
		if conn.Host {
			return conn.Username
		}
	}
	return ""
}

// Emitter delivers messages to connected clients. Volatile messages may be
// dropped when the client is not keeping up.
type Emitter interface {
	Emit(clientID string, msg *messages.Message, volatile bool) error
}

type emission struct {
	clientID string
	msg      *messages.Message
	volatile bool
}

// Directory maps room codes to rooms. Mutations are expected from a single
// goroutine; reads may come from any goroutine.
type Directory struct {
	lock       sync.RWMutex
	rooms      map[string]*Room
	memberOf   map[string]string
	emitter    Emitter
	newBag     BagGenerator
	events     chan<- Event
	maxPlayers int
	now        func() time.Time
}

// NewDirectoryOptions contains options for creating a new Directory.
type NewDirectoryOptions struct {
	Emitter Emitter
	// BagGenerator defaults to DefaultBagGenerator.
	BagGenerator BagGenerator
	// Events receives room lifecycle events when set. Sends never block.
	Events     chan<- Event
	MaxPlayers int
}

func NewDirectory(opts NewDirectoryOptions) *Directory {
	newBag := opts.BagGenerator
	if newBag == nil {
		newBag = DefaultBagGenerator()
	}
	maxPlayers := opts.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Directory{
		rooms:      make(map[string]*Room),
		memberOf:   make(map[string]string),
		emitter:    opts.Emitter,
		newBag:     newBag,
		events:     opts.Events,
		maxPlayers: maxPlayers,
		now:        time.Now,
	}
}

// Join adds a connection to a room, creating the room if needed. Joining a
// full room or a room the connection is already in does nothing. A connection
// in another room leaves it first.
func (d *Directory) Join(connID, code, username string) error {
	if code == "" {
		return fmt.Errorf("room code is required")
	}

	d.lock.Lock()
	current, inRoom := d.memberOf[connID]
	if inRoom && current == code {
		d.lock.Unlock()
		log.Debug("Connection %s is already in room %s", connID, code)
		return nil
	}
	if room, ok := d.rooms[code]; ok && len(room.Connections) >= room.MaxPlayers {
		d.lock.Unlock()
		log.Debug("Room %s is full, ignoring join from %s", code, connID)
		return nil
	}

	out := make([]emission, 0)
	if inRoom {
		out = append(out, d.disconnect(connID)...)
	}

	room, ok := d.rooms[code]
	if !ok {
		room = &Room{
			Code:        code,
			Connections: make([]messages.Connection, 0, d.maxPlayers),
			MaxPlayers:  d.maxPlayers,
			State:       StateWaitingForPlayers,
			Bag:         d.newBag(),
		}
		d.rooms[code] = room
		log.Info("Created room %s", code)
		d.publish(EventTypeCreated, room, connID, username)
	}

	conn := messages.Connection{
		ID:       connID,
		Num:      FindMissingNumber(room.seats()),
		Username: username,
		Host:     len(room.Connections) == 0,
	}
	room.Connections = append(room.Connections, conn)
	d.memberOf[connID] = code
	if len(room.Connections) >= room.MaxPlayers {
		room.State = StateActive
	}
	log.Info("Connection %s joined room %s in seat %d", connID, code, conn.Num)
	d.publish(EventTypeJoined, room, connID, username)

	out = append(out, d.broadcast(room, messages.MessageTypeServerConnectionAdded, room.Connections)...)
	out = append(out, d.broadcast(room, messages.MessageTypeServerBagUpdate, room.Bag)...)
	d.lock.Unlock()

	d.emit(out)
	return nil
}

// Disconnect removes a connection from its room, if any. Empty rooms are
// deleted.
func (d *Directory) Disconnect(connID string) {
	d.lock.Lock()
	out := d.disconnect(connID)
	d.lock.Unlock()

	d.emit(out)
}

// disconnect must be called with the write lock held.
func (d *Directory) disconnect(connID string) []emission {
	code, ok := d.memberOf[connID]
	if !ok {
		return nil
	}
	delete(d.memberOf, connID)

	room, ok := d.rooms[code]
	if !ok {
		return nil
	}
	i := room.indexOf(connID)
	if i < 0 {
		return nil
	}
	conn := room.Connections[i]
	room.Connections = append(room.Connections[:i], room.Connections[i+1:]...)
	room.State = StatePaused
	log.Info("Connection %s left room %s", connID, code)
	d.publish(EventTypeLeft, room, connID, conn.Username)

	if len(room.Connections) == 0 {
		delete(d.rooms, code)
		log.Info("Room %s is empty and has been deleted", code)
		d.publish(EventTypeClosed, room, connID, conn.Username)
		return nil
	}
	return d.broadcast(room, messages.MessageTypeServerConnectionRemoved, room.Connections)
}

// Relay forwards an update envelope to every member of a room except the
// sender. The envelope is not inspected.
func (d *Directory) Relay(senderID, code string, update json.RawMessage, volatile bool) error {
	d.lock.RLock()
	room, ok := d.rooms[code]
	if !ok {
		d.lock.RUnlock()
		return fmt.Errorf("room %s does not exist", code)
	}
	if room.indexOf(senderID) < 0 {
		d.lock.RUnlock()
		return fmt.Errorf("connection %s is not in room %s", senderID, code)
	}
	recipients := make([]string, 0, len(room.Connections))
	for _, conn := range room.Connections {
		if conn.ID != senderID {
			recipients = append(recipients, conn.ID)
		}
	}
	d.lock.RUnlock()

	msg := &messages.Message{
		Type:    messages.MessageTypeServerUpdate,
		Payload: update,
	}
	out := make([]emission, 0, len(recipients))
	for _, id := range recipients {
		out = append(out, emission{clientID: id, msg: msg, volatile: volatile})
	}
	d.emit(out)
	return nil
}

// ListRooms returns the lobby listing sorted by room code.
func (d *Directory) ListRooms() []messages.RoomInfo {
	d.lock.RLock()
	defer d.lock.RUnlock()

	infos := make([]messages.RoomInfo, 0, len(d.rooms))
	for _, room := range d.rooms {
		infos = append(infos, messages.RoomInfo{
			RoomName:   room.Code,
			Capacity:   fmt.Sprintf("%d/%d", len(room.Connections), room.MaxPlayers),
			Occupancy:  len(room.Connections),
			MaxPlayers: room.MaxPlayers,
			Host:       room.hostname(),
			State:      string(room.State),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].RoomName < infos[j].RoomName
	})
	return infos
}

// SendRoomList answers a lobby query.
func (d *Directory) SendRoomList(connID string) error {
	msg, err := messages.NewMessage(messages.MessageTypeServerUpdateRooms, d.ListRooms())
	if err != nil {
		return fmt.Errorf("failed to create room list message: %v", err)
	}
	if err := d.emitter.Emit(connID, msg, false); err != nil {
		return fmt.Errorf("failed to send room list to %s: %v", connID, err)
	}
	return nil
}

// Room returns a copy of a room.
func (d *Directory) Room(code string) (Room, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	room, ok := d.rooms[code]
	if !ok {
		return Room{}, false
	}
	return room.copy(), true
}

// RoomOf returns the code of the room a connection is in.
func (d *Directory) RoomOf(connID string) (string, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	code, ok := d.memberOf[connID]
	return code, ok
}

func (d *Directory) broadcast(room *Room, t messages.MessageType, payload interface{}) []emission {
	msg, err := messages.NewMessage(t, payload)
	if err != nil {
		log.Error("Failed to create %s message for room %s: %v", t, room.Code, err)
		return nil
	}
	out := make([]emission, 0, len(room.Connections))
	for _, conn := range room.Connections {
		out = append(out, emission{clientID: conn.ID, msg: msg})
	}
	return out
}

func (d *Directory) emit(out []emission) {
	if d.emitter == nil {
		return
	}
	for _, e := range out {
		if err := d.emitter.Emit(e.clientID, e.msg, e.volatile); err != nil {
			log.Warn("Failed to send %s to %s: %v", e.msg.Type, e.clientID, err)
		}
	}
}

// FindMissingNumber returns the smallest non-negative integer not in used.
func FindMissingNumber(used []int) int {
	taken := make(map[int]struct{}, len(used))
	for _, n := range used {
		taken[n] = struct{}{}
	}
	for i := 0; ; i++ {
		if _, ok := taken[i]; !ok {
			return i
		}
	}
}
