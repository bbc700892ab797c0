package netcode

import (
	"errors"
	"fmt"

	"github.com/cbodonnell/suika/pkg/game"
	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/game/types"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
)

var (
	// ErrUnknownSender is returned for updates from a connection that is not
	// seated in the room.
	ErrUnknownSender = errors.New("unknown sender")
	// ErrStaleSnapshot is returned for a snapshot older than one already applied.
	ErrStaleSnapshot = errors.New("stale snapshot")
	// ErrInvalidSnapshot is returned for a snapshot that fails validation.
	ErrInvalidSnapshot = game.ErrInvalidSnapshot
)

// Outbound is an event the local client has to send to its peer.
type Outbound struct {
	Event    messages.Event
	Volatile bool
}

// Synchronizer translates local simulation events into outbound updates and
// applies the peer's updates to its mirror board. It is driven from the tick
// loop and is not safe for concurrent use.
type Synchronizer struct {
	match          *game.Match
	localID        string
	localSeat      int
	seats          map[string]int
	seq            uint64
	lastApplied    map[int]uint64
	endedSteps     int
	heartbeatEvery int
	reloadDelay    uint64
	outbox         []Outbound
	logger         *log.Logger
}

// NewSynchronizerOptions contains options for creating a new Synchronizer.
type NewSynchronizerOptions struct {
	Match     *game.Match
	LocalID   string
	LocalSeat int
	// HeartbeatEvery defaults to constants.HeartbeatContactEnds.
	HeartbeatEvery int
	// ReloadDelayTicks defaults to constants.ReloadDelayTicks.
	ReloadDelayTicks uint64
}

func NewSynchronizer(opts NewSynchronizerOptions) *Synchronizer {
	heartbeatEvery := opts.HeartbeatEvery
	if heartbeatEvery <= 0 {
		heartbeatEvery = constants.HeartbeatContactEnds
	}
	reloadDelay := opts.ReloadDelayTicks
	if reloadDelay == 0 {
		reloadDelay = constants.ReloadDelayTicks
	}
	return &Synchronizer{
		match:          opts.Match,
		localID:        opts.LocalID,
		localSeat:      opts.LocalSeat,
		seats:          map[string]int{opts.LocalID: opts.LocalSeat},
		lastApplied:    make(map[int]uint64),
		heartbeatEvery: heartbeatEvery,
		reloadDelay:    reloadDelay,
		outbox:         make([]Outbound, 0),
		logger:         log.With("seat", opts.LocalSeat),
	}
}

func (s *Synchronizer) Match() *game.Match {
	return s.match
}

func (s *Synchronizer) LocalPlayer() *types.Player {
	return s.match.Player(s.localSeat)
}

// SetConnections records which connection sits in which seat.
func (s *Synchronizer) SetConnections(connections []messages.Connection) {
	seats := make(map[string]int, len(connections))
	for _, conn := range connections {
		player := s.match.Player(conn.Num)
		if player == nil {
			s.logger.Warn("Ignoring connection %s in seat %d", conn.ID, conn.Num)
			continue
		}
		if conn.Num != s.localSeat && player.ConnectionID != "" && player.ConnectionID != conn.ID {
			s.resetSeat(player)
		}
		seats[conn.ID] = conn.Num
		player.ConnectionID = conn.ID
		player.Username = conn.Username
	}
	seats[s.localID] = s.localSeat
	s.seats = seats
}

// resetSeat clears a remote seat taken over by a new connection.
func (s *Synchronizer) resetSeat(player *types.Player) {
	s.logger.Info("Seat %d changed hands, clearing its board", player.Seat)
	s.match.DiscardHeld(player)
	s.match.ClearBoard(player.Board)
	s.match.Scheduler().CancelOwner(player)
	player.Dead = false
	player.Score = 0
	player.Index = 0
	delete(s.lastApplied, player.Seat)
}

// HandleUpdate applies an update received from the peer.
func (s *Synchronizer) HandleUpdate(update messages.Update) error {
	seat, ok := s.seats[update.Sender]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSender, update.Sender)
	}
	if seat == s.localSeat {
		return fmt.Errorf("update from local connection %q", update.Sender)
	}
	player := s.match.Player(seat)

	switch e := update.Event.(type) {
	case messages.PlayerMove:
		s.match.MoveHeld(player, e.X)
	case messages.Reload:
		if e.Index != nil {
			player.Index = *e.Index
		}
		if player.Dead {
			return nil
		}
		if _, err := s.match.SpawnHeld(player, s.match.BagRank(player.Index)); err != nil {
			return fmt.Errorf("failed to spawn held fruit for seat %d: %v", seat, err)
		}
	case messages.Drop:
		if e.Index != nil {
			player.Index = *e.Index
		}
		if player.Dead {
			return nil
		}
		if player.Held == nil {
			if _, err := s.match.SpawnHeld(player, s.match.BagRank(player.Index)); err != nil {
				return fmt.Errorf("failed to spawn dropped fruit for seat %d: %v", seat, err)
			}
		}
		if _, err := s.match.Release(player); err != nil {
			return fmt.Errorf("failed to drop fruit for seat %d: %v", seat, err)
		}
		player.Index++
	case messages.Death:
		s.match.Kill(player)
	case messages.Score:
		player.Score = e.Score
	case messages.UpdateOthers:
		if e.Seq > 0 && e.Seq <= s.lastApplied[seat] {
			return fmt.Errorf("%w: seq %d, last applied %d", ErrStaleSnapshot, e.Seq, s.lastApplied[seat])
		}
		if err := s.match.ApplySnapshot(player.Board, e.Fruits); err != nil {
			return fmt.Errorf("failed to apply snapshot from seat %d: %w", seat, err)
		}
		if e.Seq > 0 {
			s.lastApplied[seat] = e.Seq
		}
	default:
		return fmt.Errorf("%w: %T", messages.ErrUnknownEventType, update.Event)
	}
	return nil
}

// Move moves the local cursor.
func (s *Synchronizer) Move(x float64) {
	player := s.LocalPlayer()
	if player.Dead || player.X == x {
		return
	}
	s.match.MoveHeld(player, x)
	s.send(messages.PlayerMove{X: x}, false)
}

// Reload gives the local player the next fruit from the bag.
func (s *Synchronizer) Reload() error {
	player := s.LocalPlayer()
	if player.Dead {
		return fmt.Errorf("local player is dead")
	}
	if _, err := s.match.SpawnHeld(player, s.match.BagRank(player.Index)); err != nil {
		return fmt.Errorf("failed to reload: %v", err)
	}
	s.send(messages.Reload{Index: messages.IntPtr(player.Index)}, false)
	return nil
}

// Drop releases the local held fruit and schedules the next reload.
func (s *Synchronizer) Drop() error {
	player := s.LocalPlayer()
	if player.Dead {
		return fmt.Errorf("local player is dead")
	}
	if player.Held == nil {
		return fmt.Errorf("local player is not holding a fruit")
	}
	if _, err := s.match.Release(player); err != nil {
		return fmt.Errorf("failed to drop: %v", err)
	}
	s.send(messages.Drop{Index: messages.IntPtr(player.Index)}, false)
	player.Index++

	s.match.Scheduler().After(s.reloadDelay, func() {
		if err := s.Reload(); err != nil {
			s.logger.Error("Failed to reload after drop: %v", err)
		}
	}, player)
	return nil
}

// CanDrop reports whether the local player is holding a fruit.
func (s *Synchronizer) CanDrop() bool {
	player := s.LocalPlayer()
	return !player.Dead && player.Held != nil
}

// HandleEvents turns the events of a simulation step into outbound updates.
func (s *Synchronizer) HandleEvents(events []types.Event) {
	for _, event := range events {
		switch e := event.(type) {
		case types.MergeEvent:
			if e.Seat != s.localSeat {
				continue
			}
			s.sendSnapshot(false)
			s.send(messages.Score{Score: s.LocalPlayer().Score}, false)
		case types.DeathEvent:
			if e.Seat != s.localSeat {
				continue
			}
			s.logger.Info("Local board died with score %d", s.LocalPlayer().Score)
			s.send(messages.Death{}, false)
		case types.ContactsEndedEvent:
			s.endedSteps++
			if s.endedSteps%s.heartbeatEvery == 0 && !s.LocalPlayer().Dead {
				s.sendSnapshot(true)
			}
		}
	}
}

func (s *Synchronizer) sendSnapshot(volatile bool) {
	s.seq++
	s.send(messages.UpdateOthers{
		Seq:    s.seq,
		Fruits: s.match.Snapshot(s.LocalPlayer().Board),
	}, volatile)
}

func (s *Synchronizer) send(event messages.Event, volatile bool) {
	s.outbox = append(s.outbox, Outbound{Event: event, Volatile: volatile})
}

// Flush returns the updates queued since the last Flush.
func (s *Synchronizer) Flush() []Outbound {
	out := s.outbox
	s.outbox = make([]Outbound, 0)
	return out
}
