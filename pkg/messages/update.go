package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EventType names the kind of game event carried by an Update.
type EventType string

const (
	EventTypePlayerMove   EventType = "playermove"
	EventTypeReload       EventType = "reload"
	EventTypeDrop         EventType = "drop"
	EventTypeDeath        EventType = "death"
	EventTypeScore        EventType = "score"
	EventTypeUpdateOthers EventType = "updateOthers"
)

// ErrUnknownEventType is returned when decoding an update whose event type is
// not one of the known kinds.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is one case of the update event union. The concrete types are
// PlayerMove, Reload, Drop, Death, Score and UpdateOthers.
type Event interface {
	EventType() EventType
}

// PlayerMove moves the sender's held-fruit cursor.
type PlayerMove struct {
	X float64
}

// Reload spawns a new held fruit for the sender. Index is the bag position
// the fruit was drawn from, when the sender includes it.
type Reload struct {
	Index *int
}

// Drop releases the sender's held fruit. Index is the bag position of the
// dropped fruit, when the sender includes it.
type Drop struct {
	Index *int
}

// Death marks the sender's board as dead.
type Death struct{}

// Score is the sender's cumulative score.
type Score struct {
	Score int
}

// UpdateOthers is a full snapshot of the sender's board. Seq increases with
// every snapshot a board sends; zero means the sender does not sequence.
type UpdateOthers struct {
	Seq    uint64
	Fruits []FruitState
}

func (PlayerMove) EventType() EventType   { return EventTypePlayerMove }
func (Reload) EventType() EventType       { return EventTypeReload }
func (Drop) EventType() EventType         { return EventTypeDrop }
func (Death) EventType() EventType        { return EventTypeDeath }
func (Score) EventType() EventType        { return EventTypeScore }
func (UpdateOthers) EventType() EventType { return EventTypeUpdateOthers }

// IntPtr is a convenience for building Reload and Drop events.
func IntPtr(i int) *int {
	return &i
}

// FruitState is the serialized state of one fruit body.
type FruitState struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Angle           float64 `json:"angle"`
	VX              float64 `json:"vx"`
	VY              float64 `json:"vy"`
	AngularVelocity float64 `json:"angularVelocity"`
	Label           string  `json:"label"`
	Static          bool    `json:"static"`
}

// Update is the envelope relayed between peers.
type Update struct {
	Sender string
	Event  Event
}

type wireUpdate struct {
	Sender string    `json:"sender"`
	Event  wireEvent `json:"event"`
}

type wireEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wireUpdateOthers struct {
	Seq    uint64       `json:"seq"`
	Fruits []FruitState `json:"fruits"`
}

func (u Update) MarshalJSON() ([]byte, error) {
	if u.Event == nil {
		return nil, fmt.Errorf("update from %q has no event", u.Sender)
	}

	var data interface{}
	switch e := u.Event.(type) {
	case PlayerMove:
		data = e.X
	case Reload:
		if e.Index != nil {
			data = *e.Index
		}
	case Drop:
		if e.Index != nil {
			data = *e.Index
		}
	case Death:
	case Score:
		data = e.Score
	case UpdateOthers:
		fruits := e.Fruits
		if fruits == nil {
			fruits = []FruitState{}
		}
		data = wireUpdateOthers{Seq: e.Seq, Fruits: fruits}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, u.Event)
	}

	w := wireUpdate{
		Sender: u.Sender,
		Event:  wireEvent{Type: u.Event.EventType()},
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s data: %v", w.Event.Type, err)
		}
		w.Event.Data = b
	}
	return json.Marshal(w)
}

func (u *Update) UnmarshalJSON(b []byte) error {
	w := wireUpdate{}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("failed to unmarshal update: %v", err)
	}

	u.Sender = w.Sender
	data := w.Event.Data
	switch w.Event.Type {
	case EventTypePlayerMove:
		e := PlayerMove{}
		if err := json.Unmarshal(data, &e.X); err != nil {
			return fmt.Errorf("failed to unmarshal playermove data: %v", err)
		}
		u.Event = e
	case EventTypeReload:
		index, err := decodeOptionalIndex(data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal reload data: %v", err)
		}
		u.Event = Reload{Index: index}
	case EventTypeDrop:
		index, err := decodeOptionalIndex(data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal drop data: %v", err)
		}
		u.Event = Drop{Index: index}
	case EventTypeDeath:
		u.Event = Death{}
	case EventTypeScore:
		score, err := decodeScore(data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal score data: %v", err)
		}
		u.Event = Score{Score: score}
	case EventTypeUpdateOthers:
		e, err := decodeUpdateOthers(data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal updateOthers data: %v", err)
		}
		u.Event = e
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, w.Event.Type)
	}

	return nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeOptionalIndex(data json.RawMessage) (*int, error) {
	if isNull(data) {
		return nil, nil
	}
	var index int
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// decodeScore accepts a JSON number or a numeric string.
func decodeScore(data json.RawMessage) (int, error) {
	if isNull(data) {
		return 0, fmt.Errorf("missing score")
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", n.String())
	}
	return int(f), nil
}

// decodeUpdateOthers accepts {seq, fruits} or a bare fruit list.
func decodeUpdateOthers(data json.RawMessage) (UpdateOthers, error) {
	if isNull(data) {
		return UpdateOthers{}, fmt.Errorf("missing snapshot")
	}
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		fruits := []FruitState{}
		if err := json.Unmarshal(trimmed, &fruits); err != nil {
			return UpdateOthers{}, err
		}
		return UpdateOthers{Fruits: fruits}, nil
	}
	w := wireUpdateOthers{}
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return UpdateOthers{}, err
	}
	if w.Fruits == nil {
		w.Fruits = []FruitState{}
	}
	return UpdateOthers{Seq: w.Seq, Fruits: w.Fruits}, nil
}
