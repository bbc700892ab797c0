package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/suika/pkg/game"
	"github.com/cbodonnell/suika/pkg/game/constants"
	"github.com/cbodonnell/suika/pkg/game/types"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/cbodonnell/suika/pkg/netcode"
	"github.com/cbodonnell/suika/pkg/queue"
)

// ScoreLogInterval is how often Run logs both boards
const ScoreLogInterval = 5 * time.Second

// Sender delivers messages to the relay server.
type Sender interface {
	SendMessage(ctx context.Context, msg *messages.Message) error
}

// Action is the input applied to the local player for one tick.
type Action struct {
	Move bool
	X    float64
	Drop bool
}

// Input decides what the local player does each tick.
type Input interface {
	Next(player *types.Player, tick uint64) Action
}

// Game is the client runtime. A single goroutine calls Tick; messages from the
// server reach it only through the queue.
type Game struct {
	sender       Sender
	messageQueue queue.Queue
	input        Input
	room         string
	username     string
	stopOnDeath  bool

	clientID    string
	joined      bool
	bag         []int
	connections []messages.Connection
	rooms       []messages.RoomInfo

	sync *netcode.Synchronizer
	tick uint64

	logger *log.Logger
}

type NewGameOptions struct {
	Sender       Sender
	MessageQueue queue.Queue
	Input        Input
	Room         string
	Username     string
	// StopOnDeath makes Run return once the local board dies.
	StopOnDeath bool
}

func NewGame(opts NewGameOptions) *Game {
	return &Game{
		sender:       opts.Sender,
		messageQueue: opts.MessageQueue,
		input:        opts.Input,
		room:         opts.Room,
		username:     opts.Username,
		stopOnDeath:  opts.StopOnDeath,
		logger:       log.With("room", opts.Room),
	}
}

// ClientID is the connection id assigned by the server, once welcomed.
func (g *Game) ClientID() string {
	return g.clientID
}

// Started reports whether both seats were filled and the match began.
func (g *Game) Started() bool {
	return g.sync != nil
}

// Match returns the running match, or nil before it starts.
func (g *Game) Match() *game.Match {
	if g.sync == nil {
		return nil
	}
	return g.sync.Match()
}

// Dead reports whether the local board has died.
func (g *Game) Dead() bool {
	return g.sync != nil && g.sync.LocalPlayer().Dead
}

// Rooms is the last lobby listing received.
func (g *Game) Rooms() []messages.RoomInfo {
	return g.rooms
}

// Tick advances the client by one fixed step: scheduled tasks, inbound
// messages, local input, physics, then outbound updates.
func (g *Game) Tick(ctx context.Context) error {
	g.tick++

	if g.sync != nil {
		g.sync.Match().Scheduler().Advance()
	}

	items, err := g.messageQueue.ReadAllMessages()
	if err != nil {
		return fmt.Errorf("failed to read messages: %v", err)
	}
	for _, item := range items {
		msg, ok := item.(*messages.Message)
		if !ok {
			g.logger.Error("Unexpected item in message queue: %T", item)
			continue
		}
		if err := g.handleMessage(ctx, msg); err != nil {
			g.logger.Warn("Failed to handle %s message: %v", msg.Type, err)
		}
	}

	if g.sync == nil {
		return nil
	}

	if g.input != nil && !g.Dead() {
		action := g.input.Next(g.sync.LocalPlayer(), g.tick)
		if action.Move {
			g.sync.Move(action.X)
		}
		if action.Drop && g.sync.CanDrop() {
			if err := g.sync.Drop(); err != nil {
				g.logger.Warn("Failed to drop: %v", err)
			}
		}
	}

	g.sync.HandleEvents(g.sync.Match().Step())

	return g.flush(ctx)
}

func (g *Game) handleMessage(ctx context.Context, msg *messages.Message) error {
	switch msg.Type {
	case messages.MessageTypeServerWelcome:
		welcome := &messages.ServerWelcome{}
		if err := json.Unmarshal(msg.Payload, welcome); err != nil {
			return fmt.Errorf("failed to unmarshal welcome: %v", err)
		}
		g.clientID = welcome.ID
		g.logger.Info("Connected with id %s", g.clientID)
		return g.join(ctx)
	case messages.MessageTypeServerConnectionAdded, messages.MessageTypeServerConnectionRemoved:
		connections := make([]messages.Connection, 0)
		if err := json.Unmarshal(msg.Payload, &connections); err != nil {
			return fmt.Errorf("failed to unmarshal connections: %v", err)
		}
		g.connections = connections
		if msg.Type == messages.MessageTypeServerConnectionRemoved {
			g.logger.Info("Opponent left, %d connection(s) remain", len(connections))
		}
		if g.sync != nil {
			g.sync.SetConnections(connections)
			return nil
		}
		return g.maybeStart()
	case messages.MessageTypeServerBagUpdate:
		bag := make([]int, 0)
		if err := json.Unmarshal(msg.Payload, &bag); err != nil {
			return fmt.Errorf("failed to unmarshal bag: %v", err)
		}
		g.bag = bag
		if g.sync != nil {
			return nil
		}
		return g.maybeStart()
	case messages.MessageTypeServerUpdateRooms:
		rooms := make([]messages.RoomInfo, 0)
		if err := json.Unmarshal(msg.Payload, &rooms); err != nil {
			return fmt.Errorf("failed to unmarshal rooms: %v", err)
		}
		g.rooms = rooms
		return nil
	case messages.MessageTypeServerUpdate:
		if g.sync == nil {
			g.logger.Debug("Dropping update received before the match started")
			return nil
		}
		update := messages.Update{}
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			return fmt.Errorf("failed to unmarshal update: %v", err)
		}
		return g.sync.HandleUpdate(update)
	default:
		return fmt.Errorf("unknown message type")
	}
}

func (g *Game) join(ctx context.Context) error {
	if g.joined {
		return nil
	}
	msg, err := messages.NewMessage(messages.MessageTypeClientJoinRoom, &messages.ClientJoinRoom{
		Room:     g.room,
		Username: g.username,
	})
	if err != nil {
		return err
	}
	if err := g.sender.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to send join room: %v", err)
	}
	g.joined = true
	return nil
}

// maybeStart begins the match once the room is full and the bag is known.
func (g *Game) maybeStart() error {
	if g.clientID == "" || g.bag == nil || len(g.connections) < 2 {
		return nil
	}

	localSeat := -1
	for _, conn := range g.connections {
		if conn.ID == g.clientID {
			localSeat = conn.Num
		}
	}
	if localSeat < 0 {
		return fmt.Errorf("connection %s is not in room %s", g.clientID, g.room)
	}

	match, err := game.NewMatch(game.NewMatchOptions{
		LocalSeat: localSeat,
		Bag:       g.bag,
	})
	if err != nil {
		return fmt.Errorf("failed to create match: %v", err)
	}
	g.sync = netcode.NewSynchronizer(netcode.NewSynchronizerOptions{
		Match:     match,
		LocalID:   g.clientID,
		LocalSeat: localSeat,
	})
	g.sync.SetConnections(g.connections)
	g.logger = g.logger.With("seat", localSeat)
	g.logger.Info("Match started with a bag of %d fruit", len(g.bag))

	return g.sync.Reload()
}

func (g *Game) flush(ctx context.Context) error {
	for _, out := range g.sync.Flush() {
		update, err := json.Marshal(messages.Update{Sender: g.clientID, Event: out.Event})
		if err != nil {
			return fmt.Errorf("failed to marshal %s update: %v", out.Event.EventType(), err)
		}
		msg, err := messages.NewMessage(messages.MessageTypeClientUpdate, messages.RoomUpdate{
			Room:     g.room,
			Update:   update,
			Volatile: out.Volatile,
		})
		if err != nil {
			return err
		}
		if err := g.sender.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to send %s update: %v", out.Event.EventType(), err)
		}
	}
	return nil
}

// Run ticks at constants.TickRate until ctx is done or a tick fails. Scores
// are logged every ScoreLogInterval.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(constants.TickRate))
	defer ticker.Stop()
	scoreTicker := time.NewTicker(ScoreLogInterval)
	defer scoreTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-scoreTicker.C:
			g.logScores()
		case <-ticker.C:
			if err := g.Tick(ctx); err != nil {
				return err
			}
			if g.stopOnDeath && g.Dead() {
				g.logScores()
				return nil
			}
		}
	}
}

func (g *Game) logScores() {
	match := g.Match()
	if match == nil {
		return
	}
	p0, p1 := match.Player(0), match.Player(1)
	g.logger.Info("Scores: %s %d (%d fruit), %s %d (%d fruit)",
		p0.Username, p0.Score, len(p0.Board.Fruits),
		p1.Username, p1.Score, len(p1.Board.Fruits),
	)
}
