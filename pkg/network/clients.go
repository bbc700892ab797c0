package network

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

const (
	// ClientEventChannelSize represents the size of the client event channel
	ClientEventChannelSize = 1024
	// ClientSendBufferSize is the number of outbound frames buffered per client
	ClientSendBufferSize = 256
)

// Framing is the websocket frame type a client speaks.
type Framing int

const (
	// FramingText carries JSON messages in text frames
	FramingText Framing = iota
	// FramingBinary carries zstd-compressed flatbuffer messages in binary frames
	FramingBinary
)

func (f Framing) String() string {
	if f == FramingBinary {
		return "binary"
	}
	return "text"
}

// ParseFraming parses "text" or "binary". The empty string means text.
func ParseFraming(s string) (Framing, error) {
	switch s {
	case "", "text", "json":
		return FramingText, nil
	case "binary":
		return FramingBinary, nil
	default:
		return FramingText, fmt.Errorf("unknown framing: %s", s)
	}
}

func (f Framing) messageType() websocket.MessageType {
	if f == FramingBinary {
		return websocket.MessageBinary
	}
	return websocket.MessageText
}

func framingOf(typ websocket.MessageType) Framing {
	if typ == websocket.MessageBinary {
		return FramingBinary
	}
	return FramingText
}

type frame struct {
	typ  websocket.MessageType
	data []byte
}

// Client represents a connected client
type Client struct {
	ID         string
	RemoteAddr string
	conn       *websocket.Conn
	send       chan frame
	done       chan struct{}
	closeOnce  sync.Once

	lock         sync.RWMutex
	framing      Framing
	framingFixed bool
}

// Framing returns the framing the client is answered in.
func (c *Client) Framing() Framing {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.framing
}

// observeFrame pins the client's framing to that of the first frame it sends.
func (c *Client) observeFrame(typ websocket.MessageType) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.framingFixed {
		return
	}
	c.framing = framingOf(typ)
	c.framingFixed = true
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ClientEvent represents an event that happened to a client
type ClientEvent struct {
	ClientID string
	Type     ClientEventType
	Data     interface{}
}

// ClientEventType represents the type of a client event
type ClientEventType int

const (
	ClientEventTypeConnect ClientEventType = iota
	ClientEventTypeDisconnect
	ClientEventTypeMessage
)

func (t ClientEventType) String() string {
	switch t {
	case ClientEventTypeConnect:
		return "connect"
	case ClientEventTypeDisconnect:
		return "disconnect"
	case ClientEventTypeMessage:
		return "message"
	default:
		return "unknown"
	}
}

// ClientManager manages connected clients
type ClientManager struct {
	clients         map[string]*Client
	clientsLock     sync.RWMutex
	clientEventChan chan ClientEvent
}

// NewClientManager creates a new ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:         make(map[string]*Client),
		clientEventChan: make(chan ClientEvent, ClientEventChannelSize),
	}
}

// GetClientEventChan returns a one-way channel for receiving client events.
// Connects, messages and disconnects of one client arrive in order.
func (cm *ClientManager) GetClientEventChan() <-chan ClientEvent {
	return cm.clientEventChan
}

// ConnectClient adds a new client to the manager and returns it
func (cm *ClientManager) ConnectClient(conn *websocket.Conn, remoteAddr string, framing Framing) *Client {
	client := &Client{
		ID:         uuid.New().String(),
		RemoteAddr: remoteAddr,
		conn:       conn,
		send:       make(chan frame, ClientSendBufferSize),
		done:       make(chan struct{}),
		framing:    framing,
	}

	cm.clientsLock.Lock()
	cm.clients[client.ID] = client
	cm.clientsLock.Unlock()

	cm.clientEventChan <- ClientEvent{
		ClientID: client.ID,
		Type:     ClientEventTypeConnect,
	}
	return client
}

// DisconnectClient removes a client from the manager
func (cm *ClientManager) DisconnectClient(clientID string) {
	cm.clientsLock.Lock()
	client, ok := cm.clients[clientID]
	if !ok {
		cm.clientsLock.Unlock()
		return
	}
	delete(cm.clients, clientID)
	cm.clientsLock.Unlock()

	client.close()
	cm.clientEventChan <- ClientEvent{
		ClientID: clientID,
		Type:     ClientEventTypeDisconnect,
	}
}

// PushMessage queues a decoded message from a client for the lobby worker
func (cm *ClientManager) PushMessage(clientID string, data interface{}) {
	cm.clientEventChan <- ClientEvent{
		ClientID: clientID,
		Type:     ClientEventTypeMessage,
		Data:     data,
	}
}

// GetClient returns a connected client
func (cm *ClientManager) GetClient(clientID string) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s not found", clientID)
	}
	return client, nil
}

// GetClients returns a slice of all connected clients.
func (cm *ClientManager) GetClients() []*Client {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

func (cm *ClientManager) Exists(clientID string) bool {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// Count returns the number of connected clients
func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}
