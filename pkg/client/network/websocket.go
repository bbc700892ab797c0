package network

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	servernetwork "github.com/cbodonnell/suika/pkg/network"
	"github.com/cbodonnell/suika/pkg/queue"
)

const (
	// DefaultWriteTimeout bounds a single frame write
	DefaultWriteTimeout = 5 * time.Second
)

// WSClient represents a WebSocket client.
type WSClient struct {
	serverURL    string
	framing      servernetwork.Framing
	messageQueue queue.Queue
	writeTimeout time.Duration

	lock sync.Mutex
	conn *websocket.Conn
}

type NewWSClientOptions struct {
	ServerURL    string
	Framing      servernetwork.Framing
	MessageQueue queue.Queue
	WriteTimeout time.Duration
}

// NewWSClient creates a new WebSocket client.
func NewWSClient(opts NewWSClientOptions) *WSClient {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WSClient{
		serverURL:    opts.ServerURL,
		framing:      opts.Framing,
		messageQueue: opts.MessageQueue,
		writeTimeout: writeTimeout,
	}
}

// Connect establishes a connection to the WebSocket server. The framing is
// announced with the encoding query parameter so the server can answer in
// it before the first frame is sent.
func (c *WSClient) Connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("failed to parse server URL: %v", err)
	}
	q := u.Query()
	q.Set("encoding", c.framing.String())
	u.RawQuery = q.Encode()

	log.Info("Connecting to WebSocket server at %s", u.String())
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	conn.SetReadLimit(messages.MessageBufferSize)

	c.lock.Lock()
	c.conn = conn
	c.lock.Unlock()
	return nil
}

// HandleMessages reads frames until the connection closes, enqueueing every
// decoded message for the tick loop.
func (c *WSClient) HandleMessages(ctx context.Context) error {
	conn := c.getConn()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				log.Trace("Connection closed with status %d", status)
				return nil
			}
			return fmt.Errorf("failed to read message: %v", err)
		}

		msg, err := servernetwork.DecodeFrame(typ, data)
		if err != nil {
			log.Warn("Dropping undecodable frame: %v", err)
			continue
		}
		log.Trace("Received message from WebSocket server of type %s", msg.Type)

		if err := c.messageQueue.Enqueue(msg); err != nil {
			log.Error("Failed to enqueue %s message: %v", msg.Type, err)
		}
	}
}

// SendMessage sends a message to the WebSocket server.
func (c *WSClient) SendMessage(ctx context.Context, msg *messages.Message) error {
	conn := c.getConn()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if c.framing == servernetwork.FramingText {
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			return fmt.Errorf("failed to write %s message: %v", msg.Type, err)
		}
		return nil
	}

	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write %s message: %v", msg.Type, err)
	}
	return nil
}

// Close closes the WebSocket connection.
func (c *WSClient) Close() error {
	c.lock.Lock()
	conn := c.conn
	c.conn = nil
	c.lock.Unlock()
	if conn == nil {
		log.Warn("WebSocket connection is already closed")
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "")
}

func (c *WSClient) getConn() *websocket.Conn {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn
}
