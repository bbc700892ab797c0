package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	"nhooyr.io/websocket"
)

const (
	// DefaultWriteTimeout bounds a single websocket write
	DefaultWriteTimeout = 5 * time.Second
)

// WSServer accepts websocket connections and pumps frames between the socket
// and the client manager.
type WSServer struct {
	clientManager  *ClientManager
	originPatterns []string
	writeTimeout   time.Duration
	onConnect      func(client *Client)
}

type NewWSServerOptions struct {
	ClientManager *ClientManager
	// OriginPatterns are the allowed cross-origin hosts. An empty list allows
	// any origin.
	OriginPatterns []string
	WriteTimeout   time.Duration
	OnConnect      func(client *Client)
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WSServer{
		clientManager:  opts.ClientManager,
		originPatterns: opts.OriginPatterns,
		writeTimeout:   writeTimeout,
		onConnect:      opts.OnConnect,
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
// The "encoding" query parameter picks the framing used before the client
// sends its first frame.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	framing, err := ParseFraming(r.URL.Query().Get("encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.originPatterns,
		InsecureSkipVerify: len(s.originPatterns) == 0,
	})
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	conn.SetReadLimit(messages.MessageBufferSize)

	client := s.clientManager.ConnectClient(conn, r.RemoteAddr, framing)
	logger := log.With("client", client.ID)
	logger.Debug("New WebSocket connection from %s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.clientManager.DisconnectClient(client.ID)
		conn.Close(websocket.StatusNormalClosure, "")
		logger.Info("Client disconnected")
	}()

	go s.writeLoop(ctx, client, logger)
	if s.onConnect != nil {
		s.onConnect(client)
	}
	s.readLoop(ctx, client, logger)
}

func (s *WSServer) readLoop(ctx context.Context, client *Client, logger *log.Logger) {
	for {
		typ, data, err := client.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				logger.Debug("Error reading WebSocket message: %v", err)
			}
			logger.Trace("Connection closed with status %d", status)
			return
		}
		client.observeFrame(typ)

		msg, err := DecodeFrame(typ, data)
		if err != nil {
			logger.Warn("Dropping undecodable %s frame: %v", framingOf(typ), err)
			continue
		}
		logger.Trace("Received %s message", msg.Type)
		s.clientManager.PushMessage(client.ID, msg)
	}
}

func (s *WSServer) writeLoop(ctx context.Context, client *Client, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			client.conn.Close(websocket.StatusGoingAway, "connection closed by server")
			return
		case f := <-client.send:
			writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := client.conn.Write(writeCtx, f.typ, f.data)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Failed to write WebSocket message: %v", err)
				}
				client.close()
				client.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

// EncodeFrame serializes a message for the given framing.
func EncodeFrame(framing Framing, msg *messages.Message) (websocket.MessageType, []byte, error) {
	var b []byte
	var err error
	if framing == FramingBinary {
		b, err = messages.SerializeMessage(msg)
	} else {
		b, err = messages.SerializeMessageJSON(msg)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to serialize %s message: %v", msg.Type, err)
	}
	return framing.messageType(), b, nil
}

// DecodeFrame deserializes a text or binary frame.
func DecodeFrame(typ websocket.MessageType, data []byte) (*messages.Message, error) {
	if typ == websocket.MessageBinary {
		return messages.DeserializeMessage(data)
	}
	return messages.DeserializeMessageJSON(data)
}
