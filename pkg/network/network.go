package network

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
)

// NetworkManager owns the websocket transport and delivers messages to
// clients.
type NetworkManager struct {
	ClientManager *ClientManager
	WSServer      *WSServer
}

type NewNetworkManagerOptions struct {
	ClientManager  *ClientManager
	OriginPatterns []string
	WriteTimeout   time.Duration
}

func NewNetworkManager(options NewNetworkManagerOptions) *NetworkManager {
	n := &NetworkManager{
		ClientManager: options.ClientManager,
	}
	n.WSServer = NewWSServer(NewWSServerOptions{
		ClientManager:  options.ClientManager,
		OriginPatterns: options.OriginPatterns,
		WriteTimeout:   options.WriteTimeout,
		OnConnect:      n.handleConnect,
	})
	return n
}

// ServeHTTP serves websocket upgrades.
func (n *NetworkManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.WSServer.ServeHTTP(w, r)
}

// Stop closes every client connection.
func (n *NetworkManager) Stop() {
	for _, client := range n.ClientManager.GetClients() {
		client.close()
	}
}

func (n *NetworkManager) handleConnect(client *Client) {
	msg, err := messages.NewMessage(messages.MessageTypeServerWelcome, &messages.ServerWelcome{ID: client.ID})
	if err != nil {
		log.Error("Failed to create welcome message: %v", err)
		return
	}
	if err := n.SendReliableMessageToClient(client.ID, msg); err != nil {
		log.Error("Failed to send welcome to client %s: %v", client.ID, err)
	}
}

// Emit sends a message to a client, reliably unless volatile is set.
func (n *NetworkManager) Emit(clientID string, msg *messages.Message, volatile bool) error {
	if volatile {
		return n.SendUnreliableMessageToClient(clientID, msg)
	}
	return n.SendReliableMessageToClient(clientID, msg)
}

// SendReliableMessageToClient queues a message for a client. A client whose
// send buffer is full is disconnected.
func (n *NetworkManager) SendReliableMessageToClient(clientID string, msg *messages.Message) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %s: %v", clientID, err)
	}
	f, err := encodeFor(client, msg)
	if err != nil {
		return err
	}

	select {
	case <-client.done:
		return fmt.Errorf("client %s is closing", clientID)
	case client.send <- f:
		return nil
	default:
		client.close()
		return fmt.Errorf("send buffer full for client %s, disconnecting", clientID)
	}
}

// SendUnreliableMessageToClient queues a message for a client unless its send
// buffer is at least half full, in which case the message is dropped.
func (n *NetworkManager) SendUnreliableMessageToClient(clientID string, msg *messages.Message) error {
	client, err := n.ClientManager.GetClient(clientID)
	if err != nil {
		return fmt.Errorf("failed to get client %s: %v", clientID, err)
	}
	if len(client.send) >= cap(client.send)/2 {
		log.Debug("Dropping volatile %s message for busy client %s", msg.Type, clientID)
		return nil
	}
	f, err := encodeFor(client, msg)
	if err != nil {
		return err
	}

	select {
	case client.send <- f:
	default:
		log.Debug("Dropping volatile %s message for busy client %s", msg.Type, clientID)
	}
	return nil
}

func encodeFor(client *Client, msg *messages.Message) (frame, error) {
	typ, b, err := EncodeFrame(client.Framing(), msg)
	if err != nil {
		return frame{}, err
	}
	return frame{typ: typ, data: b}, nil
}
