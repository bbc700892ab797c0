package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	servernetwork "github.com/cbodonnell/suika/pkg/network"
	"github.com/cbodonnell/suika/pkg/queue"
)

// NetworkManager owns the client's connection to the relay server.
type NetworkManager struct {
	wsClient        *WSClient
	errChan         chan error
	cancelClientCtx context.CancelFunc
	clientWaitGroup sync.WaitGroup
}

type NewNetworkManagerOptions struct {
	ServerURL    string
	Framing      servernetwork.Framing
	MessageQueue queue.Queue
}

// NewNetworkManager creates a new network manager.
func NewNetworkManager(opts NewNetworkManagerOptions) *NetworkManager {
	return &NetworkManager{
		wsClient: NewWSClient(NewWSClientOptions{
			ServerURL:    opts.ServerURL,
			Framing:      opts.Framing,
			MessageQueue: opts.MessageQueue,
		}),
		errChan: make(chan error, 1),
	}
}

// Start connects to the server and starts reading messages in the
// background. Read failures are reported on Errors.
func (m *NetworkManager) Start(ctx context.Context) error {
	if err := m.wsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to start WebSocket client: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancelClientCtx = cancel

	m.clientWaitGroup.Add(1)
	go func() {
		defer m.clientWaitGroup.Done()
		err := m.wsClient.HandleMessages(ctx)
		if err == nil {
			err = fmt.Errorf("connection closed")
		}
		m.errChan <- err
	}()

	return nil
}

// Errors reports the end of the connection. It yields exactly one value
// after Start succeeds.
func (m *NetworkManager) Errors() <-chan error {
	return m.errChan
}

func (m *NetworkManager) SendMessage(ctx context.Context, msg *messages.Message) error {
	return m.wsClient.SendMessage(ctx, msg)
}

// Stop closes the connection and waits for the read loop to exit.
func (m *NetworkManager) Stop() {
	if m.cancelClientCtx != nil {
		m.cancelClientCtx()
	}
	if err := m.wsClient.Close(); err != nil {
		log.Debug("Failed to close WebSocket client: %v", err)
	}
	m.clientWaitGroup.Wait()
}
