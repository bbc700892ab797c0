package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/cbodonnell/suika/pkg/api/handlers"
	"github.com/cbodonnell/suika/pkg/api/middleware"
	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/repositories"
)

const (
	// DefaultRequestTimeout bounds lobby API requests. It does not apply to /ws.
	DefaultRequestTimeout = 15 * time.Second
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port       int
	TLS        *TLSConfig
	Rooms      handlers.RoomLister
	Repository repositories.Repository
	// WebSocket serves /ws when set.
	WebSocket http.Handler
}

// NewAPIServer creates a new http.Server serving the lobby API and the
// websocket endpoint
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the handler tree used by APIServer.
func NewRouter(opts NewAPIServerOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware())
	r.Use(chimiddleware.Recoverer)

	r.HandleFunc("/healthz", handlers.HandleHealthz()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewCORSMiddleware("GET, OPTIONS"))
	api.Use(chimiddleware.Timeout(DefaultRequestTimeout))
	api.HandleFunc("/rooms", handlers.HandleListRooms(opts.Rooms)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/rooms/{code}/history", handlers.HandleRoomHistory(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)

	if opts.WebSocket != nil {
		r.Handle("/ws", opts.WebSocket).Methods(http.MethodGet)
	}

	return r
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
