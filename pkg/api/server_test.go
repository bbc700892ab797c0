package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/cbodonnell/suika/pkg/repositories"
	"github.com/cbodonnell/suika/pkg/repositories/models"
)

type staticRooms []messages.RoomInfo

func (s staticRooms) ListRooms() []messages.RoomInfo {
	return s
}

func newTestRouter(t *testing.T) http.Handler {
	repo := repositories.NewMemoryRepository()
	for _, typ := range []string{"created", "joined", "joined"} {
		require.NoError(t, repo.SaveRoomEvent(context.Background(), &models.RoomEvent{Room: "ROOM", Type: typ, ConnectionID: "a"}))
	}

	return NewRouter(NewAPIServerOptions{
		Rooms: staticRooms{
			{RoomName: "ROOM", Capacity: "2/2", Occupancy: 2, MaxPlayers: 2, Host: "alice", State: "active"},
		},
		Repository: repo,
		WebSocket: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "healthz",
			method:     http.MethodGet,
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
		{
			name:       "list rooms",
			method:     http.MethodGet,
			path:       "/api/rooms",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
				var rooms []messages.RoomInfo
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
				require.Len(t, rooms, 1)
				assert.Equal(t, "alice", rooms[0].Host)
				assert.Equal(t, "2/2", rooms[0].Capacity)
			},
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			path:       "/api/rooms",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "history",
			method:     http.MethodGet,
			path:       "/api/rooms/ROOM/history?limit=2",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var events []models.RoomEvent
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
				require.Len(t, events, 2)
				assert.Equal(t, int64(3), events[0].ID)
			},
		},
		{
			name:       "history of unknown room",
			method:     http.MethodGet,
			path:       "/api/rooms/NOPE/history",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad limit",
			method:     http.MethodGet,
			path:       "/api/rooms/ROOM/history?limit=zero",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodPost,
			path:       "/api/rooms",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "websocket endpoint",
			method:     http.MethodGet,
			path:       "/ws",
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}
