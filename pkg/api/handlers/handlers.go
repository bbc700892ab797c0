package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cbodonnell/suika/pkg/log"
	"github.com/cbodonnell/suika/pkg/messages"
	"github.com/cbodonnell/suika/pkg/repositories"
)

// RoomLister is the read side of the room directory.
type RoomLister interface {
	ListRooms() []messages.RoomInfo
}

func HandleListRooms(lister RoomLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lister.ListRooms())
	}
}

func HandleRoomHistory(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		events, err := repository.ListRoomEvents(r.Context(), code, limit)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Room history not found", http.StatusNotFound)
				return
			}
			log.Error("failed to list events for room %s: %v", code, err)
			http.Error(w, "Failed to list room history", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, events)
	}
}

func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
