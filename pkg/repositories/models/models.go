package models

// RoomEvent is one entry of a room's lifecycle history.
type RoomEvent struct {
	ID           int64  `json:"id"`
	Room         string `json:"room"`
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`
	Occupancy    int    `json:"occupancy"`
	Timestamp    int64  `json:"timestamp"`
}
