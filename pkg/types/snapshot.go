package types

// RoomSnapshot is the public view of a room served by GET /rooms. Treasure
// locations are never part of it.
type RoomSnapshot struct {
	RoomID  string   `json:"roomId"`
	Phase   string   `json:"phase"` // "waiting" | "placing" | "playing" | "finished"
	Players []string `json:"players"`
	Turn    string   `json:"turn,omitempty"` // only while playing
	Placed  int      `json:"placed"`
	Winner  string   `json:"winner,omitempty"`
	Version int      `json:"version"`
}

type NewRoom struct {
	RoomID string `json:"roomId"`
}
