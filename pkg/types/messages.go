package types

import "encoding/json"

// Every frame is a JSON text message {"event": ..., "data": ...}.

// Client -> Server
//
// join-room:      "<roomId>"
// place-treasure: {"roomId": string, "cell": 0..24}
// make-move:      {"roomId": string, "cell": 0..24}
const (
	EventJoinRoom      = "join-room"
	EventPlaceTreasure = "place-treasure"
	EventMakeMove      = "make-move"
)

// Server -> Client
//
// connected:     {"playerId": string}, once per connection
// player-joined: "<opponentId>", to the first player
// start-game:    {"firstPlayerId": string}, to both players
// opponent-move: <cell>, to the probed player
// hit:           <cell>, to the prober
// game-over:     "<winnerId>", to both players
// opponent-left: {"playerId": string}, when a room is abandoned before play
// error:         {"code", "message", "event"}, to the sender only
const (
	EventConnected    = "connected"
	EventPlayerJoined = "player-joined"
	EventStartGame    = "start-game"
	EventOpponentMove = "opponent-move"
	EventHit          = "hit"
	EventGameOver     = "game-over"
	EventOpponentLeft = "opponent-left"
	EventError        = "error"
)

// Error codes carried by the error event.
const (
	CodeInvalidPlacement = "invalid_placement"
	CodeAlreadyPlaced    = "already_placed"
	CodeInvalidProbe     = "invalid_probe"
	CodeInvalidPhase     = "invalid_phase"
	CodeNotYourTurn      = "not_your_turn"
	CodeRoomFull         = "room_full"
	CodeRoomNotFound     = "room_not_found"
	CodeInvalidRoomID    = "invalid_room_id"
	CodeAlreadyInRoom    = "already_in_room"
	CodeNotInRoom        = "not_in_room"
	CodeUnknownEvent     = "unknown_event"
	CodeBadJSON          = "bad_json"
	CodeInternal         = "internal"
)

type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// CellRequest is the payload of place-treasure and make-move. Cell is a
// pointer so a missing cell is told apart from cell 0.
type CellRequest struct {
	RoomID string `json:"roomId"`
	Cell   *int   `json:"cell"`
}

type Connected struct {
	PlayerID string `json:"playerId"`
}

type StartGame struct {
	FirstPlayerID string `json:"firstPlayerId"`
}

type OpponentLeft struct {
	PlayerID string `json:"playerId"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}
