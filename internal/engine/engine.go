package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidPlacement = errors.New("invalid placement")
var ErrAlreadyPlaced = errors.New("treasure already placed")
var ErrInvalidProbe = errors.New("invalid probe")
var ErrInvalidPhase = errors.New("invalid phase")
var ErrRoomFull = errors.New("room full")
var ErrNotInRoom = errors.New("player not in room")
var ErrAlreadyJoined = errors.New("player already joined")
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrNotYourTurn is a turn mismatch during play; it matches ErrInvalidPhase.
var ErrNotYourTurn = fmt.Errorf("%w: not your turn", ErrInvalidPhase)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlacing  Phase = "placing"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type CommandType string

const (
	CmdJoin          CommandType = "Join"
	CmdPlaceTreasure CommandType = "PlaceTreasure"
	CmdProbe         CommandType = "Probe"
	CmdLeave         CommandType = "Leave"
)

/*
	CmdJoin          -> (second player) EvtPlayerJoined to first, EvtStartGame to both
	CmdPlaceTreasure -> nothing; the second placement moves the session to playing
	CmdProbe         -> EvtOpponentMove to the probed player
	                    on hit: EvtHit to the prober, EvtGameOver to both
	CmdLeave         -> EvtOpponentLeft to whoever is left when the room is abandoned before play
*/

type Command struct {
	Type     CommandType
	PlayerID string
	Cell     int
}

type EventType string

const (
	EvtPlayerJoined EventType = "player-joined"
	EvtStartGame    EventType = "start-game"
	EvtOpponentMove EventType = "opponent-move"
	EvtHit          EventType = "hit"
	EvtGameOver     EventType = "game-over"
	EvtOpponentLeft EventType = "opponent-left"
)

// Notification is one outbound delivery produced by a session transition.
// PlayerID carries the opponent, first player or winner depending on Type;
// Cell carries the board index for opponent-move and hit.
type Notification struct {
	To       string
	Type     EventType
	PlayerID string
	Cell     int
}

// Apply runs cmd against the session. A rejected command returns an error,
// no notifications, and leaves the session untouched.
func (s *Session) Apply(cmd Command) ([]Notification, error) {
	switch cmd.Type {
	case CmdJoin:
		return s.Join(cmd.PlayerID)
	case CmdPlaceTreasure:
		return s.PlaceTreasure(cmd.PlayerID, cmd.Cell)
	case CmdProbe:
		return s.Probe(cmd.PlayerID, cmd.Cell)
	case CmdLeave:
		return s.Leave(cmd.PlayerID)
	default:
		return nil, ErrUnsupportedCommand
	}
}
