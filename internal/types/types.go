package types

import (
	"errors"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/engine"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/hub"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/lobby"
	wire "github.com/DoyleJ11/treasure-hunt-backend/pkg/types"
)

var ErrUnknownEvent = errors.New("unknown event")
var ErrBadJSON = errors.New("bad json")

func FromNotification(n engine.Notification) wire.ServerMessage {
	switch n.Type {
	case engine.EvtPlayerJoined:
		return wire.ServerMessage{Event: wire.EventPlayerJoined, Data: n.PlayerID}
	case engine.EvtStartGame:
		return wire.ServerMessage{Event: wire.EventStartGame, Data: wire.StartGame{FirstPlayerID: n.PlayerID}}
	case engine.EvtOpponentMove:
		return wire.ServerMessage{Event: wire.EventOpponentMove, Data: n.Cell}
	case engine.EvtHit:
		return wire.ServerMessage{Event: wire.EventHit, Data: n.Cell}
	case engine.EvtGameOver:
		return wire.ServerMessage{Event: wire.EventGameOver, Data: n.PlayerID}
	case engine.EvtOpponentLeft:
		return wire.ServerMessage{Event: wire.EventOpponentLeft, Data: wire.OpponentLeft{PlayerID: n.PlayerID}}
	default:
		return wire.ServerMessage{Event: string(n.Type)}
	}
}

// FromError builds the rejection sent back to whoever sent event.
func FromError(event string, err error) wire.ServerMessage {
	return wire.ServerMessage{
		Event: wire.EventError,
		Data: wire.Error{
			Code:    ErrorCode(err),
			Message: err.Error(),
			Event:   event,
		},
	}
}

func ErrorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidPlacement):
		return wire.CodeInvalidPlacement
	case errors.Is(err, engine.ErrAlreadyPlaced):
		return wire.CodeAlreadyPlaced
	case errors.Is(err, engine.ErrInvalidProbe):
		return wire.CodeInvalidProbe
	case errors.Is(err, engine.ErrNotYourTurn): // before ErrInvalidPhase, which it wraps
		return wire.CodeNotYourTurn
	case errors.Is(err, engine.ErrInvalidPhase):
		return wire.CodeInvalidPhase
	case errors.Is(err, engine.ErrRoomFull):
		return wire.CodeRoomFull
	case errors.Is(err, engine.ErrNotInRoom):
		return wire.CodeNotInRoom
	case errors.Is(err, engine.ErrAlreadyJoined), errors.Is(err, hub.ErrAlreadyInRoom):
		return wire.CodeAlreadyInRoom
	case errors.Is(err, hub.ErrRoomNotFound), errors.Is(err, lobby.ErrClosed):
		return wire.CodeRoomNotFound
	case errors.Is(err, hub.ErrInvalidRoomID):
		return wire.CodeInvalidRoomID
	case errors.Is(err, ErrUnknownEvent):
		return wire.CodeUnknownEvent
	case errors.Is(err, ErrBadJSON):
		return wire.CodeBadJSON
	default:
		return wire.CodeInternal
	}
}

func Snapshot(v lobby.View) wire.RoomSnapshot {
	s := v.Snapshot
	players := s.Players
	if players == nil {
		players = []string{}
	}
	return wire.RoomSnapshot{
		RoomID:  s.RoomID,
		Phase:   string(s.Phase),
		Players: players,
		Turn:    s.Turn,
		Placed:  s.Placed,
		Winner:  s.Winner,
		Version: v.Version,
	}
}
