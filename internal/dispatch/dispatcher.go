// Package dispatch routes inbound client events to the matchmaker and room
// sessions, and fans the resulting notifications out to connected players.
// It does no rule checking of its own.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/engine"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/hub"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/types"
	wire "github.com/DoyleJ11/treasure-hunt-backend/pkg/types"
)

type Dispatcher struct {
	hub *hub.Hub
	log *zap.Logger

	mu       sync.RWMutex
	outboxes map[string]chan<- wire.ServerMessage
}

func New(h *hub.Hub, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		hub:      h,
		log:      log.Named("dispatch"),
		outboxes: make(map[string]chan<- wire.ServerMessage),
	}
}

// Connect registers the outbox for playerID and greets it with its id. The
// caller owns out and must keep draining it until Disconnect returns; the
// dispatcher never closes it.
func (d *Dispatcher) Connect(playerID string, out chan<- wire.ServerMessage) {
	d.mu.Lock()
	d.outboxes[playerID] = out
	d.mu.Unlock()

	d.log.Debug("player connected", zap.String("player", playerID))
	d.send(playerID, wire.ServerMessage{Event: wire.EventConnected, Data: wire.Connected{PlayerID: playerID}})
}

// Disconnect drops the outbox for playerID and tells the matchmaker the
// player has gone.
func (d *Dispatcher) Disconnect(ctx context.Context, playerID string) {
	d.mu.Lock()
	delete(d.outboxes, playerID)
	d.mu.Unlock()

	res, err := d.hub.Leave(ctx, playerID)
	if err != nil {
		d.log.Warn("leave failed", zap.String("player", playerID), zap.Error(err))
		return
	}
	d.log.Debug("player disconnected", zap.String("player", playerID), zap.String("room", res.RoomID))
	d.deliver(res.Notifications)
}

// Handle processes one inbound event from playerID. Failures are reported
// to playerID only.
func (d *Dispatcher) Handle(ctx context.Context, playerID, event string, payload json.RawMessage) {
	if err := d.handle(ctx, playerID, event, payload); err != nil {
		d.log.Debug("request rejected",
			zap.String("player", playerID),
			zap.String("event", event),
			zap.Error(err))
		d.send(playerID, types.FromError(event, err))
	}
}

func (d *Dispatcher) handle(ctx context.Context, playerID, event string, payload json.RawMessage) error {
	switch event {
	case wire.EventJoinRoom:
		var roomID string
		if err := json.Unmarshal(payload, &roomID); err != nil {
			return fmt.Errorf("%w: %v", hub.ErrInvalidRoomID, err)
		}
		_, notes, err := d.hub.Join(ctx, roomID, playerID)
		if err != nil {
			return err
		}
		d.deliver(notes)
		return nil

	case wire.EventPlaceTreasure:
		return d.apply(ctx, playerID, payload, engine.CmdPlaceTreasure, engine.ErrInvalidPlacement)

	case wire.EventMakeMove:
		return d.apply(ctx, playerID, payload, engine.CmdProbe, engine.ErrInvalidProbe)

	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownEvent, event)
	}
}

// apply runs a cell command in the payload's room. A payload that does not
// decode to a cell is reported as malformed.
func (d *Dispatcher) apply(ctx context.Context, playerID string, payload json.RawMessage, cmdType engine.CommandType, malformed error) error {
	var req wire.CellRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %v", malformed, err)
	}
	if req.Cell == nil {
		return fmt.Errorf("%w: missing cell", malformed)
	}

	lb, err := d.hub.Resolve(ctx, req.RoomID)
	if err != nil {
		return err
	}
	res, err := lb.Do(ctx, engine.Command{Type: cmdType, PlayerID: playerID, Cell: *req.Cell})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	// The command has run; finish the job even if the sender has gone.
	d.deliver(res.Notifications)
	if res.Closed {
		if err := d.hub.Release(context.WithoutCancel(ctx), lb); err != nil {
			d.log.Warn("release failed", zap.String("room", lb.RoomID()), zap.Error(err))
		}
	}
	return nil
}

func (d *Dispatcher) deliver(notes []engine.Notification) {
	for _, n := range notes {
		d.send(n.To, types.FromNotification(n))
	}
}

// send never blocks: a missing or full outbox loses the message.
func (d *Dispatcher) send(playerID string, msg wire.ServerMessage) {
	d.mu.RLock()
	out, ok := d.outboxes[playerID]
	d.mu.RUnlock()
	if !ok {
		d.log.Debug("no connection, dropping", zap.String("player", playerID), zap.String("event", msg.Event))
		return
	}

	select {
	case out <- msg:
	default:
		d.log.Warn("outbox full, dropping", zap.String("player", playerID), zap.String("event", msg.Event))
	}
}

// Connected reports whether playerID has a registered outbox.
func (d *Dispatcher) Connected(playerID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.outboxes[playerID]
	return ok
}
