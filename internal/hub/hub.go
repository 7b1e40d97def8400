package hub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/engine"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/lobby"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrInvalidRoomID = errors.New("invalid room id")
var ErrAlreadyInRoom = errors.New("player already in a room")
var ErrHubClosed = errors.New("hub closed")

const MaxRoomIDLen = 64

const maxJoinAttempts = 3

type HubMsg interface{ isHubMsg() }

// JoinRoom finds or creates the lobby for RoomID and reserves a seat for
// PlayerID in it. The seat is taken in the lobby itself, outside the hub
// loop, so a busy room never holds up the others.
type JoinRoom struct {
	RoomID   string
	PlayerID string
	Reply    chan JoinResult
}

type JoinResult struct {
	Lobby *lobby.Lobby
	Err   error
}

// Unseat cancels a reservation the lobby refused.
type Unseat struct {
	PlayerID string
	Lobby    *lobby.Lobby
}

type GetLobby struct {
	RoomID string
	Reply  chan *lobby.Lobby
}

// RemoveLobby releases RoomID if it still maps to Lobby.
type RemoveLobby struct {
	RoomID string
	Lobby  *lobby.Lobby
}

// LeaveRoom forgets PlayerID and replies with the lobby it sat in, if any.
type LeaveRoom struct {
	PlayerID string
	Reply    chan *lobby.Lobby
}

type LeaveResult struct {
	RoomID        string
	Notifications []engine.Notification
}

type ListLobbies struct {
	Reply chan []*lobby.Lobby
}

type ShutdownHub struct{}

func (JoinRoom) isHubMsg()    {}
func (Unseat) isHubMsg()      {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (LeaveRoom) isHubMsg()   {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Hub is the matchmaker: it owns the room table and which room each player
// sits in. Everything goes through its inbox.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	players map[string]*lobby.Lobby
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		players: make(map[string]*lobby.Lobby),
		log:     log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case JoinRoom:
				msg.Reply <- h.reserve(msg.RoomID, msg.PlayerID)

			case Unseat:
				h.unseat(msg.PlayerID, msg.Lobby)

			case GetLobby:
				lb := h.lobbies[msg.RoomID]
				if lb != nil && lb.Closed() {
					lb = nil
				}
				msg.Reply <- lb // May be nil

			case RemoveLobby:
				if h.lobbies[msg.RoomID] == msg.Lobby {
					h.drop(msg.RoomID, msg.Lobby)
				}

			case LeaveRoom:
				lb := h.players[msg.PlayerID]
				delete(h.players, msg.PlayerID)
				msg.Reply <- lb // May be nil

			case ListLobbies:
				out := make([]*lobby.Lobby, 0, len(h.lobbies))
				for _, lb := range h.lobbies {
					out = append(out, lb)
				}
				sort.Slice(out, func(i, j int) bool { return out[i].RoomID() < out[j].RoomID() })
				msg.Reply <- out

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) reserve(roomID, playerID string) JoinResult {
	if cur := h.players[playerID]; cur != nil {
		if !cur.Closed() {
			return JoinResult{Err: fmt.Errorf("%w: %s", ErrAlreadyInRoom, cur.RoomID())}
		}
		// Session ended but the release has not arrived yet.
		h.drop(cur.RoomID(), cur)
	}

	lb := h.lobbies[roomID]
	if lb != nil && lb.Closed() {
		h.drop(roomID, lb)
		lb = nil
	}
	if lb == nil {
		lb = lobby.NewLobby(h.ctx, roomID, h.log)
		h.lobbies[roomID] = lb
		h.log.Info("room created", zap.String("room", roomID))
	}

	h.players[playerID] = lb
	return JoinResult{Lobby: lb}
}

// unseat drops playerID's reservation in lb. A room nobody holds a seat in
// has an empty session, so it is released too.
func (h *Hub) unseat(playerID string, lb *lobby.Lobby) {
	if h.players[playerID] == lb {
		delete(h.players, playerID)
	}
	for _, seated := range h.players {
		if seated == lb {
			return
		}
	}
	if h.lobbies[lb.RoomID()] == lb {
		h.drop(lb.RoomID(), lb)
	}
}

// drop forgets lb and everyone seated in it, and stops its loop.
func (h *Hub) drop(roomID string, lb *lobby.Lobby) {
	if h.lobbies[roomID] == lb {
		delete(h.lobbies, roomID)
		h.log.Info("room released", zap.String("room", roomID))
	}
	for id, seated := range h.players {
		if seated == lb {
			delete(h.players, id)
		}
	}
	lb.Stop()
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Stop()
	}
	clear(h.lobbies)
	clear(h.players)
	h.cancel()
}

func (h *Hub) send(ctx context.Context, msg HubMsg) error {
	select {
	case h.inbox <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, h *Hub, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-h.done:
		return zero, ErrHubClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Join seats playerID in roomID, creating the room if it is free.
func (h *Hub) Join(ctx context.Context, roomID, playerID string) (*lobby.Lobby, []engine.Notification, error) {
	id, err := NormalizeRoomID(roomID)
	if err != nil {
		return nil, nil, err
	}

	for attempt := 1; ; attempt++ {
		reply := make(chan JoinResult, 1)
		if err := h.send(ctx, JoinRoom{RoomID: id, PlayerID: playerID, Reply: reply}); err != nil {
			return nil, nil, err
		}
		res, err := await(ctx, h, reply)
		if err != nil {
			return nil, nil, err
		}
		if res.Err != nil {
			return nil, nil, res.Err
		}

		lb := res.Lobby
		out, err := lb.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: playerID})
		if err == nil && out.Err == nil {
			h.log.Debug("player joined", zap.String("room", id), zap.String("player", playerID))
			return lb, out.Notifications, nil
		}

		h.unseatAsync(playerID, lb)
		if err == nil {
			return nil, nil, out.Err
		}
		// The session ended between reserving and sitting down; the next
		// reservation gets a fresh room.
		if !errors.Is(err, lobby.ErrClosed) || attempt == maxJoinAttempts {
			return nil, nil, err
		}
	}
}

func (h *Hub) unseatAsync(playerID string, lb *lobby.Lobby) {
	_ = h.send(context.Background(), Unseat{PlayerID: playerID, Lobby: lb})
}

// Resolve returns the live lobby for roomID.
func (h *Hub) Resolve(ctx context.Context, roomID string) (*lobby.Lobby, error) {
	id, err := NormalizeRoomID(roomID)
	if err != nil {
		return nil, err
	}
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, GetLobby{RoomID: id, Reply: reply}); err != nil {
		return nil, err
	}
	lb, err := await(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, ErrRoomNotFound
	}
	return lb, nil
}

// Release frees roomID if it is still served by lb.
func (h *Hub) Release(ctx context.Context, lb *lobby.Lobby) error {
	return h.send(ctx, RemoveLobby{RoomID: lb.RoomID(), Lobby: lb})
}

// Leave handles a disconnect and returns what the remaining player should
// be told.
func (h *Hub) Leave(ctx context.Context, playerID string) (LeaveResult, error) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, LeaveRoom{PlayerID: playerID, Reply: reply}); err != nil {
		return LeaveResult{}, err
	}
	lb, err := await(ctx, h, reply)
	if err != nil || lb == nil {
		return LeaveResult{}, err
	}
	roomID := lb.RoomID()

	res, err := lb.Do(ctx, engine.Command{Type: engine.CmdLeave, PlayerID: playerID})
	switch {
	case errors.Is(err, lobby.ErrClosed):
		_ = h.Release(context.WithoutCancel(ctx), lb)
		return LeaveResult{RoomID: roomID}, nil
	case err != nil:
		return LeaveResult{RoomID: roomID}, err
	case res.Closed:
		_ = h.Release(context.WithoutCancel(ctx), lb)
	}
	return LeaveResult{RoomID: roomID, Notifications: res.Notifications}, nil
}

func (h *Hub) Lobbies(ctx context.Context) ([]*lobby.Lobby, error) {
	reply := make(chan []*lobby.Lobby, 1)
	if err := h.send(ctx, ListLobbies{Reply: reply}); err != nil {
		return nil, err
	}
	return await(ctx, h, reply)
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.done:
	}
}

// NormalizeRoomID trims and NFC-normalizes a client supplied room id so
// equivalent spellings land in the same room.
func NormalizeRoomID(raw string) (string, error) {
	id := norm.NFC.String(strings.TrimSpace(raw))
	n := utf8.RuneCountInString(id)
	if n == 0 || n > MaxRoomIDLen || !utf8.ValidString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomID, raw)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidRoomID, raw)
		}
	}
	return id, nil
}
