package lobby

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/engine"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	Cmd   engine.Command
	Reply chan Result // must be buffered
}

func (FromClient) isLobbyMsg() {}

// Shutdown stops the loop from inside. The hub uses Stop; tests use this to
// check the loop exits on request.
type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Result is what one command did to the session. Closed means the session
// is over and the room should be released.
type Result struct {
	Notifications []engine.Notification
	Err           error
	Closed        bool
}

type View struct {
	Version  int
	Snapshot engine.Snapshot
}

// Lobby owns one room's session and applies commands to it one at a time.
type Lobby struct {
	roomID  string
	inbox   chan Msg
	session *engine.Session
	version int
	closed  atomic.Bool
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLobby(parent context.Context, roomID string, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		roomID:  roomID,
		inbox:   make(chan Msg, 64), // Small buffer
		session: engine.NewSession(roomID),
		log:     log.Named("lobby").With(zap.String("room", roomID)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	defer l.cancel()

	for {
		select {
		case <-l.ctx.Done():
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case FromClient:
				notes, err := l.session.Apply(msg.Cmd)
				if err != nil {
					l.log.Debug("command rejected",
						zap.String("cmd", string(msg.Cmd.Type)),
						zap.String("player", msg.Cmd.PlayerID),
						zap.Error(err))
				} else {
					l.version++
				}

				closed := l.session.Closed()
				if closed {
					l.closed.Store(true)
				}
				msg.Reply <- Result{Notifications: notes, Err: err, Closed: closed}

				if closed {
					snap := l.session.Snapshot()
					l.log.Info("session closed",
						zap.String("phase", string(snap.Phase)),
						zap.String("winner", snap.Winner),
						zap.Bool("abandoned", snap.Abandoned))
					return
				}

			case GetState:
				msg.Reply <- View{Version: l.version, Snapshot: l.session.Snapshot()}

			case Shutdown:
				return
			}
		}
	}
}

// Do applies cmd to the session and waits for the result. It returns
// ErrClosed once the session has ended. ctx only bounds the wait for a slot
// in the inbox: a queued command always runs, so its result is always
// returned.
func (l *Lobby) Do(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	select {
	case l.inbox <- FromClient{Cmd: cmd, Reply: reply}:
	case <-l.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-l.done:
		// The loop may have answered right before exiting.
		select {
		case res := <-reply:
			return res, nil
		default:
			return Result{}, ErrClosed
		}
	}
}

func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case l.inbox <- GetState{Reply: reply}:
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}

	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Stop ends the loop without waiting for it.
func (l *Lobby) Stop() { l.cancel() }

func (l *Lobby) RoomID() string { return l.roomID }

// Closed reports whether the session has ended or the lobby was stopped.
func (l *Lobby) Closed() bool {
	if l.closed.Load() {
		return true
	}
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *Lobby) Done() <-chan struct{} { return l.done }

// Inbox is a test hook for driving the loop directly, for example holding
// it busy on an unread GetState.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }
