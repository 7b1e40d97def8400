package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/engine"
)

// helper: run one command with a timeout so tests never hang
func do(t *testing.T, l *Lobby, cmd engine.Command) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := l.Do(ctx, cmd)
	if err != nil {
		t.Fatalf("%s %s: %v", cmd.Type, cmd.PlayerID, err)
	}
	return res
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func newPlayingLobby(t *testing.T, ctx context.Context) *Lobby {
	t.Helper()
	l := NewLobby(ctx, "r1", zap.NewNop())
	do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "A"})
	do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "B"})
	do(t, l, engine.Command{Type: engine.CmdPlaceTreasure, PlayerID: "A", Cell: 3})
	do(t, l, engine.Command{Type: engine.CmdPlaceTreasure, PlayerID: "B", Cell: 10})
	return l
}

func TestLobby_AcceptedCommandsBumpVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, "r1", zap.NewNop())

	first := do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "A"})
	require.NoError(t, first.Err)
	assert.Empty(t, first.Notifications)

	second := do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "B"})
	require.NoError(t, second.Err)
	assert.Len(t, second.Notifications, 3)
	assert.False(t, second.Closed)

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.Version != 2 {
		t.Fatalf("after two joins: want version=2, got %d", view.Version)
	}
	assert.Equal(t, engine.PhasePlacing, view.Snapshot.Phase)
}

func TestLobby_RejectedCommandKeepsVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, "r1", zap.NewNop())
	do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "A"})

	res := do(t, l, engine.Command{Type: engine.CmdProbe, PlayerID: "A", Cell: 0})
	require.ErrorIs(t, res.Err, engine.ErrInvalidPhase)
	assert.Empty(t, res.Notifications)

	view, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Version)
	assert.Equal(t, engine.PhaseWaiting, view.Snapshot.Phase)
}

func TestLobby_HitClosesLobby(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := newPlayingLobby(t, ctx)

	res := do(t, l, engine.Command{Type: engine.CmdProbe, PlayerID: "A", Cell: 10})
	require.NoError(t, res.Err)
	assert.True(t, res.Closed)
	assert.True(t, engine.ContainsEvent(res.Notifications, engine.EvtGameOver))
	assert.True(t, l.Closed())

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby loop did not exit after the game ended")
	}

	_, err := l.Do(ctx, engine.Command{Type: engine.CmdProbe, PlayerID: "B", Cell: 3})
	require.ErrorIs(t, err, ErrClosed)
	_, err = l.State(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestLobby_LeaveWhilePlacingCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, "r1", zap.NewNop())
	do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "A"})
	do(t, l, engine.Command{Type: engine.CmdJoin, PlayerID: "B"})

	res := do(t, l, engine.Command{Type: engine.CmdLeave, PlayerID: "A"})
	require.NoError(t, res.Err)
	assert.True(t, res.Closed)
	assert.Equal(t, []engine.Notification{{To: "B", Type: engine.EvtOpponentLeft, PlayerID: "A"}}, res.Notifications)
}

func TestLobby_ConcurrentJoinsSeatExactlyTwo(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, "r1", zap.NewNop())

	const joiners = 32
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		seated int
		full   int
	)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			res, err := l.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: id})
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.Err == nil:
				seated++
			case errors.Is(res.Err, engine.ErrRoomFull):
				full++
			}
		}(fmt.Sprintf("p%d", i))
	}
	wg.Wait()

	assert.Equal(t, 2, seated)
	assert.Equal(t, joiners-2, full)
}

func TestLobby_Shutdown_StopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, "r1", zap.NewNop())
	l.Inbox() <- Shutdown{}

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby did not stop")
	}
	assert.True(t, l.Closed())

	_, err := l.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: "A"})
	require.ErrorIs(t, err, ErrClosed)
}

func TestLobby_ParentCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLobby(ctx, "r1", zap.NewNop())
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby did not stop on parent cancel")
	}
	assert.Equal(t, "r1", l.RoomID())
}

func TestLobby_QueuedCommandOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := newPlayingLobby(t, ctx)

	// Hold the loop on a GetState nobody reads yet.
	hold := make(chan View)
	l.Inbox() <- GetState{Reply: hold}

	callerCtx, callerCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer callerCancel()

	type outcome struct {
		res Result
		err error
	}
	got := make(chan outcome, 1)
	go func() {
		res, err := l.Do(callerCtx, engine.Command{Type: engine.CmdProbe, PlayerID: "A", Cell: 10})
		got <- outcome{res, err}
	}()

	<-callerCtx.Done()
	recvView(t, hold, time.Second)

	select {
	case o := <-got:
		require.NoError(t, o.err)
		require.NoError(t, o.res.Err)
		assert.True(t, o.res.Closed)
		assert.Equal(t, 2, engine.CountEvent(o.res.Notifications, engine.EvtGameOver))
	case <-time.After(time.Second):
		t.Fatalf("Do never returned")
	}
}
