package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/dispatch"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/types"
	wire "github.com/DoyleJ11/treasure-hunt-backend/pkg/types"
)

type Options struct {
	OriginPatterns  []string
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	OutboxSize      int
	MaxMessageBytes int64
	Clock           quartz.Clock
}

func Handler(d *dispatch.Dispatcher, opts Options, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(opts.MaxMessageBytes)

		playerID := uuid.NewString()
		plog := log.With(zap.String("player", playerID))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Created before Connect so the heartbeat exists by the time the
		// client sees its greeting.
		ticker := opts.Clock.NewTicker(opts.PingInterval, "ws", "ping")
		defer ticker.Stop()

		out := make(chan wire.ServerMessage, opts.OutboxSize)
		d.Connect(playerID, out)
		defer func() {
			leaveCtx, leaveCancel := context.WithTimeout(context.Background(), opts.WriteTimeout)
			defer leaveCancel()
			d.Disconnect(leaveCtx, playerID)
		}()

		// Writer goroutine
		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return

				case msg := <-out:
					wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := wsjson.Write(wctx, conn, msg)
					wcancel()
					if err != nil {
						plog.Debug("write failed", zap.String("event", msg.Event), zap.Error(err))
						return
					}

				case <-ticker.C:
					pctx, pcancel := context.WithTimeout(ctx, opts.WriteTimeout)
					err := conn.Ping(pctx)
					pcancel()
					if err != nil {
						plog.Info("heartbeat lost", zap.Error(err))
						_ = conn.CloseNow()
						return
					}
				}
			}
		}()

		plog.Info("connected", zap.String("remote", r.RemoteAddr))

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					plog.Info("disconnected")
				default:
					plog.Info("connection lost", zap.Error(err))
				}
				return
			}

			var cm wire.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				reject(out, plog, fmt.Errorf("%w: %v", types.ErrBadJSON, err))
				continue
			}

			d.Handle(ctx, playerID, cm.Event, cm.Data)
		}
	}
}

func reject(out chan<- wire.ServerMessage, log *zap.Logger, err error) {
	select {
	case out <- types.FromError("", err):
	default:
		log.Warn("outbox full, dropping error", zap.Error(err))
	}
}
