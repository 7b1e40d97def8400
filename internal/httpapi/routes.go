package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/dispatch"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/hub"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, d *dispatch.Dispatcher, wsOpts ws.Options, log *zap.Logger) http.Handler {
	log = log.Named("http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(requestLogger(log))
		r.Post("/rooms", CreateRoom(h, log))
		r.Get("/rooms", ListRooms(h))
		r.Get("/rooms/{roomID}", GetRoom(h))
		r.Get("/healthz", Healthz)
	})

	// The websocket handler logs its own connection lifecycle.
	r.Get("/ws", ws.Handler(d, wsOpts, log))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
