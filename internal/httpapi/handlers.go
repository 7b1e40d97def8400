package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/hub"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/lobby"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/types"
	wire "github.com/DoyleJ11/treasure-hunt-backend/pkg/types"
)

const maxCodeAttempts = 16

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// CreateRoom hands out a room code nobody is playing in. The room itself
// is opened by the first join-room that names it.
func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for range maxCodeAttempts {
			code, err := GenerateCode()
			if err != nil {
				log.Error("generate code", zap.Error(err))
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}

			_, err = h.Resolve(r.Context(), code)
			switch {
			case errors.Is(err, hub.ErrRoomNotFound):
				writeJSON(w, http.StatusCreated, wire.NewRoom{RoomID: code})
				return
			case err != nil:
				writeHubError(w, err)
				return
			}
			log.Debug("collision on code, regenerating", zap.String("code", code))
		}
		http.Error(w, "failed to allocate room code", http.StatusServiceUnavailable)
	}
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbies, err := h.Lobbies(r.Context())
		if err != nil {
			writeHubError(w, err)
			return
		}

		rooms := make([]wire.RoomSnapshot, 0, len(lobbies))
		for _, lb := range lobbies {
			view, err := lb.State(r.Context())
			if errors.Is(err, lobby.ErrClosed) {
				continue
			}
			if err != nil {
				writeHubError(w, err)
				return
			}
			rooms = append(rooms, types.Snapshot(view))
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := url.PathUnescape(chi.URLParam(r, "roomID"))
		if err != nil {
			http.Error(w, "bad room id", http.StatusBadRequest)
			return
		}

		lb, err := h.Resolve(r.Context(), roomID)
		if err != nil {
			writeHubError(w, err)
			return
		}
		view, err := lb.State(r.Context())
		if err != nil {
			writeHubError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.Snapshot(view))
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeHubError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hub.ErrInvalidRoomID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, hub.ErrRoomNotFound), errors.Is(err, lobby.ErrClosed):
		http.Error(w, "room not found", http.StatusNotFound)
	case errors.Is(err, hub.ErrHubClosed):
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
