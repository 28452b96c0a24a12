package http

import (
	"log/slog"
	"net/http"
	"strings"
)

// RouterConfig wires the three resource handlers into a single mux.
// Room and Participant mutations are always wrapped in RequireAdmin using
// AdminTokenHash; with an empty hash those mutations are refused (401
// without a bearer token, 503 with one).
type RouterConfig struct {
	Meetings       *MeetingHandler
	Rooms          *RoomHandler
	Participants   *ParticipantHandler
	AdminTokenHash string
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	admin := RequireAdmin(cfg.AdminTokenHash, cfg.Logger)

	if cfg.Meetings != nil {
		registerMeetingRoutes(mux, cfg.Meetings)
	}
	if cfg.Rooms != nil {
		registerRoomRoutes(mux, cfg.Rooms, admin)
	}
	if cfg.Participants != nil {
		registerParticipantRoutes(mux, cfg.Participants, admin)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func registerRoomRoutes(mux *http.ServeMux, h *RoomHandler, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			admin(http.HandlerFunc(h.Create)).ServeHTTP(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})
	mux.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithRoomID(r.Context(), id))
		switch r.Method {
		case http.MethodPut:
			admin(http.HandlerFunc(h.Update)).ServeHTTP(w, r)
		case http.MethodDelete:
			admin(http.HandlerFunc(h.Delete)).ServeHTTP(w, r)
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	})
}

func registerParticipantRoutes(mux *http.ServeMux, h *ParticipantHandler, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("/api/participants", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			admin(http.HandlerFunc(h.Create)).ServeHTTP(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})
	mux.HandleFunc("/api/participants/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/participants/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithParticipantID(r.Context(), id))
		switch r.Method {
		case http.MethodPut:
			admin(http.HandlerFunc(h.Update)).ServeHTTP(w, r)
		case http.MethodDelete:
			admin(http.HandlerFunc(h.Delete)).ServeHTTP(w, r)
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	})
}

// registerMeetingRoutes dispatches everything under /api/meetings. Fixed
// sub-paths (verification/*, availability, verify-batch, range, status/*,
// room/*) are checked before falling back to the {id}[/action] shape.
func registerMeetingRoutes(mux *http.ServeMux, h *MeetingHandler) {
	mux.HandleFunc("/api/meetings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})

	mux.HandleFunc("/api/meetings/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/meetings/")
		if rest == "" {
			http.NotFound(w, r)
			return
		}

		switch rest {
		case "verification/stats":
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.VerificationStats(w, r)
			return
		case "verification/violations":
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.VerificationViolations(w, r)
			return
		case "verification/check-pending":
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			h.CheckPending(w, r)
			return
		case "availability":
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Availability(w, r)
			return
		case "verify-batch":
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			h.VerifyBatch(w, r)
			return
		case "range":
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Range(w, r)
			return
		}

		if status, ok := cutPrefix(rest, "status/"); ok {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.ListByStatus(w, r, status)
			return
		}
		if roomID, ok := cutPrefix(rest, "room/"); ok {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.ListByRoom(w, r, roomID)
			return
		}

		id, action, hasAction := strings.Cut(rest, "/")
		r = r.WithContext(ContextWithMeetingID(r.Context(), id))

		if !hasAction {
			switch r.Method {
			case http.MethodGet:
				h.Get(w, r)
			case http.MethodPut:
				h.Update(w, r)
			case http.MethodDelete:
				h.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
			return
		}

		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		switch action {
		case "confirm":
			h.Confirm(w, r)
		case "reject":
			h.Reject(w, r)
		case "cancel":
			h.Cancel(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// cutPrefix reports whether s has the given prefix and, if so, returns the
// remainder. Unlike strings.CutPrefix it rejects an empty remainder, since
// every caller here expects an identifier after the prefix.
func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(s, prefix)
	if rest == "" {
		return "", false
	}
	return rest, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
