package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires the handlers and middleware into one router.
type RouterConfig struct {
	Calendars  *CalendarHandler
	Chat       *ChatHandler
	Health     http.HandlerFunc
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP surface:
//
//	GET    /health
//	GET    /calendars
//	GET    /calendars/{id}/availability
//	GET    /calendars/{id}/events
//	POST   /calendars/{id}/events
//	GET    /calendars/{id}/events/{eventId}
//	PUT    /calendars/{id}/events/{eventId}
//	DELETE /calendars/{id}/events/{eventId}
//	POST   /chat
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Health(w, r)
		})
	}

	if cfg.Chat != nil {
		mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Chat.Send(w, r)
		})
	}

	if cfg.Calendars != nil {
		mux.HandleFunc("/calendars", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendars.ListCalendars(w, r)
		})
		mux.HandleFunc("/calendars/", func(w http.ResponseWriter, r *http.Request) {
			cfg.Calendars.route(w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// route dispatches the /calendars/{id}/... subtree.
func (h *CalendarHandler) route(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/calendars/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}

	calendarID := segments[0]
	ctx := ContextWithCalendarID(r.Context(), calendarID)
	r = r.WithContext(ctx)

	switch {
	case len(segments) == 2 && segments[1] == "availability":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.CheckAvailability(w, r)

	case len(segments) == 2 && segments[1] == "events":
		switch r.Method {
		case http.MethodGet:
			h.ListEvents(w, r)
		case http.MethodPost:
			h.CreateEvent(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}

	case len(segments) == 3 && segments[1] == "events" && segments[2] != "":
		r = r.WithContext(ContextWithEventID(r.Context(), segments[2]))
		switch r.Method {
		case http.MethodGet:
			h.GetEvent(w, r)
		case http.MethodPut:
			h.UpdateEvent(w, r)
		case http.MethodDelete:
			h.CancelEvent(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}

	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
