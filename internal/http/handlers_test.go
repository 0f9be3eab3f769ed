package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-calendar-agent/internal/application"
	"github.com/example/campus-calendar-agent/internal/orchestrator"
)

type directoryStub struct {
	resources []application.Resource
	err       error
}

func (d *directoryStub) ListResources(ctx context.Context) ([]application.Resource, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.resources, nil
}

func (d *directoryStub) GetResource(ctx context.Context, id string) (application.Resource, error) {
	if d.err != nil {
		return application.Resource{}, d.err
	}
	for _, resource := range d.resources {
		if resource.ID == id {
			return resource, nil
		}
	}
	return application.Resource{}, application.ErrNotFound
}

type ledgerStub struct {
	availability application.Availability
	event        application.Event
	events       []application.Event
	err          error

	createdInput application.EventInput
	cancelledID  string
	requester    string
}

func (l *ledgerStub) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeEventID string) (application.Availability, error) {
	if l.err != nil {
		return application.Availability{}, l.err
	}
	return l.availability, nil
}

func (l *ledgerStub) CreateEvent(ctx context.Context, input application.EventInput) (application.Event, error) {
	l.createdInput = input
	if l.err != nil {
		return application.Event{}, l.err
	}
	return l.event, nil
}

func (l *ledgerStub) UpdateEvent(ctx context.Context, id string, patch application.EventPatch, requester string) (application.Event, error) {
	l.requester = requester
	if l.err != nil {
		return application.Event{}, l.err
	}
	return l.event, nil
}

func (l *ledgerStub) CancelEvent(ctx context.Context, id, requester string) (application.Event, error) {
	l.cancelledID = id
	l.requester = requester
	if l.err != nil {
		return application.Event{}, l.err
	}
	return l.event, nil
}

func (l *ledgerStub) GetEvent(ctx context.Context, id string) (application.Event, error) {
	if l.err != nil {
		return application.Event{}, l.err
	}
	return l.event, nil
}

func (l *ledgerStub) ListEvents(ctx context.Context, resourceID string) ([]application.Event, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.events, nil
}

type conversationStub struct {
	reply string
	err   error

	received string
}

func (c *conversationStub) Send(ctx context.Context, text string) (string, error) {
	c.received = text
	return c.reply, c.err
}

func sampleEvent() application.Event {
	start := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)
	return application.Event{
		ID:         "event-1",
		ResourceID: "room-101",
		Title:      "Team Sync",
		Start:      start,
		End:        start.Add(time.Hour),
		Organizer:  "alice@example.edu",
		Attendees:  []string{"alice@example.edu"},
		Status:     application.EventStatusConfirmed,
		CreatedAt:  start,
		UpdatedAt:  start,
	}
}

func newTestRouter(directory *directoryStub, ledger *ledgerStub, chat *conversationStub) http.Handler {
	cfg := RouterConfig{
		Calendars: NewCalendarHandler(directory, ledger, nil),
	}
	if chat != nil {
		cfg.Chat = NewChatHandler(chat, nil)
	}
	return NewRouter(cfg)
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestCalendarHandler_ListCalendars(t *testing.T) {
	directory := &directoryStub{resources: []application.Resource{
		{ID: "room-101", Name: "Lecture Hall A", Capacity: 120},
		{ID: "room-102", Name: "Seminar Room B", Capacity: 20},
	}}
	router := newTestRouter(directory, &ledgerStub{}, nil)

	recorder := doRequest(t, router, http.MethodGet, "/calendars", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var body listCalendarsResponse
	decodeBody(t, recorder, &body)
	if len(body.Calendars) != 2 {
		t.Fatalf("expected 2 calendars, got %d", len(body.Calendars))
	}
	if body.Calendars[0].ID != "room-101" {
		t.Fatalf("unexpected first calendar %q", body.Calendars[0].ID)
	}
}

func TestCalendarHandler_CreateEvent(t *testing.T) {
	t.Run("books an event", func(t *testing.T) {
		ledger := &ledgerStub{event: sampleEvent()}
		router := newTestRouter(&directoryStub{}, ledger, nil)

		recorder := doRequest(t, router, http.MethodPost, "/calendars/room-101/events", `{
			"title": "Team Sync",
			"start": "2025-09-02T10:00:00Z",
			"end": "2025-09-02T11:00:00Z",
			"organizer": "alice@example.edu"
		}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if ledger.createdInput.ResourceID != "room-101" {
			t.Fatalf("expected calendar id from the path, got %q", ledger.createdInput.ResourceID)
		}

		var body eventResponse
		decodeBody(t, recorder, &body)
		if body.Event.ID != "event-1" {
			t.Fatalf("unexpected event %q", body.Event.ID)
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, nil)

		recorder := doRequest(t, router, http.MethodPost, "/calendars/room-101/events", "{not json")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("maps validation failures to field errors", func(t *testing.T) {
		vErr := &application.ValidationError{FieldErrors: map[string]string{"title": "title is required"}}
		router := newTestRouter(&directoryStub{}, &ledgerStub{err: vErr}, nil)

		recorder := doRequest(t, router, http.MethodPost, "/calendars/room-101/events", `{"organizer":"a@example.edu"}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}

		var body errorResponse
		decodeBody(t, recorder, &body)
		if body.Errors["title"] != "title is required" {
			t.Fatalf("expected field errors, got %+v", body)
		}
	})

	t.Run("maps booking conflicts to 409 with details", func(t *testing.T) {
		conflict := &application.ConflictError{ResourceID: "room-101", Conflicts: []application.Event{sampleEvent()}}
		router := newTestRouter(&directoryStub{}, &ledgerStub{err: conflict}, nil)

		recorder := doRequest(t, router, http.MethodPost, "/calendars/room-101/events", `{
			"title": "Clash",
			"start": "2025-09-02T10:30:00Z",
			"end": "2025-09-02T11:30:00Z",
			"organizer": "alice@example.edu"
		}`)
		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}

		var body conflictResponse
		decodeBody(t, recorder, &body)
		if len(body.Conflicts) != 1 || body.Conflicts[0].ID != "event-1" {
			t.Fatalf("expected conflicting event attached, got %+v", body)
		}
	})

	t.Run("maps transport failures to 502", func(t *testing.T) {
		transport := &application.TransportError{Op: "event store", Err: errors.New("connection refused")}
		router := newTestRouter(&directoryStub{}, &ledgerStub{err: transport}, nil)

		recorder := doRequest(t, router, http.MethodPost, "/calendars/room-101/events", `{
			"title": "Doomed",
			"start": "2025-09-02T10:00:00Z",
			"end": "2025-09-02T11:00:00Z",
			"organizer": "alice@example.edu"
		}`)
		if recorder.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", recorder.Code)
		}
	})
}

func TestCalendarHandler_ListEvents(t *testing.T) {
	t.Run("all spans every calendar", func(t *testing.T) {
		ledger := &ledgerStub{events: []application.Event{sampleEvent()}}
		router := newTestRouter(&directoryStub{}, ledger, nil)

		recorder := doRequest(t, router, http.MethodGet, "/calendars/all/events", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var body listEventsResponse
		decodeBody(t, recorder, &body)
		if len(body.Events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(body.Events))
		}
	})

	t.Run("unknown calendar answers 404", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{err: application.ErrNotFound}, nil)

		recorder := doRequest(t, router, http.MethodGet, "/calendars/no-such-room/events", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})
}

func TestCalendarHandler_GetEvent(t *testing.T) {
	t.Run("returns the event", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{event: sampleEvent()}, nil)

		recorder := doRequest(t, router, http.MethodGet, "/calendars/room-101/events/event-1", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var body eventResponse
		decodeBody(t, recorder, &body)
		if body.Event.Title != "Team Sync" {
			t.Fatalf("unexpected event %+v", body.Event)
		}
	})

	t.Run("unknown event answers 404", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{err: application.ErrNotFound}, nil)

		recorder := doRequest(t, router, http.MethodGet, "/calendars/room-101/events/ghost", "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})
}

func TestCalendarHandler_UpdateEvent(t *testing.T) {
	t.Run("applies a patch for the organizer", func(t *testing.T) {
		ledger := &ledgerStub{event: sampleEvent()}
		router := newTestRouter(&directoryStub{}, ledger, nil)

		recorder := doRequest(t, router, http.MethodPut, "/calendars/room-101/events/event-1", `{
			"requester": "alice@example.edu",
			"title": "Renamed"
		}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if ledger.requester != "alice@example.edu" {
			t.Fatalf("expected requester forwarded, got %q", ledger.requester)
		}
	})

	t.Run("requires a requester", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, nil)

		recorder := doRequest(t, router, http.MethodPut, "/calendars/room-101/events/event-1", `{"title":"Renamed"}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("rejects a malformed timestamp in the patch", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, nil)

		recorder := doRequest(t, router, http.MethodPut, "/calendars/room-101/events/event-1", `{
			"requester": "alice@example.edu",
			"start": "next tuesday"
		}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("non-organizer answers 403 with a code", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{err: application.ErrUnauthorized}, nil)

		recorder := doRequest(t, router, http.MethodPut, "/calendars/room-101/events/event-1", `{
			"requester": "mallory@example.edu",
			"title": "Hijack"
		}`)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}

		var body errorResponse
		decodeBody(t, recorder, &body)
		if body.ErrorCode != "AUTH_FORBIDDEN" {
			t.Fatalf("expected AUTH_FORBIDDEN, got %+v", body)
		}
	})
}

func TestCalendarHandler_CancelEvent(t *testing.T) {
	t.Run("cancels for the organizer", func(t *testing.T) {
		ledger := &ledgerStub{event: sampleEvent()}
		router := newTestRouter(&directoryStub{}, ledger, nil)

		recorder := doRequest(t, router, http.MethodDelete, "/calendars/room-101/events/event-1?requester=alice%40example.edu", "")
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if ledger.cancelledID != "event-1" || ledger.requester != "alice@example.edu" {
			t.Fatalf("unexpected cancel call %q by %q", ledger.cancelledID, ledger.requester)
		}
	})

	t.Run("requires a requester", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, nil)

		recorder := doRequest(t, router, http.MethodDelete, "/calendars/room-101/events/event-1", "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})
}

func TestCalendarHandler_CheckAvailability(t *testing.T) {
	t.Run("reports a busy window", func(t *testing.T) {
		start := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)
		ledger := &ledgerStub{availability: application.Availability{
			ResourceID: "room-101",
			Start:      start,
			End:        start.Add(time.Hour),
			Available:  false,
			Conflicts:  []application.Event{sampleEvent()},
		}}
		router := newTestRouter(&directoryStub{}, ledger, nil)

		recorder := doRequest(t, router, http.MethodGet,
			"/calendars/room-101/availability?start=2025-09-02T10:00:00Z&end=2025-09-02T11:00:00Z", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var body availabilityResponse
		decodeBody(t, recorder, &body)
		if body.Available {
			t.Fatalf("expected busy window, got %+v", body)
		}
		if len(body.Conflicts) != 1 {
			t.Fatalf("expected conflicting event attached, got %+v", body)
		}
	})

	t.Run("requires parseable bounds", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, nil)

		recorder := doRequest(t, router, http.MethodGet, "/calendars/room-101/availability?start=sometime", "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})
}

func TestChatHandler_Send(t *testing.T) {
	t.Run("relays the reply", func(t *testing.T) {
		chat := &conversationStub{reply: "Lecture Hall A is free at 10."}
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, chat)

		recorder := doRequest(t, router, http.MethodPost, "/chat", `{"message":"is the lecture hall free at 10?"}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if chat.received != "is the lecture hall free at 10?" {
			t.Fatalf("unexpected relayed message %q", chat.received)
		}

		var body chatResponse
		decodeBody(t, recorder, &body)
		if body.Reply != "Lecture Hall A is free at 10." {
			t.Fatalf("unexpected reply %q", body.Reply)
		}
	})

	t.Run("requires a message", func(t *testing.T) {
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, &conversationStub{})

		recorder := doRequest(t, router, http.MethodPost, "/chat", `{"message":"   "}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("a busy conversation answers 409 with a wait reply", func(t *testing.T) {
		chat := &conversationStub{reply: orchestrator.BusyReply(), err: orchestrator.ErrBusy}
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, chat)

		recorder := doRequest(t, router, http.MethodPost, "/chat", `{"message":"another one"}`)
		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}

		var body chatResponse
		decodeBody(t, recorder, &body)
		if body.Reply == "" {
			t.Fatalf("expected a wait reply")
		}
	})

	t.Run("degraded conversations still answer 200", func(t *testing.T) {
		chat := &conversationStub{reply: "I'm sorry, something went wrong.", err: errors.New("engine down")}
		router := newTestRouter(&directoryStub{}, &ledgerStub{}, chat)

		recorder := doRequest(t, router, http.MethodPost, "/chat", `{"message":"hello"}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}

		var body chatResponse
		decodeBody(t, recorder, &body)
		if body.Reply == "" {
			t.Fatalf("expected a readable reply")
		}
	})
}

func TestRouter_Methods(t *testing.T) {
	router := newTestRouter(&directoryStub{}, &ledgerStub{event: sampleEvent()}, &conversationStub{reply: "ok"})

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"calendars rejects POST", http.MethodPost, "/calendars", http.StatusMethodNotAllowed},
		{"chat rejects GET", http.MethodGet, "/chat", http.StatusMethodNotAllowed},
		{"availability rejects POST", http.MethodPost, "/calendars/room-101/availability", http.StatusMethodNotAllowed},
		{"events rejects DELETE on the collection", http.MethodDelete, "/calendars/room-101/events", http.StatusMethodNotAllowed},
		{"unknown subtree answers 404", http.MethodGet, "/calendars/room-101/unknown", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doRequest(t, router, tc.method, tc.path, "")
			if recorder.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, recorder.Code)
			}
		})
	}
}
