package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-calendar-agent/internal/application"
)

type directoryService interface {
	ListResources(ctx context.Context) ([]application.Resource, error)
	GetResource(ctx context.Context, id string) (application.Resource, error)
}

type ledgerService interface {
	CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeEventID string) (application.Availability, error)
	CreateEvent(ctx context.Context, input application.EventInput) (application.Event, error)
	UpdateEvent(ctx context.Context, id string, patch application.EventPatch, requester string) (application.Event, error)
	CancelEvent(ctx context.Context, id, requester string) (application.Event, error)
	GetEvent(ctx context.Context, id string) (application.Event, error)
	ListEvents(ctx context.Context, resourceID string) ([]application.Event, error)
}

// CalendarHandler exposes the room catalog and the per-calendar booking
// operations.
type CalendarHandler struct {
	directory directoryService
	ledger    ledgerService
	responder responder
}

// NewCalendarHandler wires a handler over the directory and ledger services.
func NewCalendarHandler(directory directoryService, ledger ledgerService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		directory: directory,
		ledger:    ledger,
		responder: newResponder(logger),
	}
}

// ListCalendars returns every bookable resource.
func (h *CalendarHandler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resources, err := h.directory.ListResources(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCalendarsResponse{
		Calendars: toResourceDTOs(resources),
	})
}

// CreateEvent books a new event on the calendar named in the path.
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID, ok := CalendarIDFromContext(r.Context())
	if !ok || strings.TrimSpace(calendarID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCalendarID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.ledger.CreateEvent(r.Context(), application.EventInput{
		ResourceID:  calendarID,
		Title:       strings.TrimSpace(req.Title),
		Start:       parseTimestamp(req.Start),
		End:         parseTimestamp(req.End),
		Organizer:   strings.TrimSpace(req.Organizer),
		Description: req.Description,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{Event: toEventDTO(event)})
}

// ListEvents returns the bookings on one calendar.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID, ok := CalendarIDFromContext(r.Context())
	if !ok || strings.TrimSpace(calendarID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCalendarID)
		return
	}
	// "all" spans every calendar.
	if calendarID == "all" {
		calendarID = ""
	}

	events, err := h.ledger.ListEvents(r.Context(), calendarID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events)})
}

// GetEvent returns one booking by ID.
func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.ledger.GetEvent(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

// UpdateEvent applies an organizer-only patch to a booking.
func (h *CalendarHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	requester := strings.TrimSpace(req.Requester)
	if requester == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingOrganizer)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.ledger.UpdateEvent(r.Context(), eventID, patch, requester)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

// CancelEvent cancels a booking on behalf of its organizer. The record is
// kept with cancelled status rather than deleted.
func (h *CalendarHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	requester := strings.TrimSpace(r.URL.Query().Get("requester"))
	if requester == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingOrganizer)
		return
	}

	if _, err := h.ledger.CancelEvent(r.Context(), eventID, requester); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CheckAvailability reports whether a time window is free on one calendar.
func (h *CalendarHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	calendarID, ok := CalendarIDFromContext(r.Context())
	if !ok || strings.TrimSpace(calendarID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCalendarID)
		return
	}

	query := r.URL.Query()
	start := parseTimestamp(query.Get("start"))
	end := parseTimestamp(query.Get("end"))
	if start.IsZero() || end.IsZero() {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeWindow)
		return
	}

	availability, err := h.ledger.CheckAvailability(r.Context(), calendarID, start, end, "")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		ResourceID: availability.ResourceID,
		Start:      availability.Start.UTC().Format(time.RFC3339Nano),
		End:        availability.End.UTC().Format(time.RFC3339Nano),
		Available:  availability.Available,
		Conflicts:  toEventDTOs(availability.Conflicts),
	})
}

type eventRequest struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Organizer   string `json:"organizer"`
	Description string `json:"description"`
}

type eventPatchRequest struct {
	Requester   string  `json:"requester"`
	Title       *string `json:"title"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
	Description *string `json:"description"`
}

func (r eventPatchRequest) toPatch() (application.EventPatch, error) {
	patch := application.EventPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Start != nil {
		ts := parseTimestamp(*r.Start)
		if ts.IsZero() {
			return application.EventPatch{}, errInvalidTimeWindow
		}
		patch.Start = &ts
	}
	if r.End != nil {
		ts := parseTimestamp(*r.End)
		if ts.IsZero() {
			return application.EventPatch{}, errInvalidTimeWindow
		}
		patch.End = &ts
	}
	return patch, nil
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type eventResponse struct {
	Event eventDTO `json:"event"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type listCalendarsResponse struct {
	Calendars []resourceDTO `json:"calendars"`
}

type availabilityResponse struct {
	ResourceID string     `json:"resource_id"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Available  bool       `json:"available"`
	Conflicts  []eventDTO `json:"conflicts,omitempty"`
}

type eventDTO struct {
	ID          string   `json:"id"`
	ResourceID  string   `json:"resource_id"`
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Organizer   string   `json:"organizer"`
	Attendees   []string `json:"attendees,omitempty"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toEventDTO(event application.Event) eventDTO {
	return eventDTO{
		ID:          event.ID,
		ResourceID:  event.ResourceID,
		Title:       event.Title,
		Start:       event.Start.UTC().Format(time.RFC3339Nano),
		End:         event.End.UTC().Format(time.RFC3339Nano),
		Organizer:   event.Organizer,
		Attendees:   append([]string(nil), event.Attendees...),
		Description: event.Description,
		Status:      string(event.Status),
		CreatedAt:   event.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   event.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEventDTOs(events []application.Event) []eventDTO {
	if len(events) == 0 {
		return nil
	}
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event))
	}
	return out
}

type resourceDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location,omitempty"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment,omitempty"`
}

func toResourceDTO(resource application.Resource) resourceDTO {
	return resourceDTO{
		ID:        resource.ID,
		Name:      resource.Name,
		Location:  resource.Location,
		Capacity:  resource.Capacity,
		Equipment: append([]string(nil), resource.Equipment...),
	}
}

func toResourceDTOs(resources []application.Resource) []resourceDTO {
	if len(resources) == 0 {
		return nil
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}
