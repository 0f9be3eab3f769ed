package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/campus-calendar-agent/internal/booking"
	"github.com/example/campus-calendar-agent/internal/notify"
	"github.com/example/campus-calendar-agent/internal/persistence"
)

// EventRepository captures the persistence interactions needed by the ledger.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListConfirmedEvents(ctx context.Context, resourceID string) ([]Event, error)
}

// ResourceCatalog exposes resource lookup operations.
type ResourceCatalog interface {
	GetResource(ctx context.Context, id string) (Resource, error)
}

// AttendeeResolver turns a free-text description into the notification
// address of the benefiting entity, falling back to the organizer.
type AttendeeResolver interface {
	ResolveAttendeeAddress(ctx context.Context, description, organizer string) string
}

// LedgerService owns bookings for resources: it checks availability, creates
// events, and applies organizer-only updates and cancellations. The conflict
// check and the subsequent write are serialized per resource so that two
// concurrent requests cannot both pass the check.
type LedgerService struct {
	events      EventRepository
	resources   ResourceCatalog
	attendees   AttendeeResolver
	publisher   notify.Publisher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedgerService wires dependencies for booking operations.
func NewLedgerService(events EventRepository, resources ResourceCatalog, attendees AttendeeResolver, publisher notify.Publisher, idGenerator func() string, now func() time.Time) *LedgerService {
	return NewLedgerServiceWithLogger(events, resources, attendees, publisher, idGenerator, now, nil)
}

// NewLedgerServiceWithLogger constructs a LedgerService with a specified logger.
func NewLedgerServiceWithLogger(events EventRepository, resources ResourceCatalog, attendees AttendeeResolver, publisher notify.Publisher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LedgerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		events:      events,
		resources:   resources,
		attendees:   attendees,
		publisher:   publisher,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}
}

// CheckAvailability reports whether the window [start, end) is free on the
// resource. Every overlapping confirmed event is returned, sorted by start
// time. When excludeEventID is non-empty that event is ignored, which lets an
// update tolerate overlap with its own prior slot.
func (s *LedgerService) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time, excludeEventID string) (Availability, error) {
	if s == nil || s.events == nil {
		return Availability{}, fmt.Errorf("ledger service not configured")
	}

	vErr := &ValidationError{}
	validateWindow(start, end, vErr)
	if strings.TrimSpace(resourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	if vErr.HasErrors() {
		return Availability{}, vErr
	}

	if s.resources != nil {
		if _, err := s.resources.GetResource(ctx, resourceID); err != nil {
			return Availability{}, mapLedgerRepoError(err)
		}
	}

	conflicts, err := s.findConflicts(ctx, resourceID, start, end, excludeEventID)
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		ResourceID: resourceID,
		Start:      start,
		End:        end,
		Available:  len(conflicts) == 0,
		Conflicts:  conflicts,
	}, nil
}

// CreateEvent validates the request, re-checks availability under the
// per-resource lock, persists the event, and publishes an event_created
// notification.
func (s *LedgerService) CreateEvent(ctx context.Context, input EventInput) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("ledger service not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(input.ResourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	if strings.TrimSpace(input.Organizer) == "" {
		vErr.add("organizer", "organizer is required")
	}
	validateWindow(input.Start, input.End, vErr)
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	if s.resources != nil {
		if _, err := s.resources.GetResource(ctx, input.ResourceID); err != nil {
			return Event{}, mapLedgerRepoError(err)
		}
	}

	unlock := s.lockResource(input.ResourceID)
	defer unlock()

	conflicts, err := s.findConflicts(ctx, input.ResourceID, input.Start, input.End, "")
	if err != nil {
		return Event{}, err
	}
	if len(conflicts) > 0 {
		return Event{}, &ConflictError{ResourceID: input.ResourceID, Conflicts: conflicts}
	}

	createdAt := s.now()
	event := Event{
		ID:          s.idGenerator(),
		ResourceID:  input.ResourceID,
		Title:       strings.TrimSpace(input.Title),
		Start:       input.Start,
		End:         input.End,
		Organizer:   input.Organizer,
		Attendees:   []string{s.resolveAttendee(ctx, input.Description, input.Organizer)},
		Description: input.Description,
		Status:      EventStatusConfirmed,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return Event{}, mapLedgerRepoError(err)
	}

	s.publish(ctx, notify.KindEventCreated, event, input.Organizer)
	return event, nil
}

// UpdateEvent applies an organizer-only patch. When the patch moves the event
// in time, availability is re-checked excluding the event's own slot.
func (s *LedgerService) UpdateEvent(ctx context.Context, id string, patch EventPatch, requester string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("ledger service not configured")
	}

	existing, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapLedgerRepoError(err)
	}

	if !sameIdentity(existing.Organizer, requester) {
		return Event{}, ErrUnauthorized
	}

	updated := existing
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Start != nil {
		updated.Start = *patch.Start
	}
	if patch.End != nil {
		updated.End = *patch.End
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}

	vErr := &ValidationError{}
	if updated.Title == "" {
		vErr.add("title", "title is required")
	}
	validateWindow(updated.Start, updated.End, vErr)
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	rescheduled := !updated.Start.Equal(existing.Start) || !updated.End.Equal(existing.End)

	unlock := s.lockResource(updated.ResourceID)
	defer unlock()

	if rescheduled {
		conflicts, err := s.findConflicts(ctx, updated.ResourceID, updated.Start, updated.End, updated.ID)
		if err != nil {
			return Event{}, err
		}
		if len(conflicts) > 0 {
			return Event{}, &ConflictError{ResourceID: updated.ResourceID, Conflicts: conflicts}
		}
	}

	updated.UpdatedAt = s.now()
	if err := s.events.UpdateEvent(ctx, updated); err != nil {
		return Event{}, mapLedgerRepoError(err)
	}

	kind := notify.KindEventUpdated
	if rescheduled {
		kind = notify.KindEventRescheduled
	}
	s.publish(ctx, kind, updated, requester)
	return updated, nil
}

// CancelEvent marks the event cancelled. Only the original organizer may
// cancel; the row is kept as history and no longer counts in conflict checks.
func (s *LedgerService) CancelEvent(ctx context.Context, id, requester string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("ledger service not configured")
	}

	existing, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapLedgerRepoError(err)
	}

	if !sameIdentity(existing.Organizer, requester) {
		return Event{}, ErrUnauthorized
	}

	if existing.Status == EventStatusCancelled {
		return existing, nil
	}

	existing.Status = EventStatusCancelled
	existing.UpdatedAt = s.now()
	if err := s.events.UpdateEvent(ctx, existing); err != nil {
		return Event{}, mapLedgerRepoError(err)
	}

	s.publish(ctx, notify.KindEventCancelled, existing, requester)
	return existing, nil
}

// GetEvent fetches a single event by id.
func (s *LedgerService) GetEvent(ctx context.Context, id string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("ledger service not configured")
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapLedgerRepoError(err)
	}
	return event, nil
}

// ListEvents enumerates confirmed events for a resource, or for every
// resource when resourceID is empty. Naming an unknown resource is
// ErrNotFound rather than an empty list.
func (s *LedgerService) ListEvents(ctx context.Context, resourceID string) ([]Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("ledger service not configured")
	}
	if resourceID != "" && s.resources != nil {
		if _, err := s.resources.GetResource(ctx, resourceID); err != nil {
			return nil, mapLedgerRepoError(err)
		}
	}
	events, err := s.events.ListConfirmedEvents(ctx, resourceID)
	if err != nil {
		return nil, mapLedgerRepoError(err)
	}
	return events, nil
}

func (s *LedgerService) findConflicts(ctx context.Context, resourceID string, start, end time.Time, excludeEventID string) ([]Event, error) {
	events, err := s.events.ListConfirmedEvents(ctx, resourceID)
	if err != nil {
		return nil, mapLedgerRepoError(err)
	}

	byID := make(map[string]Event, len(events))
	slots := make([]booking.Slot, 0, len(events))
	for _, event := range events {
		byID[event.ID] = event
		slots = append(slots, booking.Slot{
			EventID:    event.ID,
			ResourceID: event.ResourceID,
			Start:      event.Start,
			End:        event.End,
		})
	}

	overlapping := booking.DetectConflicts(slots, booking.Slot{
		ResourceID: resourceID,
		Start:      start,
		End:        end,
	}, excludeEventID)

	if len(overlapping) == 0 {
		return nil, nil
	}

	conflicts := make([]Event, 0, len(overlapping))
	for _, slot := range overlapping {
		conflicts = append(conflicts, byID[slot.EventID])
	}
	return conflicts, nil
}

// lockResource serializes the check+write pair per resource. Distinct
// resources proceed concurrently.
func (s *LedgerService) lockResource(resourceID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[resourceID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *LedgerService) resolveAttendee(ctx context.Context, description, organizer string) string {
	if s.attendees == nil {
		return organizer
	}
	return s.attendees.ResolveAttendeeAddress(ctx, description, organizer)
}

func (s *LedgerService) publish(ctx context.Context, kind notify.Kind, event Event, updatedBy string) {
	if s.publisher == nil {
		return
	}

	payload := notify.Notification{
		Event:       kind,
		Title:       event.Title,
		StartTime:   event.Start,
		EndTime:     event.End,
		ResourceID:  event.ResourceID,
		Organizer:   event.Organizer,
		Description: event.Description,
		UpdatedBy:   updatedBy,
	}
	if len(event.Attendees) > 0 {
		payload.AttendeeEmail = event.Attendees[0]
	}

	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification", "kind", kind, "event_id", event.ID, "error", err)
	}
}

func validateWindow(start, end time.Time, vErr *ValidationError) {
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("time", "start must be before end")
	}
}

func sameIdentity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func mapLedgerRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("id", "event already exists")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if IsTransport(err) {
		return err
	}
	return &TransportError{Op: "event store", Err: err}
}
