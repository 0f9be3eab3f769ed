package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/campus-calendar-agent/internal/application"
)

// BookingTools bundles the services the standard tool set delegates to.
type BookingTools struct {
	Directory *application.DirectoryService
	Ledger    *application.LedgerService
	Authz     *application.AuthzService
}

// RegisterBookingTools installs the standard calendar tool set on the
// registry. Handlers only convert arguments and results; all booking and
// authorization logic stays in the services.
func RegisterBookingTools(registry *Registry, tools BookingTools) {
	registry.Register("get_rooms", tools.getRooms)
	registry.Register("get_events", tools.getEvents)
	registry.Register("check_room_availability", tools.checkRoomAvailability)
	registry.Register("schedule_event", tools.scheduleEvent)
	registry.Register("update_event", tools.updateEvent)
	registry.Register("cancel_event", tools.cancelEvent)
	registry.Register("get_booking_entities", tools.getBookingEntities)
	registry.Register("check_booking_permission", tools.checkBookingPermission)
}

type availabilityArgs struct {
	RoomID    string `json:"room_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type scheduleEventArgs struct {
	RoomID      string `json:"room_id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Organizer   string `json:"organizer"`
	Description string `json:"description"`
}

type updateEventArgs struct {
	EventID     string  `json:"event_id"`
	UserID      string  `json:"user_id"`
	Title       *string `json:"title"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Description *string `json:"description"`
}

type cancelEventArgs struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}

type listEventsArgs struct {
	RoomID string `json:"room_id"`
}

type entityArgs struct {
	UserID     string `json:"user_id"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
}

func (t BookingTools) getRooms(ctx context.Context, _ json.RawMessage) Result {
	if t.Directory == nil {
		return Result{Success: false, Error: "room directory is not available"}
	}
	rooms, err := t.Directory.ListResources(ctx)
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"rooms": rooms, "total_rooms": len(rooms)}}
}

func (t BookingTools) getEvents(ctx context.Context, raw json.RawMessage) Result {
	if t.Ledger == nil {
		return Result{Success: false, Error: "booking ledger is not available"}
	}

	var args listEventsArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return Result{Success: false, Error: "invalid arguments: " + err.Error()}
		}
	}
	if args.RoomID == "all" {
		args.RoomID = ""
	}

	events, err := t.Ledger.ListEvents(ctx, args.RoomID)
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"events": events, "total_events": len(events)}}
}

func (t BookingTools) checkRoomAvailability(ctx context.Context, raw json.RawMessage) Result {
	if t.Ledger == nil {
		return Result{Success: false, Error: "booking ledger is not available"}
	}

	var args availabilityArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Success: false, Error: "invalid arguments: " + err.Error()}
	}
	start, end, result := parseWindow(args.StartTime, args.EndTime)
	if result != nil {
		return *result
	}

	availability, err := t.Ledger.CheckAvailability(ctx, args.RoomID, start, end, "")
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: availability}
}

func (t BookingTools) scheduleEvent(ctx context.Context, raw json.RawMessage) Result {
	if t.Ledger == nil {
		return Result{Success: false, Error: "booking ledger is not available"}
	}

	var args scheduleEventArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Success: false, Error: "invalid arguments: " + err.Error()}
	}
	start, end, result := parseWindow(args.StartTime, args.EndTime)
	if result != nil {
		return *result
	}

	organizer := args.Organizer
	if t.Authz != nil {
		if user, err := t.Authz.LookupUser(ctx, args.Organizer); err == nil {
			organizer = user.Email
		} else if !errors.Is(err, application.ErrNotFound) {
			return errorResult(err)
		}
	}

	event, err := t.Ledger.CreateEvent(ctx, application.EventInput{
		ResourceID:  args.RoomID,
		Title:       args.Title,
		Start:       start,
		End:         end,
		Organizer:   organizer,
		Description: args.Description,
	})
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"event": event}}
}

func (t BookingTools) updateEvent(ctx context.Context, raw json.RawMessage) Result {
	if t.Ledger == nil {
		return Result{Success: false, Error: "booking ledger is not available"}
	}

	var args updateEventArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Success: false, Error: "invalid arguments: " + err.Error()}
	}

	patch := application.EventPatch{
		Title:       args.Title,
		Description: args.Description,
	}
	if args.StartTime != nil {
		start, err := time.Parse(time.RFC3339, *args.StartTime)
		if err != nil {
			return Result{Success: false, Error: "start_time must be an ISO 8601 timestamp"}
		}
		patch.Start = &start
	}
	if args.EndTime != nil {
		end, err := time.Parse(time.RFC3339, *args.EndTime)
		if err != nil {
			return Result{Success: false, Error: "end_time must be an ISO 8601 timestamp"}
		}
		patch.End = &end
	}

	event, err := t.Ledger.UpdateEvent(ctx, args.EventID, patch, args.UserID)
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"event": event}}
}

func (t BookingTools) cancelEvent(ctx context.Context, raw json.RawMessage) Result {
	if t.Ledger == nil {
		return Result{Success: false, Error: "booking ledger is not available"}
	}

	var args cancelEventArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Success: false, Error: "invalid arguments: " + err.Error()}
	}

	event, err := t.Ledger.CancelEvent(ctx, args.EventID, args.UserID)
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"event": event}}
}

func (t BookingTools) getBookingEntities(ctx context.Context, raw json.RawMessage) Result {
	if t.Authz == nil {
		return Result{Success: false, Error: "authorization resolver is not available"}
	}

	var args entityArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Success: false, Error: "invalid arguments: " + err.Error()}
	}

	entities, err := t.Authz.ResolveBookingEntities(ctx, args.UserID)
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"entities": entities, "total_entities": len(entities)}}
}

func (t BookingTools) checkBookingPermission(ctx context.Context, raw json.RawMessage) Result {
	if t.Authz == nil {
		return Result{Success: false, Error: "authorization resolver is not available"}
	}

	var args entityArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return Result{Success: false, Error: "invalid arguments: " + err.Error()}
	}

	allowed, err := t.Authz.CanBookForEntity(ctx, args.UserID, application.EntityType(args.EntityType), args.EntityID)
	if err != nil {
		return errorResult(err)
	}
	return Result{Success: true, Data: map[string]any{"allowed": allowed}}
}

func parseWindow(startValue, endValue string) (time.Time, time.Time, *Result) {
	start, err := time.Parse(time.RFC3339, startValue)
	if err != nil {
		return time.Time{}, time.Time{}, &Result{Success: false, Error: "start_time must be an ISO 8601 timestamp"}
	}
	end, err := time.Parse(time.RFC3339, endValue)
	if err != nil {
		return time.Time{}, time.Time{}, &Result{Success: false, Error: "end_time must be an ISO 8601 timestamp"}
	}
	return start, end, nil
}

// errorResult maps service errors into structured tool results. Validation,
// authorization, conflict and not-found outcomes are resolved here rather
// than crossing the tool boundary as errors.
func errorResult(err error) Result {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return Result{Success: false, Error: vErr.Error(), Data: map[string]any{"field_errors": vErr.FieldErrors}}
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		return Result{Success: false, Error: cErr.Error(), Data: map[string]any{"conflicts": cErr.Conflicts}}
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		return Result{Success: false, Error: "you do not have permission to perform this action"}
	case errors.Is(err, application.ErrNotFound):
		return Result{Success: false, Error: "the requested room, event or user was not found"}
	case application.IsTransport(err):
		return Result{Success: false, Error: "the calendar service is currently unavailable"}
	default:
		return Result{Success: false, Error: err.Error()}
	}
}
