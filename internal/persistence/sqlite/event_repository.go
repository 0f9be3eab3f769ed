package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// CreateEvent inserts a new booking.
func (s *Storage) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || event.ResourceID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO events (id, resource_id, title, start_time, end_time,
			organizer, attendees, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.ResourceID,
		event.Title,
		formatTime(event.Start),
		formatTime(event.End),
		event.Organizer,
		joinList(event.Attendees),
		event.Description,
		string(event.Status),
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return mapError(err)
}

// UpdateEvent replaces the stored row for the event's ID.
func (s *Storage) UpdateEvent(ctx context.Context, event persistence.Event) error {
	query := `
		UPDATE events
		SET resource_id = ?, title = ?, start_time = ?, end_time = ?,
			organizer = ?, attendees = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		event.ResourceID,
		event.Title,
		formatTime(event.Start),
		formatTime(event.End),
		event.Organizer,
		joinList(event.Attendees),
		event.Description,
		string(event.Status),
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEvent retrieves a booking by ID.
func (s *Storage) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, resource_id, title, start_time, end_time,
			organizer, attendees, description, status, created_at, updated_at
		FROM events
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}
	return event, nil
}

// ListEvents returns bookings matching the filter ordered by start time.
func (s *Storage) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	query := `
		SELECT id, resource_id, title, start_time, end_time,
			organizer, attendees, description, status, created_at, updated_at
		FROM events
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, mapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event                   persistence.Event
		startStr, endStr        string
		attendeesStr, statusStr string
		createdStr, updatedStr  string
	)

	err := row.Scan(
		&event.ID,
		&event.ResourceID,
		&event.Title,
		&startStr,
		&endStr,
		&event.Organizer,
		&attendeesStr,
		&event.Description,
		&statusStr,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	event.Attendees = splitList(attendeesStr)
	event.Status = persistence.EventStatus(statusStr)

	if event.Start, err = parseTime(startStr); err != nil {
		return persistence.Event{}, err
	}
	if event.End, err = parseTime(endStr); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}
