package sqlite

import (
	"context"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// CreateResource inserts a new catalog entry.
func (s *Storage) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resources (id, name, location, capacity, equipment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		resource.ID,
		resource.Name,
		resource.Location,
		resource.Capacity,
		joinList(resource.Equipment),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	return mapError(err)
}

// GetResource retrieves a catalog entry by ID.
func (s *Storage) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, location, capacity, equipment, created_at, updated_at
		FROM resources
		WHERE id = ?
	`

	resource, err := scanResource(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}
	return resource, nil
}

// ListResources returns the full catalog ordered by name then ID.
func (s *Storage) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	query := `
		SELECT id, name, location, capacity, equipment, created_at, updated_at
		FROM resources
		ORDER BY name ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, mapError(err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resources, nil
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var (
		resource               persistence.Resource
		equipmentStr           string
		createdStr, updatedStr string
	)

	err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Location,
		&resource.Capacity,
		&equipmentStr,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Resource{}, err
	}

	resource.Equipment = splitList(equipmentStr)

	if resource.CreatedAt, err = parseTime(createdStr); err != nil {
		return persistence.Resource{}, err
	}
	if resource.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return persistence.Resource{}, err
	}
	return resource, nil
}
