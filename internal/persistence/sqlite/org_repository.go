package sqlite

import (
	"context"
	"strconv"
	"strings"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// CreateUser inserts a directory member.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	query := `
		INSERT INTO users (id, name, email, role_scope, department_id, scope_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.RoleScope,
		user.DepartmentID,
		user.ScopeID,
	)
	return mapError(err)
}

// GetUser retrieves a directory member by ID.
func (s *Storage) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	query := `
		SELECT id, name, email, role_scope, department_id, scope_id
		FROM users
		WHERE id = ?
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// FindUser retrieves a directory member by numeric ID, email, or name. The
// email and name comparisons are case-insensitive.
func (s *Storage) FindUser(ctx context.Context, key string) (persistence.User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return s.GetUser(ctx, id)
	}

	query := `
		SELECT id, name, email, role_scope, department_id, scope_id
		FROM users
		WHERE email = ? COLLATE NOCASE OR name = ? COLLATE NOCASE
		LIMIT 1
	`

	user, err := scanUser(s.db.QueryRowContext(ctx, query, key, key))
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// CreateEntity inserts an organizational entity.
func (s *Storage) CreateEntity(ctx context.Context, entity persistence.OrgEntity) error {
	query := `
		INSERT INTO org_entities (entity_type, id, name, email, department_id)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(entity.Type),
		entity.ID,
		entity.Name,
		entity.Email,
		entity.DepartmentID,
	)
	return mapError(err)
}

// GetEntity retrieves an organizational entity by type and ID.
func (s *Storage) GetEntity(ctx context.Context, entityType persistence.EntityType, id int64) (persistence.OrgEntity, error) {
	query := `
		SELECT entity_type, id, name, email, department_id
		FROM org_entities
		WHERE entity_type = ? AND id = ?
	`

	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, string(entityType), id))
	if err != nil {
		return persistence.OrgEntity{}, mapError(err)
	}
	return entity, nil
}

// ListEntities returns all entities of one type ordered by ID.
func (s *Storage) ListEntities(ctx context.Context, entityType persistence.EntityType) ([]persistence.OrgEntity, error) {
	query := `
		SELECT entity_type, id, name, email, department_id
		FROM org_entities
		WHERE entity_type = ?
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(entityType))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entities []persistence.OrgEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, mapError(err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entities, nil
}

// FindEntityByName retrieves an entity of any type by case-insensitive name.
// Departments are preferred over courses and societies on a name tie.
func (s *Storage) FindEntityByName(ctx context.Context, name string) (persistence.OrgEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return persistence.OrgEntity{}, persistence.ErrNotFound
	}

	query := `
		SELECT entity_type, id, name, email, department_id
		FROM org_entities
		WHERE name = ? COLLATE NOCASE
		ORDER BY CASE entity_type
			WHEN 'department' THEN 0
			WHEN 'society' THEN 1
			ELSE 2
		END
		LIMIT 1
	`

	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return persistence.OrgEntity{}, mapError(err)
	}
	return entity, nil
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.RoleScope,
		&user.DepartmentID,
		&user.ScopeID,
	)
	if err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func scanEntity(row rowScanner) (persistence.OrgEntity, error) {
	var (
		entity  persistence.OrgEntity
		typeStr string
	)
	err := row.Scan(
		&typeStr,
		&entity.ID,
		&entity.Name,
		&entity.Email,
		&entity.DepartmentID,
	)
	if err != nil {
		return persistence.OrgEntity{}, err
	}
	entity.Type = persistence.EntityType(typeStr)
	return entity, nil
}
