package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// OrgDirectory exposes the organization directory reads the resolver needs.
type OrgDirectory interface {
	FindUser(ctx context.Context, key string) (User, error)
	GetEntity(ctx context.Context, entityType EntityType, id int64) (OrgEntity, error)
	ListEntities(ctx context.Context, entityType EntityType) ([]OrgEntity, error)
	FindEntityByName(ctx context.Context, name string) (OrgEntity, error)
}

// Patterns for the free-text fallback. "organized by X for Y" names the
// benefiting entity in the "for" clause, so that clause wins.
var (
	organizedForPattern = regexp.MustCompile(`(?i)organized by .+? for (?:the )?(.+?)(?:\.|,|$)`)
	organizedByPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)organized by the (.+?)(?:\.|,|$)`),
		regexp.MustCompile(`(?i)organized by (.+?)(?:\.|,|$)`),
	}
)

// AuthzService decides which organizational entities a requester may book on
// behalf of. Grants are derived per request from role-scope rules, never
// stored, so org-structure changes take effect immediately. Its core decision
// logic operates only on structured (entityType, entityID) pairs; free-text
// extraction is an isolated boundary fallback.
type AuthzService struct {
	directory OrgDirectory
	logger    *slog.Logger
}

// NewAuthzService wires dependencies for authorization decisions.
func NewAuthzService(directory OrgDirectory) *AuthzService {
	return NewAuthzServiceWithLogger(directory, nil)
}

// NewAuthzServiceWithLogger constructs an AuthzService with a specified logger.
func NewAuthzServiceWithLogger(directory OrgDirectory, logger *slog.Logger) *AuthzService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthzService{directory: directory, logger: logger}
}

// LookupUser finds a directory member by numeric id, email, or display name.
func (s *AuthzService) LookupUser(ctx context.Context, key string) (User, error) {
	if s == nil || s.directory == nil {
		return User{}, fmt.Errorf("authorization service not configured")
	}
	user, err := s.directory.FindUser(ctx, strings.TrimSpace(key))
	if err != nil {
		return User{}, mapOrgRepoError(err)
	}
	return user, nil
}

// ResolveBookingEntities computes the entities the user may book for.
//
// Department staff may book for their own department and for every course or
// society whose parent department matches theirs. Society officers may book
// only for the single society they are scoped to. Any other role yields an
// empty set; such users may still book resources as themselves.
func (s *AuthzService) ResolveBookingEntities(ctx context.Context, userKey string) ([]OrgEntity, error) {
	if s == nil || s.directory == nil {
		return nil, fmt.Errorf("authorization service not configured")
	}

	user, err := s.directory.FindUser(ctx, strings.TrimSpace(userKey))
	if err != nil {
		return nil, mapOrgRepoError(err)
	}

	switch user.RoleScope {
	case RoleDepartment, RoleStaff:
		return s.resolveDepartmentEntities(ctx, user.DepartmentID)
	case RoleSocietyOfficer:
		society, err := s.directory.GetEntity(ctx, EntityTypeSociety, user.ScopeID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return nil, nil
			}
			return nil, mapOrgRepoError(err)
		}
		return []OrgEntity{society}, nil
	default:
		return nil, nil
	}
}

// CanBookForEntity reports whether the user may book on behalf of the entity.
func (s *AuthzService) CanBookForEntity(ctx context.Context, userKey string, entityType EntityType, entityID int64) (bool, error) {
	entities, err := s.ResolveBookingEntities(ctx, userKey)
	if err != nil {
		return false, err
	}
	for _, entity := range entities {
		if entity.Type == entityType && entity.ID == entityID {
			return true, nil
		}
	}
	return false, nil
}

// ExtractEntityFromDescription pulls an entity name out of free text such as
// "organized by Alice Hill for Robotics Club". Best effort only; structured
// authorization never depends on it.
func (s *AuthzService) ExtractEntityFromDescription(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	if match := organizedForPattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	for _, pattern := range organizedByPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return strings.TrimSpace(match[1]), true
		}
	}
	return "", false
}

// ResolveNotificationAddress looks the extracted name up against the
// department, course and society directories using case-insensitive exact
// matching and returns the entity's contact address.
func (s *AuthzService) ResolveNotificationAddress(ctx context.Context, entityName string) (string, bool) {
	if s == nil || s.directory == nil {
		return "", false
	}
	name := strings.TrimSpace(entityName)
	if name == "" {
		return "", false
	}

	entity, err := s.directory.FindEntityByName(ctx, name)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			s.logger.WarnContext(ctx, "entity lookup failed", "entity", name, "error", err)
		}
		return "", false
	}
	return entity.Email, true
}

// ResolveAttendeeAddress satisfies the ledger's AttendeeResolver: it extracts
// the benefiting entity from the description and resolves its address,
// falling back to the organizer's own address.
func (s *AuthzService) ResolveAttendeeAddress(ctx context.Context, description, organizer string) string {
	if name, ok := s.ExtractEntityFromDescription(description); ok {
		if address, ok := s.ResolveNotificationAddress(ctx, name); ok {
			return address
		}
	}
	return organizer
}

func (s *AuthzService) resolveDepartmentEntities(ctx context.Context, departmentID int64) ([]OrgEntity, error) {
	var entities []OrgEntity

	department, err := s.directory.GetEntity(ctx, EntityTypeDepartment, departmentID)
	switch {
	case err == nil:
		entities = append(entities, department)
	case errors.Is(err, persistence.ErrNotFound):
		// Directory may be partially seeded; child entities can still match.
	default:
		return nil, mapOrgRepoError(err)
	}

	for _, entityType := range []EntityType{EntityTypeCourse, EntityTypeSociety} {
		children, err := s.directory.ListEntities(ctx, entityType)
		if err != nil {
			return nil, mapOrgRepoError(err)
		}
		for _, child := range children {
			if child.DepartmentID == departmentID {
				entities = append(entities, child)
			}
		}
	}

	return entities, nil
}

func mapOrgRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if IsTransport(err) {
		return err
	}
	return &TransportError{Op: "org directory", Err: err}
}
