package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

type orgDirectoryStub struct {
	users    map[string]User
	entities []OrgEntity

	findUserErr   error
	getEntityErr  error
	listErr       error
	findEntityErr error
}

func newOrgDirectoryStub() *orgDirectoryStub {
	return &orgDirectoryStub{
		users: map[string]User{
			"alice@example.edu": {ID: 1, Name: "Alice Chen", Email: "alice@example.edu", RoleScope: RoleDepartment, DepartmentID: 1},
			"ben@example.edu":   {ID: 2, Name: "Ben Okafor", Email: "ben@example.edu", RoleScope: RoleStaff, DepartmentID: 2},
			"carla@example.edu": {ID: 3, Name: "Carla Diaz", Email: "carla@example.edu", RoleScope: RoleSocietyOfficer, DepartmentID: 1, ScopeID: 1},
			"guest@example.edu": {ID: 4, Name: "Guest", Email: "guest@example.edu", RoleScope: "visitor"},
		},
		entities: []OrgEntity{
			{Type: EntityTypeDepartment, ID: 1, Name: "Computer Science", Email: "cs@example.edu"},
			{Type: EntityTypeDepartment, ID: 2, Name: "Mathematics", Email: "math@example.edu"},
			{Type: EntityTypeCourse, ID: 1, Name: "Introduction to Programming", Email: "intro-prog@example.edu", DepartmentID: 1},
			{Type: EntityTypeCourse, ID: 2, Name: "Linear Algebra", Email: "linalg@example.edu", DepartmentID: 2},
			{Type: EntityTypeSociety, ID: 1, Name: "Robotics Club", Email: "robotics@example.edu", DepartmentID: 1},
			{Type: EntityTypeSociety, ID: 2, Name: "Chess Society", Email: "chess@example.edu", DepartmentID: 2},
		},
	}
}

func (d *orgDirectoryStub) FindUser(ctx context.Context, key string) (User, error) {
	if d.findUserErr != nil {
		return User{}, d.findUserErr
	}
	if user, ok := d.users[key]; ok {
		return user, nil
	}
	for _, user := range d.users {
		if strings.EqualFold(user.Name, key) {
			return user, nil
		}
	}
	return User{}, persistence.ErrNotFound
}

func (d *orgDirectoryStub) GetEntity(ctx context.Context, entityType EntityType, id int64) (OrgEntity, error) {
	if d.getEntityErr != nil {
		return OrgEntity{}, d.getEntityErr
	}
	for _, entity := range d.entities {
		if entity.Type == entityType && entity.ID == id {
			return entity, nil
		}
	}
	return OrgEntity{}, persistence.ErrNotFound
}

func (d *orgDirectoryStub) ListEntities(ctx context.Context, entityType EntityType) ([]OrgEntity, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	var out []OrgEntity
	for _, entity := range d.entities {
		if entity.Type == entityType {
			out = append(out, entity)
		}
	}
	return out, nil
}

func (d *orgDirectoryStub) FindEntityByName(ctx context.Context, name string) (OrgEntity, error) {
	if d.findEntityErr != nil {
		return OrgEntity{}, d.findEntityErr
	}
	for _, entityType := range []EntityType{EntityTypeDepartment, EntityTypeSociety, EntityTypeCourse} {
		for _, entity := range d.entities {
			if entity.Type == entityType && strings.EqualFold(entity.Name, name) {
				return entity, nil
			}
		}
	}
	return OrgEntity{}, persistence.ErrNotFound
}

func entityNames(entities []OrgEntity) []string {
	names := make([]string, 0, len(entities))
	for _, entity := range entities {
		names = append(names, entity.Name)
	}
	return names
}

func TestAuthzService_ResolveBookingEntities(t *testing.T) {
	t.Run("department head gets department plus its courses and societies", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		entities, err := svc.ResolveBookingEntities(context.Background(), "alice@example.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := entityNames(entities)
		want := []string{"Computer Science", "Introduction to Programming", "Robotics Club"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i, name := range want {
			if got[i] != name {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("staff role behaves like department scope", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		entities, err := svc.ResolveBookingEntities(context.Background(), "ben@example.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := entityNames(entities)
		want := []string{"Mathematics", "Linear Algebra", "Chess Society"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("society officer is limited to their own society", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		entities, err := svc.ResolveBookingEntities(context.Background(), "carla@example.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entities) != 1 || entities[0].Name != "Robotics Club" {
			t.Fatalf("expected only Robotics Club, got %v", entityNames(entities))
		}
	})

	t.Run("unknown role yields no entities", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		entities, err := svc.ResolveBookingEntities(context.Background(), "guest@example.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entities) != 0 {
			t.Fatalf("expected no entities, got %v", entityNames(entities))
		}
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		if _, err := svc.ResolveBookingEntities(context.Background(), "nobody@example.edu"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("directory failure surfaces as transport error", func(t *testing.T) {
		directory := newOrgDirectoryStub()
		directory.listErr = errors.New("directory down")
		svc := NewAuthzService(directory)

		_, err := svc.ResolveBookingEntities(context.Background(), "alice@example.edu")
		if !IsTransport(err) {
			t.Fatalf("expected TransportError, got %v", err)
		}
	})
}

func TestAuthzService_CanBookForEntity(t *testing.T) {
	cases := []struct {
		name       string
		userKey    string
		entityType EntityType
		entityID   int64
		want       bool
	}{
		{"department head books own department", "alice@example.edu", EntityTypeDepartment, 1, true},
		{"department head books child course", "alice@example.edu", EntityTypeCourse, 1, true},
		{"department head denied for other department", "alice@example.edu", EntityTypeDepartment, 2, false},
		{"department head denied for foreign society", "alice@example.edu", EntityTypeSociety, 2, false},
		{"society officer books own society", "carla@example.edu", EntityTypeSociety, 1, true},
		{"society officer denied for parent department", "carla@example.edu", EntityTypeDepartment, 1, false},
		{"visitor denied everywhere", "guest@example.edu", EntityTypeDepartment, 1, false},
	}

	svc := NewAuthzService(newOrgDirectoryStub())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.CanBookForEntity(context.Background(), tc.userKey, tc.entityType, tc.entityID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAuthzService_ExtractEntityFromDescription(t *testing.T) {
	svc := NewAuthzService(newOrgDirectoryStub())

	cases := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"for clause wins over by clause", "Weekly demo organized by Alice Chen for Robotics Club", "Robotics Club", true},
		{"for clause strips leading article", "organized by Ben for the Chess Society", "Chess Society", true},
		{"by the entity", "Seminar organized by the Mathematics department heads", "Mathematics department heads", true},
		{"plain by clause", "Lecture organized by Computer Science", "Computer Science", true},
		{"stops at punctuation", "organized by Robotics Club, room setup needed", "Robotics Club", true},
		{"no marker", "A quiet study session", "", false},
		{"empty text", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := svc.ExtractEntityFromDescription(tc.text)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestAuthzService_ResolveAttendeeAddress(t *testing.T) {
	t.Run("resolves the benefiting entity's address", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		got := svc.ResolveAttendeeAddress(context.Background(), "Kickoff organized by Carla Diaz for Robotics Club", "carla@example.edu")
		if got != "robotics@example.edu" {
			t.Fatalf("expected robotics@example.edu, got %q", got)
		}
	})

	t.Run("falls back to the organizer when no entity is named", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		got := svc.ResolveAttendeeAddress(context.Background(), "Private review", "alice@example.edu")
		if got != "alice@example.edu" {
			t.Fatalf("expected organizer fallback, got %q", got)
		}
	})

	t.Run("falls back when the entity is unknown", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		got := svc.ResolveAttendeeAddress(context.Background(), "organized by the Sailing Club", "alice@example.edu")
		if got != "alice@example.edu" {
			t.Fatalf("expected organizer fallback, got %q", got)
		}
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		got := svc.ResolveAttendeeAddress(context.Background(), "organized by Alice for chess society", "alice@example.edu")
		if got != "chess@example.edu" {
			t.Fatalf("expected chess@example.edu, got %q", got)
		}
	})
}

func TestAuthzService_LookupUser(t *testing.T) {
	t.Run("finds by email", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		user, err := svc.LookupUser(context.Background(), "alice@example.edu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Name != "Alice Chen" {
			t.Fatalf("expected Alice Chen, got %q", user.Name)
		}
	})

	t.Run("finds by display name", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		user, err := svc.LookupUser(context.Background(), "ben okafor")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "ben@example.edu" {
			t.Fatalf("expected ben@example.edu, got %q", user.Email)
		}
	})

	t.Run("unknown key maps to not found", func(t *testing.T) {
		svc := NewAuthzService(newOrgDirectoryStub())

		if _, err := svc.LookupUser(context.Background(), "stranger"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
