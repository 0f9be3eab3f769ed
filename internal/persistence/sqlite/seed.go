package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// Seed loads the demo campus directory and room catalog. It is idempotent:
// when the catalog already has rows, nothing is inserted.
func (s *Storage) Seed(ctx context.Context, now time.Time) error {
	existing, err := s.ListResources(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: failed to inspect catalog before seeding: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	resources := []persistence.Resource{
		{
			ID:        "room-101",
			Name:      "Lecture Hall A",
			Location:  "Science Building, Floor 1",
			Capacity:  120,
			Equipment: []string{"projector", "microphone"},
		},
		{
			ID:        "room-102",
			Name:      "Seminar Room B",
			Location:  "Science Building, Floor 2",
			Capacity:  24,
			Equipment: []string{"whiteboard", "video conferencing"},
		},
		{
			ID:        "room-201",
			Name:      "Computer Lab",
			Location:  "Engineering Building, Floor 2",
			Capacity:  40,
			Equipment: []string{"workstations", "projector"},
		},
		{
			ID:       "room-301",
			Name:     "Student Commons",
			Location: "Union Building, Floor 3",
			Capacity: 80,
		},
	}
	for _, resource := range resources {
		resource.CreatedAt = now
		resource.UpdatedAt = now
		if err := s.CreateResource(ctx, resource); err != nil {
			return fmt.Errorf("sqlite: failed to seed resource %s: %w", resource.ID, err)
		}
	}

	entities := []persistence.OrgEntity{
		{Type: persistence.EntityTypeDepartment, ID: 1, Name: "Computer Science", Email: "cs-admin@example.edu"},
		{Type: persistence.EntityTypeDepartment, ID: 2, Name: "Mathematics", Email: "math-admin@example.edu"},
		{Type: persistence.EntityTypeCourse, ID: 1, Name: "Introduction to Programming", Email: "intro-prog@example.edu", DepartmentID: 1},
		{Type: persistence.EntityTypeCourse, ID: 2, Name: "Linear Algebra", Email: "lin-alg@example.edu", DepartmentID: 2},
		{Type: persistence.EntityTypeSociety, ID: 1, Name: "Robotics Club", Email: "robotics@example.edu", DepartmentID: 1},
		{Type: persistence.EntityTypeSociety, ID: 2, Name: "Chess Society", Email: "chess@example.edu", DepartmentID: 2},
	}
	for _, entity := range entities {
		if err := s.CreateEntity(ctx, entity); err != nil && !errors.Is(err, persistence.ErrDuplicate) {
			return fmt.Errorf("sqlite: failed to seed entity %s/%d: %w", entity.Type, entity.ID, err)
		}
	}

	users := []persistence.User{
		{ID: 1, Name: "Alice Chen", Email: "alice.chen@example.edu", RoleScope: "department", DepartmentID: 1},
		{ID: 2, Name: "Ben Okafor", Email: "ben.okafor@example.edu", RoleScope: "staff", DepartmentID: 2},
		{ID: 3, Name: "Carla Diaz", Email: "carla.diaz@example.edu", RoleScope: "society_officer", DepartmentID: 1, ScopeID: 1},
	}
	for _, user := range users {
		if err := s.CreateUser(ctx, user); err != nil && !errors.Is(err, persistence.ErrDuplicate) {
			return fmt.Errorf("sqlite: failed to seed user %d: %w", user.ID, err)
		}
	}

	return nil
}
