package persistence

import "time"

// EventStatus enumerates the lifecycle states of a stored event.
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Resource represents a bookable room catalog entry.
type Resource struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Equipment []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event represents a booking stored against a resource. Cancelled events are
// kept as history rather than deleted.
type Event struct {
	ID          string
	ResourceID  string
	Title       string
	Start       time.Time
	End         time.Time
	Organizer   string
	Attendees   []string
	Description string
	Status      EventStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntityType discriminates organizational entities.
type EntityType string

const (
	EntityTypeDepartment EntityType = "department"
	EntityTypeCourse     EntityType = "course"
	EntityTypeSociety    EntityType = "society"
)

// OrgEntity represents a department, course or society that can be the
// beneficiary of a booking. Courses and societies carry the identifier of
// their parent department.
type OrgEntity struct {
	Type         EntityType
	ID           int64
	Name         string
	Email        string
	DepartmentID int64
}

// User represents a member of the organization directory.
type User struct {
	ID           int64
	Name         string
	Email        string
	RoleScope    string
	DepartmentID int64
	ScopeID      int64
}
