package application

import "time"

// EventStatus enumerates the lifecycle states of a booking.
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Resource represents a bookable room.
type Resource struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Equipment []string
}

// Event represents a confirmed or cancelled booking on a resource.
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

// OrgEntity represents a department, course or society a booking can be made
// on behalf of.
type OrgEntity struct {
	Type         EntityType
	ID           int64
	Name         string
	Email        string
	DepartmentID int64
}

// Role scopes recognized by the authorization resolver. Any other value
// grants no entity-booking rights.
const (
	RoleDepartment     = "department"
	RoleStaff          = "staff"
	RoleSocietyOfficer = "society_officer"
)

// User represents a member of the organization directory.
type User struct {
	ID           int64
	Name         string
	Email        string
	RoleScope    string
	DepartmentID int64
	ScopeID      int64
}

// EventInput carries the fields required to create a booking.
type EventInput struct {
	ResourceID  string
	Title       string
	Start       time.Time
	End         time.Time
	Organizer   string
	Description string
}

// EventPatch carries the optional fields of an update request. Nil fields
// keep the existing value.
type EventPatch struct {
	Title       *string
	Start       *time.Time
	End         *time.Time
	Description *string
}

// Availability is the result of a conflict check for a time window on one
// resource.
type Availability struct {
	ResourceID string
	Start      time.Time
	End        time.Time
	Available  bool
	Conflicts  []Event
}
