package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-calendar-agent/internal/application"
	"github.com/example/campus-calendar-agent/internal/persistence"
)

var (
	resourceCounter uint64
	eventCounter    uint64
	userCounter     uint64
	entityCounter   uint64
)

var referenceTime = time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Resource fixtures ---------------------------

// ResourceFixture represents a deterministic bookable room record.
type ResourceFixture struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Equipment []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic resource fixture with optional
// overrides.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := ResourceFixture{
		ID:        id,
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  "Science Building",
		Capacity:  int(10 + idx%20),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id string) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceName overrides the generated room name.
func WithResourceName(name string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Name = name
	}
}

// WithResourceLocation overrides the generated location.
func WithResourceLocation(location string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Location = location
	}
}

// WithResourceCapacity overrides the generated capacity.
func WithResourceCapacity(capacity int) ResourceOption {
	return func(f *ResourceFixture) {
		f.Capacity = capacity
	}
}

// WithResourceEquipment sets the equipment list on the fixture.
func WithResourceEquipment(equipment ...string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Equipment = equipment
	}
}

// Application returns the fixture as an application.Resource value.
func (f ResourceFixture) Application() application.Resource {
	return application.Resource{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Equipment: copyStrings(f.Equipment),
	}
}

// Persistence returns the fixture as a persistence.Resource value.
func (f ResourceFixture) Persistence() persistence.Resource {
	return persistence.Resource{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Equipment: copyStrings(f.Equipment),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture represents a deterministic booking record.
type EventFixture struct {
	ID          string
	ResourceID  string
	Title       string
	Start       time.Time
	End         time.Time
	Organizer   string
	Attendees   []string
	Description string
	Status      persistence.EventStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic one-hour booking with optional
// overrides. Successive fixtures occupy successive hours so that the default
// set never overlaps.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	id := fmt.Sprintf("event-%03d", idx)
	start := referenceTime.Add(time.Duration(idx) * 2 * time.Hour)
	fixture := EventFixture{
		ID:         id,
		ResourceID: "room-001",
		Title:      fmt.Sprintf("Meeting %03d", idx),
		Start:      start,
		End:        start.Add(time.Hour),
		Organizer:  fmt.Sprintf("organizer-%03d@example.edu", idx),
		Status:     persistence.EventStatusConfirmed,
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventResource overrides the resource the event is booked on.
func WithEventResource(resourceID string) EventOption {
	return func(f *EventFixture) {
		f.ResourceID = resourceID
	}
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithEventWindow sets the start and end of the booking.
func WithEventWindow(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithEventOrganizer overrides the generated organizer address.
func WithEventOrganizer(organizer string) EventOption {
	return func(f *EventFixture) {
		f.Organizer = organizer
	}
}

// WithEventAttendees sets the attendee list on the fixture.
func WithEventAttendees(attendees ...string) EventOption {
	return func(f *EventFixture) {
		f.Attendees = attendees
	}
}

// WithEventDescription sets the description on the fixture.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) {
		f.Description = description
	}
}

// WithEventStatus overrides the lifecycle status.
func WithEventStatus(status persistence.EventStatus) EventOption {
	return func(f *EventFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.Event value.
func (f EventFixture) Application() application.Event {
	return application.Event{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		Title:       f.Title,
		Start:       f.Start,
		End:         f.End,
		Organizer:   f.Organizer,
		Attendees:   copyStrings(f.Attendees),
		Description: f.Description,
		Status:      application.EventStatus(f.Status),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Event value.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:          f.ID,
		ResourceID:  f.ResourceID,
		Title:       f.Title,
		Start:       f.Start,
		End:         f.End,
		Organizer:   f.Organizer,
		Attendees:   copyStrings(f.Attendees),
		Description: f.Description,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EventInput.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		ResourceID:  f.ResourceID,
		Title:       f.Title,
		Start:       f.Start,
		End:         f.End,
		Organizer:   f.Organizer,
		Description: f.Description,
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic directory member.
type UserFixture struct {
	ID           int64
	Name         string
	Email        string
	RoleScope    string
	DepartmentID int64
	ScopeID      int64
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic staff user with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:           int64(idx),
		Name:         fmt.Sprintf("User %03d", idx),
		Email:        fmt.Sprintf("user-%03d@example.edu", idx),
		RoleScope:    application.RoleStaff,
		DepartmentID: 1,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id int64) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserRole sets the role scope and, for society officers, the scope ID.
func WithUserRole(roleScope string, scopeID int64) UserOption {
	return func(f *UserFixture) {
		f.RoleScope = roleScope
		f.ScopeID = scopeID
	}
}

// WithUserDepartment overrides the user's department.
func WithUserDepartment(departmentID int64) UserOption {
	return func(f *UserFixture) {
		f.DepartmentID = departmentID
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		RoleScope:    f.RoleScope,
		DepartmentID: f.DepartmentID,
		ScopeID:      f.ScopeID,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		RoleScope:    f.RoleScope,
		DepartmentID: f.DepartmentID,
		ScopeID:      f.ScopeID,
	}
}

// ---------------------------- Entity fixtures ----------------------------

// EntityFixture represents a deterministic organizational entity.
type EntityFixture struct {
	Type         persistence.EntityType
	ID           int64
	Name         string
	Email        string
	DepartmentID int64
}

// EntityOption configures the generated entity fixture.
type EntityOption func(*EntityFixture)

// NewEntityFixture returns a deterministic department entity with optional
// overrides.
func NewEntityFixture(opts ...EntityOption) EntityFixture {
	idx := atomic.AddUint64(&entityCounter, 1)
	fixture := EntityFixture{
		Type:  persistence.EntityTypeDepartment,
		ID:    int64(idx),
		Name:  fmt.Sprintf("Department %03d", idx),
		Email: fmt.Sprintf("dept-%03d@example.edu", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEntityType sets the entity type.
func WithEntityType(entityType persistence.EntityType) EntityOption {
	return func(f *EntityFixture) {
		f.Type = entityType
	}
}

// WithEntityID overrides the generated entity ID.
func WithEntityID(id int64) EntityOption {
	return func(f *EntityFixture) {
		f.ID = id
	}
}

// WithEntityName overrides the generated entity name.
func WithEntityName(name string) EntityOption {
	return func(f *EntityFixture) {
		f.Name = name
	}
}

// WithEntityEmail overrides the generated contact address.
func WithEntityEmail(email string) EntityOption {
	return func(f *EntityFixture) {
		f.Email = email
	}
}

// WithEntityDepartment sets the parent department on a course or society.
func WithEntityDepartment(departmentID int64) EntityOption {
	return func(f *EntityFixture) {
		f.DepartmentID = departmentID
	}
}

// Application returns the fixture as an application.OrgEntity value.
func (f EntityFixture) Application() application.OrgEntity {
	return application.OrgEntity{
		Type:         application.EntityType(f.Type),
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		DepartmentID: f.DepartmentID,
	}
}

// Persistence returns the fixture as a persistence.OrgEntity value.
func (f EntityFixture) Persistence() persistence.OrgEntity {
	return persistence.OrgEntity{
		Type:         f.Type,
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		DepartmentID: f.DepartmentID,
	}
}

func copyStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
