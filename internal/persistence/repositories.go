package persistence

import (
	"context"
	"time"
)

// EventFilter narrows event queries.
type EventFilter struct {
	ResourceID  string
	Status      EventStatus
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// EventRepository stores booking events and their attendees.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}

// ResourceRepository exposes read and load operations for the room catalog.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
}

// OrgRepository exposes the organization directory: users and the entities
// bookings can be made on behalf of.
type OrgRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id int64) (User, error)
	FindUser(ctx context.Context, key string) (User, error)
	CreateEntity(ctx context.Context, entity OrgEntity) error
	GetEntity(ctx context.Context, entityType EntityType, id int64) (OrgEntity, error)
	ListEntities(ctx context.Context, entityType EntityType) ([]OrgEntity, error)
	FindEntityByName(ctx context.Context, name string) (OrgEntity, error)
}
