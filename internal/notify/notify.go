// Package notify publishes booking lifecycle payloads to the shared channel
// that satellite notification agents poll. Only the payload schema is owned
// here; the agents themselves are external collaborators.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Kind enumerates the booking lifecycle notifications.
type Kind string

const (
	KindEventCreated     Kind = "event_created"
	KindEventUpdated     Kind = "event_updated"
	KindEventCancelled   Kind = "event_cancelled"
	KindEventRescheduled Kind = "event_rescheduled"
)

// Notification is the shared-channel payload.
type Notification struct {
	Event         Kind      `json:"event"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	ResourceID    string    `json:"resource_id"`
	Organizer     string    `json:"organizer"`
	AttendeeEmail string    `json:"attendee_email,omitempty"`
	Description   string    `json:"description"`
	UpdatedBy     string    `json:"updated_by"`
}

// Publisher delivers notifications to the shared channel.
type Publisher interface {
	Publish(ctx context.Context, notification Notification) error
}

// Channel abstracts the shared-thread transport notifications are posted to.
type Channel interface {
	PostMessage(ctx context.Context, content string) error
}

// ChannelPublisher serializes notifications as JSON and posts them to a
// shared channel thread.
type ChannelPublisher struct {
	channel Channel
}

// NewChannelPublisher wires a publisher to the provided channel.
func NewChannelPublisher(channel Channel) *ChannelPublisher {
	return &ChannelPublisher{channel: channel}
}

// Publish posts the notification to the shared channel.
func (p *ChannelPublisher) Publish(ctx context.Context, notification Notification) error {
	if p == nil || p.channel == nil {
		return nil
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return p.channel.PostMessage(ctx, string(payload))
}

// LogPublisher records notifications on the service log. It stands in when no
// shared channel is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a log-backed publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the notification payload.
func (p *LogPublisher) Publish(ctx context.Context, notification Notification) error {
	p.logger.InfoContext(ctx, "notification",
		"event", notification.Event,
		"title", notification.Title,
		"resource_id", notification.ResourceID,
		"organizer", notification.Organizer,
		"updated_by", notification.UpdatedBy,
	)
	return nil
}
