// Package http provides the HTTP handlers and middleware for the calendar
// agent API.
//
// The router exposes the following endpoints:
//   - GET /health: liveness probe, returns {"status":"ok"}.
//   - GET /calendars: lists every bookable resource as `resourceDTO` payloads.
//   - GET /calendars/{id}/availability?start=&end=: reports whether the time
//     window is free and which confirmed bookings overlap it.
//   - POST /calendars/{id}/events, GET /calendars/{id}/events: booking
//     creation and listing exchanging the `eventDTO` payload defined in
//     calendar_handler.go. Overlapping requests are rejected with 409 and the
//     conflicting bookings attached.
//   - GET/PUT/DELETE /calendars/{id}/events/{eventId}: single-booking access.
//     Updates and cancellations are organizer-only and answer 403 for anyone
//     else. Cancellation keeps the record with cancelled status.
//   - POST /chat: relays a user message through the conversation
//     orchestrator; a conversation still working on a previous message
//     answers 409.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
