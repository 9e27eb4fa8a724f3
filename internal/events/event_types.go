package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventUserLoggedIn         EventType = "user_logged_in"
	EventProfileUpdated       EventType = "profile_updated"
	EventUserDeleted          EventType = "user_deleted"
	EventElevationGranted     EventType = "elevation_granted"
	EventRoleChanged          EventType = "role_changed"
	EventStatusChanged        EventType = "status_changed"
	EventPasswordResetByAdmin EventType = "password_reset_by_admin"
)

// AllTypes lists every event the service emits, in a stable order.
func AllTypes() []EventType {
	return []EventType{
		EventUserRegistered,
		EventUserLoggedIn,
		EventProfileUpdated,
		EventUserDeleted,
		EventElevationGranted,
		EventRoleChanged,
		EventStatusChanged,
		EventPasswordResetByAdmin,
	}
}

// Event represents an account event emitted by services. UserID is the
// account the event is about; ActorID is who performed it (nil when the
// account acted on itself).
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	UserID    string         `json:"user_id"`
	ActorID   *string        `json:"actor_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}
