package domain

import "time"

// ActivityLog records an action performed on or by an account.
type ActivityLog struct {
	ID        string
	UserID    string
	ActorID   *string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}
