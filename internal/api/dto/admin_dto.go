package dto

import (
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

// VerifyPasswordRequest payload for step-up re-authentication.
type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

// VerifyPasswordResponse returns the elevated token and its expiry for
// client display.
type VerifyPasswordResponse struct {
	ElevatedToken string    `json:"elevatedToken"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Message       string    `json:"message"`
}

// ChangeRoleRequest payload for role changes.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ResetPasswordRequest payload for admin password resets.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ChangeStatusRequest payload for activations/deactivations. A pointer
// distinguishes a missing field from an explicit false.
type ChangeStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// ActivityEntry is the activity log shape returned to admins.
type ActivityEntry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	ActorID   *string        `json:"actor_id,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewActivityEntries maps domain activity rows.
func NewActivityEntries(entries []domain.ActivityLog) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityEntry{
			ID:        e.ID,
			UserID:    e.UserID,
			ActorID:   e.ActorID,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// OffsetPagination describes offset-based paging for activity reads.
type OffsetPagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalCount int `json:"totalCount"`
}
