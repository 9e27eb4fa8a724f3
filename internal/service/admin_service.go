package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AdminListQuery mirrors the admin console's user listing controls.
type AdminListQuery struct {
	Role      string
	IsActive  *bool
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Pagination describes a page of listing results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// UserStats summarizes an account's recorded activity.
type UserStats struct {
	TotalActions   int        `json:"totalActions"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
}

// AdminService implements the admin console operations. Route guards have
// already ensured the actor is an admin with a valid elevated session where
// required; the service still owns the self-action guards since those
// depend on the target id carried in the route.
type AdminService struct {
	users      repository.UserRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewAdminService builds the service.
func NewAdminService(users repository.UserRepository, activity repository.ActivityRepository, dispatcher events.Dispatcher, bcryptCost int) *AdminService {
	return &AdminService{
		users:      users,
		activity:   activity,
		dispatcher: dispatcher,
		bcryptCost: bcryptCost,
	}
}

// ListUsers returns a filtered, sorted page of accounts.
func (s *AdminService) ListUsers(ctx context.Context, query AdminListQuery) ([]domain.User, Pagination, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.UserFilter{
		IsActive:  query.IsActive,
		Search:    query.Search,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
	if query.Role != "" {
		if !domain.ValidRole(query.Role) {
			return nil, Pagination{}, apperrors.NewBadRequest(apperrors.CodeInvalidRole, `Invalid role. Must be "admin" or "user"`)
		}
		role := domain.Role(query.Role)
		filter.Role = &role
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, Pagination{}, apperrors.ToDomainError(err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, Pagination{}, apperrors.ToDomainError(err)
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return users, Pagination{Page: page, Limit: limit, TotalCount: total, TotalPages: totalPages}, nil
}

// GetUserDetail returns an account with its activity stats and most recent
// activity entries.
func (s *AdminService) GetUserDetail(ctx context.Context, id string) (*domain.User, UserStats, []domain.ActivityLog, error) {
	user, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, UserStats{}, nil, err
	}

	recent, err := s.activity.ListByUser(ctx, id, 10, 0)
	if err != nil {
		return nil, UserStats{}, nil, apperrors.ToDomainError(err)
	}
	total, err := s.activity.CountByUser(ctx, id)
	if err != nil {
		return nil, UserStats{}, nil, apperrors.ToDomainError(err)
	}

	stats := UserStats{TotalActions: total}
	if len(recent) > 0 {
		stats.LastActivityAt = &recent[0].CreatedAt
	}
	return user, stats, recent, nil
}

// ChangeRole sets the target account's role. Admins may not change their
// own role. Re-issuing the current role is a no-op success.
func (s *AdminService) ChangeRole(ctx context.Context, actor *domain.User, targetID, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewBadRequest(apperrors.CodeInvalidRole, `Invalid role. Must be "admin" or "user"`)
	}
	if actor.ID == targetID {
		return nil, apperrors.NewSelfActionForbidden("Cannot change your own role")
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.Role(role) {
		return target, nil
	}

	oldRole := target.Role
	target.Role = domain.Role(role)
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	s.publish(ctx, events.EventRoleChanged, target.ID, &actor.ID, map[string]any{
		"old_role": oldRole,
		"new_role": target.Role,
	})
	return target, nil
}

// ResetPassword replaces the target account's password.
func (s *AdminService) ResetPassword(ctx context.Context, actor *domain.User, targetID, newPassword string) (*domain.User, error) {
	if len(newPassword) < 8 {
		return nil, apperrors.NewValidationError("Password must be at least 8 characters")
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	target.PasswordHash = hash
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	s.publish(ctx, events.EventPasswordResetByAdmin, target.ID, &actor.ID, nil)
	return target, nil
}

// ChangeStatus activates or deactivates the target account. Admins may not
// change their own status. Re-issuing the current status is a no-op success.
func (s *AdminService) ChangeStatus(ctx context.Context, actor *domain.User, targetID string, isActive bool) (*domain.User, error) {
	if actor.ID == targetID {
		return nil, apperrors.NewSelfActionForbidden("Cannot change your own account status")
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsActive == isActive {
		return target, nil
	}

	target.IsActive = isActive
	if err := s.users.Update(ctx, target); err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	s.publish(ctx, events.EventStatusChanged, target.ID, &actor.ID, map[string]any{
		"is_active": isActive,
	})
	return target, nil
}

// Activity returns a page of the target account's activity log.
func (s *AdminService) Activity(ctx context.Context, targetID string, limit, offset int) ([]domain.ActivityLog, int, error) {
	if _, err := s.getTarget(ctx, targetID); err != nil {
		return nil, 0, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.activity.ListByUser(ctx, targetID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.ToDomainError(err)
	}
	total, err := s.activity.CountByUser(ctx, targetID)
	if err != nil {
		return nil, 0, apperrors.ToDomainError(err)
	}
	return entries, total, nil
}

func (s *AdminService) getTarget(ctx context.Context, id string) (*domain.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.ToDomainError(err)
	}
	return target, nil
}

func (s *AdminService) publish(ctx context.Context, eventType events.EventType, userID string, actorID *string, details map[string]any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Details:   details,
	})
}
