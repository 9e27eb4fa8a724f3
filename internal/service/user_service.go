package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UserService covers the self-service account operations.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, dispatcher: dispatcher}
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return users, nil
}

// Get fetches a single account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.ToDomainError(err)
	}
	return user, nil
}

// UpdateProfile applies a partial name/email update. An empty payload is a
// 400; a taken email is a 400 with EMAIL_IN_USE.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, id string, update ProfileUpdate) (*domain.User, error) {
	if update.Name == nil && update.Email == nil {
		return nil, apperrors.NewBadRequest(apperrors.CodeNoFields, "No fields to update")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		user.Name = name
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.NewValidationError("Invalid email address")
		}
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil && existing.ID != id {
			return nil, apperrors.NewBadRequest(apperrors.CodeEmailInUse, "Email already in use")
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ToDomainError(err)
		}
		user.Email = email
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.ToDomainError(err)
	}

	s.publish(ctx, events.EventProfileUpdated, user.ID, actorRef(actor, user.ID), nil)
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUserNotFound()
		}
		return apperrors.ToDomainError(err)
	}
	s.publish(ctx, events.EventUserDeleted, id, actorRef(actor, id), nil)
	return nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, userID string, actorID *string, details map[string]any) {
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

// actorRef returns the actor id when someone other than the subject acted.
func actorRef(actor *domain.User, subjectID string) *string {
	if actor == nil || actor.ID == subjectID {
		return nil
	}
	id := actor.ID
	return &id
}
