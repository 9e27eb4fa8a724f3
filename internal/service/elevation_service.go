package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// ElevationService implements step-up authentication for the admin console.
// It re-verifies the caller's password and mints a short-lived elevated
// token; guarded routes present that token through the x-elevated-token
// header and it is checked against the base session's principal. Nothing is
// persisted: the elevated token expires purely by claim inspection.
type ElevationService struct {
	tokens     *auth.TokenManager
	throttle   *ReauthThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger

	// compare is swappable so tests can observe whether the password check
	// ran at all.
	compare func(hashed, plain string) error
}

// NewElevationService builds the service. throttle may be nil when Redis is
// not configured.
func NewElevationService(tokens *auth.TokenManager, throttle *ReauthThrottle, dispatcher events.Dispatcher, logger *zap.Logger) *ElevationService {
	return &ElevationService{
		tokens:     tokens,
		throttle:   throttle,
		dispatcher: dispatcher,
		logger:     logger,
		compare:    auth.ComparePassword,
	}
}

// RequestElevation validates the re-entered password for the authenticated
// principal and, on success, mints an elevated token. Non-admins are
// rejected before any password comparison; a missing password is rejected
// before touching the verifier.
func (s *ElevationService) RequestElevation(ctx context.Context, principal *domain.User, password string) (string, time.Time, error) {
	if !principal.IsAdmin() {
		return "", time.Time{}, apperrors.NewForbidden(apperrors.CodeAdminRequired, "Admin access required")
	}
	if password == "" {
		return "", time.Time{}, apperrors.NewBadRequest(apperrors.CodePasswordRequired, "Password required")
	}

	if s.throttle.Exceeded(ctx, principal.ID) {
		return "", time.Time{}, apperrors.NewTooManyAttempts()
	}

	if err := s.compare(principal.PasswordHash, password); err != nil {
		s.throttle.RecordFailure(ctx, principal.ID)
		return "", time.Time{}, apperrors.NewUnauthorized(apperrors.CodeInvalidPassword, "Invalid password")
	}
	s.throttle.Reset(ctx, principal.ID)

	token, expiresAt, err := s.tokens.GenerateElevatedToken(principal.ID)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventElevationGranted,
		UserID:    principal.ID,
		Timestamp: time.Now(),
		Details:   map[string]any{"expires_at": expiresAt},
	})

	return token, expiresAt, nil
}

// CheckElevated reports whether the elevated token is present, valid,
// unexpired, and issued for the same principal as the base session. All
// negative outcomes look the same to callers; guarded routes respond with a
// single "elevation required" deny.
func (s *ElevationService) CheckElevated(principalID, elevatedToken string) bool {
	if elevatedToken == "" {
		return false
	}
	claims, err := s.tokens.ParseElevatedToken(elevatedToken)
	if err != nil {
		return false
	}
	return claims.Subject == principalID
}

func (s *ElevationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// ReauthThrottle counts failed password re-verifications per principal in a
// rolling Redis window. A nil receiver or missing client disables it.
type ReauthThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *zap.Logger
}

// NewReauthThrottle builds a throttle; client may be nil.
func NewReauthThrottle(client *redis.Client, max int, window time.Duration, logger *zap.Logger) *ReauthThrottle {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &ReauthThrottle{client: client, max: max, window: window, logger: logger}
}

// Exceeded reports whether the principal has used up its failed attempts.
// Redis errors fail open: throttling is an extra guard, not a dependency.
func (t *ReauthThrottle) Exceeded(ctx context.Context, principalID string) bool {
	if t == nil || t.client == nil {
		return false
	}
	count, err := t.client.Get(ctx, t.key(principalID)).Int()
	if err != nil {
		if err != redis.Nil {
			t.logger.Warn("reauth throttle read failed", zap.Error(err))
		}
		return false
	}
	return count >= t.max
}

// RecordFailure increments the failed-attempt counter, starting the window
// on the first failure.
func (t *ReauthThrottle) RecordFailure(ctx context.Context, principalID string) {
	if t == nil || t.client == nil {
		return
	}
	key := t.key(principalID)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("reauth throttle incr failed", zap.Error(err))
		return
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("reauth throttle expire failed", zap.Error(err))
		}
	}
}

// Reset clears the counter after a successful re-verification.
func (t *ReauthThrottle) Reset(ctx context.Context, principalID string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(principalID)).Err(); err != nil {
		t.logger.Warn("reauth throttle reset failed", zap.Error(err))
	}
}

func (t *ReauthThrottle) key(principalID string) string {
	return "reauth:attempts:" + principalID
}
