package service

import (
	"context"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

func newAuthServiceForTests(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:               "test-secret",
		SessionTokenTTLMinutes:  60,
		ElevatedTokenTTLMinutes: 15,
		BcryptCost:              bcrypt.MinCost,
	}, users, nil)
	return svc, users
}

func TestRegister_CreatesActiveUserAccount(t *testing.T) {
	svc, _ := newAuthServiceForTests(t)

	user, token, exp, err := svc.Register(context.Background(), "Jamie O'Neill", "Jamie@Example.com", "Password123!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("new accounts must get the user role, got %s", user.Role)
	}
	if !user.IsActive {
		t.Fatal("new accounts must start active")
	}
	if user.Email != "jamie@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if exp.IsZero() {
		t.Fatal("expected token expiry")
	}

	claims, err := svc.TokenManager().ParseSessionToken(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("token subject %q, want %q", claims.Subject, user.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users := newAuthServiceForTests(t)
	users.seed(domain.User{Name: "Existing", Email: "taken@example.com", Role: domain.RoleUser, IsActive: true})

	_, _, _, err := svc.Register(context.Background(), "New Person", "taken@example.com", "Password123!")
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != apperrors.CodeEmailInUse {
		t.Fatalf("expected EMAIL_IN_USE, got %s", domainErr.Code)
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	svc, _ := newAuthServiceForTests(t)

	cases := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"short name", "J", "ok@example.com", "Password123!"},
		{"bad name chars", "Robot 9000!", "ok@example.com", "Password123!"},
		{"bad email", "Jamie Fine", "not-an-email", "Password123!"},
		{"short password", "Jamie Fine", "ok@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := svc.Register(context.Background(), tc.userName, tc.email, tc.password)
			domainErr := domainErrFrom(t, err)
			if domainErr.HTTPStatus != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", domainErr.HTTPStatus)
			}
		})
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users := newAuthServiceForTests(t)
	hash, _ := auth.HashPassword("Password123!", bcrypt.MinCost)
	users.seed(domain.User{Name: "Jamie", Email: "jamie@example.com", PasswordHash: hash, Role: domain.RoleUser, IsActive: true})

	_, _, _, err := svc.Login(context.Background(), "jamie@example.com", "WrongPassword!")
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != apperrors.CodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %s", domainErr.Code)
	}
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	svc, _ := newAuthServiceForTests(t)

	_, _, _, err := svc.Login(context.Background(), "ghost@example.com", "Password123!")
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != apperrors.CodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %s", domainErr.Code)
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, users := newAuthServiceForTests(t)
	hash, _ := auth.HashPassword("Password123!", bcrypt.MinCost)
	users.seed(domain.User{Name: "Jamie", Email: "jamie@example.com", PasswordHash: hash, Role: domain.RoleUser, IsActive: false})

	_, _, _, err := svc.Login(context.Background(), "jamie@example.com", "Password123!")
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != apperrors.CodeAccountDeactivated {
		t.Fatalf("expected ACCOUNT_DEACTIVATED, got %s", domainErr.Code)
	}
	if domainErr.HTTPStatus != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", domainErr.HTTPStatus)
	}
}
