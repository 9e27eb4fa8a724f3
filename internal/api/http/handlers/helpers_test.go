package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (f *fakeUserRepo) seed(user domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	user.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Second)
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	matched := f.filtered(filter)
	if filter.SortBy == "name" {
		sort.Slice(matched, func(i, j int) bool {
			less := strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
			if strings.EqualFold(filter.SortOrder, "ASC") {
				return less
			}
			return !less
		})
	} else {
		sort.Slice(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeUserRepo) Count(_ context.Context, filter repository.UserFilter) (int, error) {
	return len(f.filtered(filter)), nil
}

func (f *fakeUserRepo) filtered(filter repository.UserFilter) []domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.Name), needle) &&
				!strings.Contains(strings.ToLower(user.Email), needle) {
				continue
			}
		}
		matched = append(matched, user)
	}
	return matched
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLog
}

func (f *fakeActivityRepo) Insert(_ context.Context, entry *domain.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.ActivityLog
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID {
			matched = append(matched, f.entries[i])
		}
	}
	if offset > 0 {
		if offset >= len(matched) {
			return nil, nil
		}
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeActivityRepo) CountByUser(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, entry := range f.entries {
		if entry.UserID == userID {
			count++
		}
	}
	return count, nil
}

const (
	adminPassword = "AdminPassword123!"
	userPassword  = "UserPassword123!"
)

type testEnv struct {
	app        *fiber.App
	users      *fakeUserRepo
	tokens     *auth.TokenManager
	reportsDir string

	admin      domain.User
	adminToken string
	user       domain.User
	userToken  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserRepo()
	activity := &fakeActivityRepo{}
	logger := zap.NewNop()

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewActivityRecorder(activity, dispatcher, logger).RegisterHandlers()

	authCfg := config.AuthConfig{
		JWTSecret:               "test-secret",
		SessionTokenTTLMinutes:  60,
		ElevatedTokenTTLMinutes: 15,
		BcryptCost:              bcrypt.MinCost,
	}
	authService := service.NewAuthService(authCfg, users, dispatcher)
	tokens := authService.TokenManager()
	userService := service.NewUserService(users, dispatcher)
	adminService := service.NewAdminService(users, activity, dispatcher, bcrypt.MinCost)
	elevationService := service.NewElevationService(tokens, nil, dispatcher, logger)

	reportsDir := t.TempDir()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Admin:          handlers.NewAdminHandler(adminService, elevationService),
		Reports:        handlers.NewReportsHandler(reportsDir),
		AuthMiddleware: auth.NewMiddleware(tokens, users),
		Elevation:      elevationService,
	})

	env := &testEnv{app: app, users: users, tokens: tokens, reportsDir: reportsDir}

	adminHash, err := auth.HashPassword(adminPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	env.admin = users.seed(domain.User{
		Name:         "Admin Person",
		Email:        "admin@example.com",
		PasswordHash: adminHash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	})

	userHash, err := auth.HashPassword(userPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash user password: %v", err)
	}
	env.user = users.seed(domain.User{
		Name:         "Regular Person",
		Email:        "regular@example.com",
		PasswordHash: userHash,
		Role:         domain.RoleUser,
		IsActive:     true,
	})

	env.adminToken = env.sessionToken(t, env.admin)
	env.userToken = env.sessionToken(t, env.user)
	return env
}

func (env *testEnv) sessionToken(t *testing.T, user domain.User) string {
	t.Helper()
	token, _, err := env.tokens.GenerateSessionToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("generate session token: %v", err)
	}
	return token
}

// elevate performs the verify-password flow and returns the elevated token.
func (env *testEnv) elevate(t *testing.T, sessionToken, password string) string {
	t.Helper()
	status, body := env.request(t, http.MethodPost, "/api/admin/verify-password",
		map[string]any{"password": password},
		map[string]string{"Authorization": "Bearer " + sessionToken},
	)
	if status != http.StatusOK {
		t.Fatalf("verify-password returned %d: %v", status, body)
	}
	token, _ := body["elevatedToken"].(string)
	if token == "" {
		t.Fatalf("no elevated token in response: %v", body)
	}
	return token
}

func (env *testEnv) request(t *testing.T, method, path string, payload any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	body := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("unmarshal response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, body
}

func seedUser(t *testing.T, name, email string) domain.User {
	t.Helper()
	hash, err := auth.HashPassword(userPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
}

func seedAdmin(t *testing.T, name, email string) domain.User {
	t.Helper()
	hash, err := auth.HashPassword(adminPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func bearerElevated(sessionToken, elevatedToken string) map[string]string {
	return map[string]string{
		"Authorization":           "Bearer " + sessionToken,
		auth.ElevatedTokenHeader:  elevatedToken,
	}
}
