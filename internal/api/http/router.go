package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Admin          *handlers.AdminHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.Middleware
	Elevation      auth.ElevationChecker
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	users := api.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	users.Get("/", cfg.Users.List)
	// "/me" must be registered before "/:id".
	users.Get("/me", cfg.Users.Me)
	users.Get("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Get)
	users.Put("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Update)
	users.Delete("/:id", auth.RequireOwnerOrAdmin("id"), cfg.Users.Delete)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/verify-password", cfg.Admin.VerifyPassword)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/users/:id", cfg.Admin.GetUser)
	admin.Put("/users/:id/role", auth.RequireElevated(cfg.Elevation), cfg.Admin.ChangeRole)
	admin.Put("/users/:id/password", auth.RequireElevated(cfg.Elevation), cfg.Admin.ResetPassword)
	admin.Put("/users/:id/status", auth.RequireElevated(cfg.Elevation), cfg.Admin.ChangeStatus)
	admin.Get("/users/:id/activity", cfg.Admin.Activity)

	reports := api.Group("/reports")
	reports.Get("/coverage/client", cfg.Reports.ClientCoverage)
	reports.Get("/coverage/server", cfg.Reports.ServerCoverage)
}
