package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// AdminHandler exposes the admin console endpoints. The route guards have
// already enforced admin role and, where required, an elevated session.
type AdminHandler struct {
	admin     *service.AdminService
	elevation *service.ElevationService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService, elevationService *service.ElevationService) *AdminHandler {
	return &AdminHandler{admin: adminService, elevation: elevationService}
}

// VerifyPassword handles POST /api/admin/verify-password.
func (h *AdminHandler) VerifyPassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "Authentication required")
	}

	var req dto.VerifyPasswordRequest
	// An empty or absent body means no password supplied; the service
	// rejects that before touching the verifier.
	_ = c.BodyParser(&req)

	token, expiresAt, err := h.elevation.RequestElevation(c.Context(), principal, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.VerifyPasswordResponse{
		ElevatedToken: token,
		ExpiresAt:     expiresAt,
		Message:       "Elevated session granted",
	})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	query := service.AdminListQuery{
		Role:      c.Query("role"),
		Search:    c.Query("search"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("is_active must be true or false")
		}
		query.IsActive = &isActive
	}

	users, pagination, err := h.admin.ListUsers(c.Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"users":      dto.NewUserResponses(users),
		"pagination": pagination,
	})
}

// GetUser handles GET /api/admin/users/:id.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, stats, recent, err := h.admin.GetUserDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	resp := dto.NewUserResponse(user)
	return c.JSON(fiber.Map{
		"id":             resp.ID,
		"name":           resp.Name,
		"email":          resp.Email,
		"role":           resp.Role,
		"is_active":      resp.IsActive,
		"created_at":     resp.CreatedAt,
		"updated_at":     resp.UpdatedAt,
		"stats":          stats,
		"recentActivity": dto.NewActivityEntries(recent),
	})
}

// ChangeRole handles PUT /api/admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	user, err := h.admin.ChangeRole(c.Context(), principal, c.Params("id"), req.Role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User role updated successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// ResetPassword handles PUT /api/admin/users/:id/password.
func (h *AdminHandler) ResetPassword(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	user, err := h.admin.ResetPassword(c.Context(), principal, c.Params("id"), req.NewPassword)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User password reset successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// ChangeStatus handles PUT /api/admin/users/:id/status.
func (h *AdminHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}
	if req.IsActive == nil {
		return apperrors.NewValidationError("is_active is required")
	}

	user, err := h.admin.ChangeStatus(c.Context(), principal, c.Params("id"), *req.IsActive)
	if err != nil {
		return err
	}

	message := "User account deactivated successfully"
	if *req.IsActive {
		message = "User account activated successfully"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"user":    dto.NewUserResponse(user),
	})
}

// Activity handles GET /api/admin/users/:id/activity.
func (h *AdminHandler) Activity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.admin.Activity(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"activity": dto.NewActivityEntries(entries),
		"pagination": dto.OffsetPagination{
			Limit:      limit,
			Offset:     offset,
			TotalCount: total,
		},
	})
}
