package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// ElevatedTokenHeader carries the elevated token separately from the bearer
// session token so the two are validated independently.
const ElevatedTokenHeader = "x-elevated-token"

// ElevationChecker reports whether an elevated token is present, valid, and
// issued for the given principal. Absence is a normal negative outcome.
type ElevationChecker interface {
	CheckElevated(principalID, elevatedToken string) bool
}

// RequireAuthenticated ensures a principal was loaded by the auth middleware.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "Authentication required")
		}
		return c.Next()
	}
}

// RequireOwnerOrAdmin admits the owner of the targeted resource or any
// admin. The route parameter named by idParam carries the resource owner id.
func RequireOwnerOrAdmin(idParam string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "Authentication required")
		}
		if principal.ID == c.Params(idParam) || principal.IsAdmin() {
			return c.Next()
		}
		return apperrors.NewForbidden(apperrors.CodeForbidden, "Access denied")
	}
}

// RequireAdmin admits only principals holding the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "Authentication required")
		}
		if !principal.IsAdmin() {
			return apperrors.NewForbidden(apperrors.CodeAdminRequired, "Admin access required")
		}
		return c.Next()
	}
}

// RequireElevated admits only requests carrying a valid elevated token for
// the same principal as the base session. It runs after RequireAdmin; a
// missing, expired, or mismatched token gets a uniform deny.
func RequireElevated(checker ElevationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(apperrors.CodeUnauthorized, "Authentication required")
		}
		if !checker.CheckElevated(principal.ID, c.Get(ElevatedTokenHeader)) {
			return apperrors.NewForbidden(apperrors.CodeElevationRequired, "Elevated session required. Please re-authenticate.")
		}
		return c.Next()
	}
}
