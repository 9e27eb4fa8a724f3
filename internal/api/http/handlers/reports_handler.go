package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// ReportsHandler serves generated markdown coverage reports read-only.
type ReportsHandler struct {
	dir string
}

// NewReportsHandler constructs handler. dir is the directory the report
// files are written into by the test tooling.
func NewReportsHandler(dir string) *ReportsHandler {
	return &ReportsHandler{dir: dir}
}

// ClientCoverage handles GET /api/reports/coverage/client.
func (h *ReportsHandler) ClientCoverage(c *fiber.Ctx) error {
	return h.serve(c, "client-coverage.md")
}

// ServerCoverage handles GET /api/reports/coverage/server.
func (h *ReportsHandler) ServerCoverage(c *fiber.Ctx) error {
	return h.serve(c, "server-coverage.md")
}

func (h *ReportsHandler) serve(c *fiber.Ctx, name string) error {
	path := filepath.Join(h.dir, name)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewDomainError(apperrors.CodeNotFound, "Coverage report not found", fiber.StatusNotFound, map[string]any{
				"report": name,
			})
		}
		return apperrors.NewInternalError(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"markdown":     string(content),
		"lastModified": info.ModTime(),
		"size":         info.Size(),
	})
}
