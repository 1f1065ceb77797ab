package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/service"
)

// IntakeHandler exposes read access to intake records and queue state.
type IntakeHandler struct {
	records repo.IntakeRepo
	intake  *service.IntakeService
}

// NewIntakeHandler constructs the handler.
func NewIntakeHandler(records repo.IntakeRepo, intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{records: records, intake: intake}
}

// List handles GET /api/v1/intake-records.
func (h *IntakeHandler) List(c *fiber.Ctx) error {
	limit := parseLimit(c.Query("limit"))
	records, err := h.records.ListIntakeRecords(c.Context(), limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": records})
}

// Get handles GET /api/v1/intake-records/:id.
func (h *IntakeHandler) Get(c *fiber.Ctx) error {
	rec, err := h.records.GetIntakeRecord(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "intake record not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": rec})
}

// QueueStats handles GET /api/v1/queue/stats.
func (h *IntakeHandler) QueueStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.intake.QueueStats()})
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
