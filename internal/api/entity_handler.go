package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
)

// EntityHandler exposes listings, their activities and stray tasks.
type EntityHandler struct {
	listings repo.ListingRepo
	tasks    repo.TaskRepo
}

// NewEntityHandler constructs the handler.
func NewEntityHandler(listings repo.ListingRepo, tasks repo.TaskRepo) *EntityHandler {
	return &EntityHandler{listings: listings, tasks: tasks}
}

// ListListings handles GET /api/v1/listings.
func (h *EntityHandler) ListListings(c *fiber.Ctx) error {
	listings, err := h.listings.ListListings(c.Context(), parseLimit(c.Query("limit")))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": listings})
}

// GetListing handles GET /api/v1/listings/:id.
func (h *EntityHandler) GetListing(c *fiber.Ctx) error {
	listing, err := h.listings.GetListing(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "listing not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": listing})
}

// ListActivities handles GET /api/v1/listings/:id/activities.
func (h *EntityHandler) ListActivities(c *fiber.Ctx) error {
	activities, err := h.listings.ListActivities(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": activities})
}

// ListTasks handles GET /api/v1/tasks.
func (h *EntityHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListTasks(c.Context(), parseLimit(c.Query("limit")))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": tasks})
}

// GetTask handles GET /api/v1/tasks/:id.
func (h *EntityHandler) GetTask(c *fiber.Ctx) error {
	task, err := h.tasks.GetTask(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "task not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": task})
}

type updateTaskStatusRequest struct {
	Status domain.TaskStatus `json:"status"`
}

// UpdateTaskStatus handles PATCH /api/v1/tasks/:id/status.
func (h *EntityHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	var req updateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	switch req.Status {
	case domain.TaskStatusOpen, domain.TaskStatusNeedsInfo, domain.TaskStatusDone:
	default:
		return fiber.NewError(http.StatusBadRequest, "invalid status")
	}

	if err := h.tasks.UpdateTaskStatus(c.Context(), c.Params("id"), req.Status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "task not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": req.Status}})
}
