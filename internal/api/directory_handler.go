package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/auth"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
)

// DirectoryHandler manages the realtor directory and staff accounts.
type DirectoryHandler struct {
	realtors repo.RealtorRepo
	staff    repo.StaffRepo
	tokens   *auth.TokenManager
}

// NewDirectoryHandler constructs the handler.
func NewDirectoryHandler(realtors repo.RealtorRepo, staff repo.StaffRepo, tokens *auth.TokenManager) *DirectoryHandler {
	return &DirectoryHandler{realtors: realtors, staff: staff, tokens: tokens}
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login handles POST /api/v1/auth/login. Access control is
// directory-based: only registered staff emails receive a token.
func (h *DirectoryHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	member, err := h.staff.GetStaffByEmail(c.Context(), email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "unknown staff email")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, expiresAt, err := h.tokens.GenerateToken(member.ID, member.Email)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff":      member,
			"token":      token,
			"expires_at": expiresAt,
		},
	})
}

type createRealtorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateRealtor handles POST /api/v1/realtors.
func (h *DirectoryHandler) CreateRealtor(c *fiber.Ctx) error {
	var req createRealtorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(http.StatusBadRequest, "name required")
	}

	realtor := &domain.Realtor{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	if _, err := h.realtors.InsertRealtor(c.Context(), realtor); err != nil {
		if repo.IsDuplicate(err) {
			return fiber.NewError(http.StatusConflict, "realtor email already registered")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": realtor})
}

// ListRealtors handles GET /api/v1/realtors.
func (h *DirectoryHandler) ListRealtors(c *fiber.Ctx) error {
	realtors, err := h.realtors.ListRealtors(c.Context())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": realtors})
}

type createStaffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateStaff handles POST /api/v1/staff.
func (h *DirectoryHandler) CreateStaff(c *fiber.Ctx) error {
	var req createStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return fiber.NewError(http.StatusBadRequest, "name and email required")
	}

	member := &domain.StaffMember{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Role:  strings.TrimSpace(req.Role),
	}
	if _, err := h.staff.InsertStaff(c.Context(), member); err != nil {
		if repo.IsDuplicate(err) {
			return fiber.NewError(http.StatusConflict, "staff email already registered")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": member})
}

// ListStaff handles GET /api/v1/staff.
func (h *DirectoryHandler) ListStaff(c *fiber.Ctx) error {
	members, err := h.staff.ListStaff(c.Context())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"data": members})
}
