package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Manuloff/customer-retention/internal/api/dto"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/service"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// StaffHandler exposes staff authentication.
type StaffHandler struct {
	authService *service.AuthService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService) *StaffHandler {
	return &StaffHandler{authService: authService}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID <= 0 || req.Password == "" {
		return apperrors.NewValidationError("user_id and password required", nil)
	}

	staff, token, exp, err := h.authService.LoginStaff(c.UserContext(), req.UserID, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(staff),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

func staffResponse(u *domain.User) dto.StaffResponse {
	return dto.StaffResponse{ID: u.ID, DisplayName: u.DisplayName, Role: string(u.Role)}
}
