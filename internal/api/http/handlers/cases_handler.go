package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Manuloff/customer-retention/internal/api/dto"
	"github.com/Manuloff/customer-retention/internal/auth"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
	"github.com/Manuloff/customer-retention/internal/service"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// CasesHandler is the staff console for retention cases.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// ListCases GET /staff/cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	query := parseCaseQuery(c)
	filter := repository.CaseFilter{
		Statuses:   query.Statuses,
		ContractID: query.ContractID,
		Limit:      query.PageSize,
		Offset:     (query.Page - 1) * query.PageSize,
	}
	if query.Mine {
		filter.AssignedStaffID = &principal.User.ID
	}

	cases, err := h.service.ListCases(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.CaseResponse, 0, len(cases))
	for i := range cases {
		items = append(items, caseResponse(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /staff/cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	rc, err := h.service.GetCase(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(rc)})
}

// ResolveCase POST /staff/cases/:id/resolve.
func (h *CasesHandler) ResolveCase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.ResolveCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.ResolveByStaff(c.UserContext(), id, req.Decision, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(result.Case)})
}

func parseCaseQuery(c *fiber.Ctx) dto.CaseListQuery {
	query := dto.CaseListQuery{
		Mine:     c.QueryBool("mine"),
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			query.Statuses = append(query.Statuses, domain.CaseStatus(strings.TrimSpace(part)))
		}
	}
	if contractID := strings.TrimSpace(c.Query("contract_id")); contractID != "" {
		query.ContractID = &contractID
	}
	return query
}

func parseID(val string) (int64, error) {
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": val})
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func caseResponse(rc *domain.RetentionCase) dto.CaseResponse {
	return dto.CaseResponse{
		ID:              rc.ID,
		ContractID:      rc.ContractID,
		InitialReason:   rc.InitialReason,
		ProposedOfferID: rc.ProposedOfferID,
		AssignedStaffID: rc.AssignedStaffID,
		Status:          rc.Status,
		CreatedAt:       rc.CreatedAt,
		CompletedAt:     rc.CompletedAt,
	}
}
