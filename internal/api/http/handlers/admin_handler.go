package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Manuloff/customer-retention/internal/api/dto"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/service"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// AdminHandler edits contracts and offers and serves outcome analytics.
type AdminHandler struct {
	admin *service.AdminService
	stats *service.StatsService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{admin: admin, stats: stats}
}

// Fields GET /admin/fields.
func (h *AdminHandler) Fields(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"contract": service.ContractFields(),
		"offer":    service.OfferFields(),
	}})
}

// CreateContract POST /admin/contracts.
func (h *AdminHandler) CreateContract(c *fiber.Ctx) error {
	var req dto.ContractRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contract := &domain.Contract{
		ID:            req.ID,
		ClientID:      req.ClientID,
		LastName:      req.LastName,
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		Email:         req.Email,
		Phone:         req.Phone,
		CanBeRetained: req.CanBeRetained,
		MonthlyProfit: req.MonthlyProfit,
		Active:        true,
	}
	if req.Active != nil {
		contract.Active = *req.Active
	}
	created, err := h.admin.CreateContract(c.UserContext(), contract)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": contractResponse(created)})
}

// ListContracts GET /admin/contracts.
func (h *AdminHandler) ListContracts(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	contracts, err := h.admin.ListContracts(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ContractResponse, 0, len(contracts))
	for i := range contracts {
		items = append(items, contractResponse(&contracts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetContract GET /admin/contracts/:id.
func (h *AdminHandler) GetContract(c *fiber.Ctx) error {
	contract, err := h.admin.GetContract(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contractResponse(contract)})
}

// UpdateContract PATCH /admin/contracts/:id.
func (h *AdminHandler) UpdateContract(c *fiber.Ctx) error {
	var req dto.FieldUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contract, err := h.admin.UpdateContractField(c.UserContext(), c.Params("id"), req.Field, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contractResponse(contract)})
}

// DeleteContract DELETE /admin/contracts/:id.
func (h *AdminHandler) DeleteContract(c *fiber.Ctx) error {
	if err := h.admin.DeleteContract(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateOffer POST /admin/offers.
func (h *AdminHandler) CreateOffer(c *fiber.Ctx) error {
	var req dto.OfferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	offer, err := h.admin.CreateOffer(c.UserContext(), &domain.Offer{
		Type:               req.Type,
		Description:        req.Description,
		MinProfitThreshold: req.MinProfitThreshold,
		Cost:               req.Cost,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": offerResponse(offer)})
}

// ListOffers GET /admin/offers.
func (h *AdminHandler) ListOffers(c *fiber.Ctx) error {
	offers, err := h.admin.ListOffers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.OfferResponse, 0, len(offers))
	for i := range offers {
		items = append(items, offerResponse(&offers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetOffer GET /admin/offers/:id.
func (h *AdminHandler) GetOffer(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	offer, err := h.admin.GetOffer(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": offerResponse(offer)})
}

// UpdateOffer PATCH /admin/offers/:id.
func (h *AdminHandler) UpdateOffer(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.FieldUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	offer, err := h.admin.UpdateOfferField(c.UserContext(), id, req.Field, req.Value)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": offerResponse(offer)})
}

// DeleteOffer DELETE /admin/offers/:id.
func (h *AdminHandler) DeleteOffer(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.admin.DeleteOffer(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Stats GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	summary, err := h.stats.MonthlyOutcomes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

func contractResponse(c *domain.Contract) dto.ContractResponse {
	return dto.ContractResponse{
		ID:            c.ID,
		ClientID:      c.ClientID,
		FullName:      c.FullName(),
		LastName:      c.LastName,
		FirstName:     c.FirstName,
		MiddleName:    c.MiddleName,
		Email:         c.Email,
		Phone:         c.Phone,
		CanBeRetained: c.CanBeRetained,
		MonthlyProfit: c.MonthlyProfit,
		Active:        c.Active,
	}
}

func offerResponse(o *domain.Offer) dto.OfferResponse {
	return dto.OfferResponse{
		ID:                 o.ID,
		Type:               o.Type,
		Description:        o.Description,
		MinProfitThreshold: o.MinProfitThreshold,
		Cost:               o.Cost,
	}
}
