package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// AdminService manages the contract and offer catalogue.
type AdminService struct {
	contracts repository.ContractRepository
	offers    repository.OfferRepository
}

// AdminDependencies bundles repositories for the admin service.
type AdminDependencies struct {
	ContractRepo repository.ContractRepository
	OfferRepo    repository.OfferRepository
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{contracts: deps.ContractRepo, offers: deps.OfferRepo}
}

// contractParser turns the text form of one contract column into its value.
type contractParser func(value string) (any, error)

type offerSetter func(o *domain.Offer, value string) error

func trimmed(v string) (any, error) { return strings.TrimSpace(v), nil }

var contractFields = map[string]contractParser{
	"client_id":       func(v string) (any, error) { return parseInt(v) },
	"last_name":       trimmed,
	"first_name":      trimmed,
	"middle_name":     trimmed,
	"email":           trimmed,
	"phone":           trimmed,
	"can_be_retained": func(v string) (any, error) { return parseBool(v) },
	"monthly_profit":  func(v string) (any, error) { return parseAmount(v) },
	"active":          func(v string) (any, error) { return parseBool(v) },
}

var offerFields = map[string]offerSetter{
	"offer_type": func(o *domain.Offer, v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return errFieldEmpty
		}
		o.Type = v
		return nil
	},
	"description": func(o *domain.Offer, v string) error { o.Description = strings.TrimSpace(v); return nil },
	"min_profit_threshold": func(o *domain.Offer, v string) error {
		f, err := parseAmount(v)
		o.MinProfitThreshold = f
		return err
	},
	"cost": func(o *domain.Offer, v string) error {
		f, err := parseAmount(v)
		o.Cost = f
		return err
	},
}

// ContractFields lists the editable contract fields.
func ContractFields() []string { return fieldNames(contractFields) }

// OfferFields lists the editable offer fields.
func OfferFields() []string { return fieldNames(offerFields) }

// CreateContract stores a new contract.
func (s *AdminService) CreateContract(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return nil, apperrors.NewValidationError("contract_id required", nil)
	}
	if c.MonthlyProfit < 0 {
		return nil, apperrors.NewValidationError("monthly_profit must be non-negative", nil)
	}
	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, storeError(err, "contract", map[string]any{"contract_id": c.ID})
	}
	return c, nil
}

// GetContract loads one contract.
func (s *AdminService) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "contract", map[string]any{"contract_id": id})
	}
	return c, nil
}

// ListContracts pages through contracts ordered by id.
func (s *AdminService) ListContracts(ctx context.Context, limit, offset int) ([]domain.Contract, error) {
	list, err := s.contracts.List(ctx, limit, offset)
	if err != nil {
		return nil, storeError(err, "contract", nil)
	}
	return list, nil
}

// DeleteContract removes a contract that has no cases.
func (s *AdminService) DeleteContract(ctx context.Context, id string) error {
	return storeError(s.contracts.Delete(ctx, id), "contract", map[string]any{"contract_id": id})
}

// UpdateContractField sets one named field from its text form. Only that
// column is written, so a concurrent churn keeps its deactivation.
func (s *AdminService) UpdateContractField(ctx context.Context, id, field, value string) (*domain.Contract, error) {
	parse, ok := contractFields[field]
	if !ok {
		return nil, unknownField(field, ContractFields())
	}
	parsed, err := parse(value)
	if err != nil {
		return nil, invalidValue(field, value, err)
	}
	if err := s.contracts.UpdateField(ctx, id, field, parsed); err != nil {
		return nil, storeError(err, "contract", map[string]any{"contract_id": id})
	}
	return s.GetContract(ctx, id)
}

// CreateOffer stores a new offer and assigns its id.
func (s *AdminService) CreateOffer(ctx context.Context, o *domain.Offer) (*domain.Offer, error) {
	o.Type = strings.TrimSpace(o.Type)
	if o.Type == "" {
		return nil, apperrors.NewValidationError("offer_type required", nil)
	}
	if err := o.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, storeError(err, "offer", nil)
	}
	return o, nil
}

// GetOffer loads one offer.
func (s *AdminService) GetOffer(ctx context.Context, id int64) (*domain.Offer, error) {
	o, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "offer", map[string]any{"offer_id": id})
	}
	return o, nil
}

// ListOffers returns the full catalogue ordered by id.
func (s *AdminService) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	list, err := s.offers.List(ctx)
	if err != nil {
		return nil, storeError(err, "offer", nil)
	}
	return list, nil
}

// DeleteOffer removes an offer. Cases that proposed it keep no reference.
func (s *AdminService) DeleteOffer(ctx context.Context, id int64) error {
	return storeError(s.offers.Delete(ctx, id), "offer", map[string]any{"offer_id": id})
}

// UpdateOfferField sets one named field from its text form.
func (s *AdminService) UpdateOfferField(ctx context.Context, id int64, field, value string) (*domain.Offer, error) {
	setter, ok := offerFields[field]
	if !ok {
		return nil, unknownField(field, OfferFields())
	}
	o, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := setter(o, value); err != nil {
		return nil, invalidValue(field, value, err)
	}
	if err := s.offers.Update(ctx, o); err != nil {
		return nil, storeError(err, "offer", map[string]any{"offer_id": id})
	}
	return o, nil
}

func unknownField(field string, allowed []string) error {
	return apperrors.NewValidationError("unknown field", map[string]any{"field": field, "allowed": allowed})
}

func invalidValue(field, value string, err error) error {
	return apperrors.NewValidationError("invalid value for "+field,
		map[string]any{"field": field, "value": value, "reason": err.Error()})
}

func fieldNames[T any](fields map[string]T) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

const (
	errFieldEmpty   fieldError = "must not be empty"
	errNotANumber   fieldError = "must be a number"
	errNotAnInteger fieldError = "must be an integer"
	errNegative     fieldError = "must be non-negative"
	errNotABoolean  fieldError = "must be yes or no"
)

func parseInt(v string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, errNotAnInteger
	}
	return n, nil
}

// parseAmount accepts both "12.5" and "12,5".
func parseAmount(v string) (float64, error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errNotANumber
	}
	if f < 0 {
		return 0, errNegative
	}
	return f, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "да":
		return true, nil
	case "0", "false", "no", "n", "нет":
		return false, nil
	}
	return false, errNotABoolean
}
