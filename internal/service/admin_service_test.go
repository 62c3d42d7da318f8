package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

func newAdmin(t *testing.T) (*AdminService, *fixture) {
	f := newFixture(t, FirstSelector{})
	return NewAdminService(AdminDependencies{
		ContractRepo: f.store.Contracts(),
		OfferRepo:    f.store.Offers(),
	}), f
}

func TestAdmin_UpdateContractFieldCoercesTypes(t *testing.T) {
	admin, f := newAdmin(t)
	ctx := context.Background()
	f.addContract(t, "X", 100, true)

	cases := []struct {
		field, value string
		check        func(*domain.Contract)
	}{
		{"client_id", "77", func(c *domain.Contract) { assert.Equal(t, int64(77), c.ClientID) }},
		{"monthly_profit", "1234,5", func(c *domain.Contract) { assert.InDelta(t, 1234.5, c.MonthlyProfit, 0.001) }},
		{"can_be_retained", "no", func(c *domain.Contract) { assert.False(t, c.CanBeRetained) }},
		{"active", "да", func(c *domain.Contract) { assert.True(t, c.Active) }},
		{"email", " a@b.c ", func(c *domain.Contract) { assert.Equal(t, "a@b.c", c.Email) }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			updated, err := admin.UpdateContractField(ctx, "X", tc.field, tc.value)
			require.NoError(t, err)
			tc.check(updated)

			stored, err := admin.GetContract(ctx, "X")
			require.NoError(t, err)
			tc.check(stored)
		})
	}
}

// churningContracts deactivates the contract right after the first read,
// the way a case churning between an admin's read and write would.
type churningContracts struct {
	repository.ContractRepository
	churned bool
}

func (c *churningContracts) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	contract, err := c.ContractRepository.GetByID(ctx, id)
	if err == nil && !c.churned {
		c.churned = true
		if err := c.ContractRepository.SetActive(ctx, id, false); err != nil {
			return nil, err
		}
	}
	return contract, err
}

func TestAdmin_UpdateContractFieldKeepsConcurrentDeactivation(t *testing.T) {
	f := newFixture(t, FirstSelector{})
	ctx := context.Background()
	f.addContract(t, "X", 100, true)
	admin := NewAdminService(AdminDependencies{
		ContractRepo: &churningContracts{ContractRepository: f.store.Contracts()},
		OfferRepo:    f.store.Offers(),
	})

	_, err := admin.UpdateContractField(ctx, "X", "email", "new@example.com")
	require.NoError(t, err)

	stored, err := f.store.Contracts().GetByID(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.False(t, stored.Active)
}

func TestAdmin_UpdateFieldRejectsUnknownAndInvalid(t *testing.T) {
	admin, f := newAdmin(t)
	ctx := context.Background()
	f.addContract(t, "X", 100, true)
	offer := f.addOffer(t, 10, 1)

	_, err := admin.UpdateContractField(ctx, "X", "contract_id", "Y")
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, "unknown field", de.Message)

	_, err = admin.UpdateContractField(ctx, "X", "monthly_profit", "-5")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = admin.UpdateContractField(ctx, "X", "can_be_retained", "maybe")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = admin.UpdateOfferField(ctx, offer.ID, "offer_type", "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = admin.UpdateOfferField(ctx, offer.ID, "id", "3")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = admin.UpdateContractField(ctx, "missing", "email", "x")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAdmin_OfferLifecycle(t *testing.T) {
	admin, _ := newAdmin(t)
	ctx := context.Background()

	_, err := admin.CreateOffer(ctx, &domain.Offer{Type: "discount", Cost: -1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	offer, err := admin.CreateOffer(ctx, &domain.Offer{Type: " upgrade ", MinProfitThreshold: 10, Cost: 2})
	require.NoError(t, err)
	assert.Equal(t, "upgrade", offer.Type)

	updated, err := admin.UpdateOfferField(ctx, offer.ID, "cost", "3.75")
	require.NoError(t, err)
	assert.InDelta(t, 3.75, updated.Cost, 0.001)

	require.NoError(t, admin.DeleteOffer(ctx, offer.ID))
	_, err = admin.GetOffer(ctx, offer.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAdmin_ContractWithCasesCannotBeDeleted(t *testing.T) {
	admin, f := newAdmin(t)
	ctx := context.Background()
	f.addOffer(t, 0, 1)
	f.addContract(t, "X", 100, true)
	f.openWithOffer(t, "X")

	err := admin.DeleteContract(ctx, "X")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = admin.CreateContract(ctx, &domain.Contract{ID: "X", MonthlyProfit: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = admin.CreateContract(ctx, &domain.Contract{ID: " "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestFieldNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"cost", "description", "min_profit_threshold", "offer_type"}, OfferFields())
	assert.Contains(t, ContractFields(), "monthly_profit")
	assert.IsIncreasing(t, ContractFields())
}
