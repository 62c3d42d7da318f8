package service

import (
	"context"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
)

// MatchOffers returns every offer the contract qualifies for, keeping the
// input order.
func MatchOffers(contract *domain.Contract, offers []domain.Offer) []domain.Offer {
	eligible := make([]domain.Offer, 0, len(offers))
	for i := range offers {
		if offers[i].EligibleFor(contract) {
			eligible = append(eligible, offers[i])
		}
	}
	return eligible
}

// OfferMatcher resolves eligible offers against the stored catalogue.
type OfferMatcher struct {
	store repository.Store
}

// NewOfferMatcher constructs the matcher.
func NewOfferMatcher(store repository.Store) *OfferMatcher {
	return &OfferMatcher{store: store}
}

// FindEligible returns eligible offers ordered by ascending offer id. An
// empty result is not an error.
func (m *OfferMatcher) FindEligible(ctx context.Context, contract *domain.Contract) ([]domain.Offer, error) {
	return findEligible(ctx, m.store.Offers(), contract)
}

func findEligible(ctx context.Context, offers repository.OfferRepository, contract *domain.Contract) ([]domain.Offer, error) {
	all, err := offers.List(ctx)
	if err != nil {
		return nil, storeError(err, "offer", nil)
	}
	return MatchOffers(contract, all), nil
}
