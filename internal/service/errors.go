package service

import (
	"errors"

	"github.com/Manuloff/customer-retention/internal/repository"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// storeError maps repository errors onto the domain taxonomy. Domain
// errors pass through untouched; anything unrecognised means the store
// could not serve the request.
func storeError(err error, resource string, details map[string]any) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrStale):
		return apperrors.NewStaleState(resource+" was modified concurrently", details)
	case errors.Is(err, repository.ErrUnknownColumn):
		return apperrors.NewValidationError("unknown field", details)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewInvalidState(resource+" conflicts with stored state", details)
	default:
		return apperrors.NewStoreUnavailable(err)
	}
}
