package repository

import (
	"context"
	"errors"

	"github.com/Manuloff/customer-retention/internal/domain"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness or
	// reference constraint.
	ErrConflict = errors.New("constraint conflict")
	// ErrStale is returned when a conditional update finds the record in a
	// different state than expected.
	ErrStale = errors.New("stale record state")
	// ErrUnknownColumn is returned by single-column updates naming a column
	// outside the editable set.
	ErrUnknownColumn = errors.New("unknown column")
)

// EditableContractColumns lists the contract columns UpdateField may write.
var EditableContractColumns = map[string]bool{
	"client_id":       true,
	"last_name":       true,
	"first_name":      true,
	"middle_name":     true,
	"email":           true,
	"phone":           true,
	"can_be_retained": true,
	"monthly_profit":  true,
	"active":          true,
}

// ContractRepository encapsulates contract persistence.
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) error
	// UpdateField writes a single column listed in EditableContractColumns.
	UpdateField(ctx context.Context, id, column string, value any) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Contract, error)
	GetByClientID(ctx context.Context, clientID int64) (*domain.Contract, error)
	List(ctx context.Context, limit, offset int) ([]domain.Contract, error)
}

// OfferRepository encapsulates retention offer persistence.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	Update(ctx context.Context, offer *domain.Offer) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Offer, error)
	// List returns every offer ordered by ascending id.
	List(ctx context.Context) ([]domain.Offer, error)
}

// CaseFilter captures listing parameters for retention cases.
type CaseFilter struct {
	Statuses        []domain.CaseStatus
	AssignedStaffID *int64
	ContractID      *string
	Limit           int
	Offset          int
}

// CaseRepository encapsulates retention case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.RetentionCase) error
	// Transition persists status, assignment and completion of c only if
	// the stored status still equals from. Otherwise it returns ErrStale.
	Transition(ctx context.Context, c *domain.RetentionCase, from domain.CaseStatus) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.RetentionCase, error)
	GetOpenForContract(ctx context.Context, contractID string) (*domain.RetentionCase, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.RetentionCase, error)
	MonthlyOutcomes(ctx context.Context) ([]domain.OutcomeBucket, error)
}

// UserRepository encapsulates chat user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// ListByRole returns users with role ordered by ascending id.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// Store groups the repositories of one backend. Repositories obtained from
// the Store passed to WithinTx share a single transaction.
type Store interface {
	Contracts() ContractRepository
	Offers() OfferRepository
	Cases() CaseRepository
	Users() UserRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

func normalizeLimit(limit, offset, fallback int) (int, int) {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
