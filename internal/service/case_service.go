package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/events"
	"github.com/Manuloff/customer-retention/internal/observability"
	"github.com/Manuloff/customer-retention/internal/repository"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// CaseService owns the retention case lifecycle. It is the only writer of
// case status, assignment and completion time.
type CaseService struct {
	store         repository.Store
	notifier      *NotificationService
	selector      Selector
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
	contractLocks *KeyedLocker
	caseLocks     *KeyedLocker
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	Store      repository.Store
	Notifier   *NotificationService
	Selector   Selector
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// OpenCaseResult is the outcome of a cancellation request. Offer is nil
// when the case was closed immediately.
type OpenCaseResult struct {
	Case  *domain.RetentionCase
	Offer *domain.Offer
}

// Closed reports whether the case reached a terminal status on creation.
func (r *OpenCaseResult) Closed() bool {
	return r.Case.Status.IsTerminal()
}

// ResolveResult is the outcome of an offer or staff decision.
type ResolveResult struct {
	Case *domain.RetentionCase
	// AssignedStaff is set when the case was escalated.
	AssignedStaff *domain.User
	// Notified reports whether the escalation notice was delivered.
	Notified bool
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	selector := deps.Selector
	if selector == nil {
		selector = RandomSelector{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{
		store:         deps.Store,
		notifier:      deps.Notifier,
		selector:      selector,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		now:           clock,
		contractLocks: NewKeyedLocker(),
		caseLocks:     NewKeyedLocker(),
	}
}

// NormalizeReason canonicalizes a free-text cancellation reason. Blank
// input becomes domain.ReasonNotSpecified.
func NormalizeReason(reason string) string {
	reason = strings.TrimSpace(norm.NFC.String(reason))
	if reason == "" {
		return domain.ReasonNotSpecified
	}
	return reason
}

// OpenCase starts a retention case for the contract. A contract that
// cannot be retained, or qualifies for no offer, gets a case that is
// churned on creation and the contract is deactivated.
func (s *CaseService) OpenCase(ctx context.Context, contractID, reason string) (*OpenCaseResult, error) {
	unlock := s.contractLocks.Lock(contractID)
	defer unlock()

	details := map[string]any{"contract_id": contractID}
	now := s.now().UTC()
	var (
		result *OpenCaseResult
		cause  string
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		contract, err := tx.Contracts().GetByID(ctx, contractID)
		if err != nil {
			return storeError(err, "contract", details)
		}
		if !contract.Active {
			return apperrors.NewInvalidState("contract inactive", details)
		}
		if err := ensureNoOpenCase(ctx, tx, contractID); err != nil {
			return err
		}

		c := &domain.RetentionCase{
			ContractID:    contractID,
			InitialReason: NormalizeReason(reason),
			CreatedAt:     now,
			Status:        domain.CaseStatusActive,
		}

		var offer *domain.Offer
		if contract.CanBeRetained {
			eligible, err := findEligible(ctx, tx.Offers(), contract)
			if err != nil {
				return err
			}
			if len(eligible) > 0 {
				chosen := eligible[s.selector.Pick(len(eligible))]
				offer = &chosen
				c.ProposedOfferID = &chosen.ID
			}
		}
		if offer == nil {
			cause = events.CauseNoOffer
			if !contract.CanBeRetained {
				cause = events.CauseNotRetainable
			}
			c.Close(domain.CaseStatusChurned, now)
		}

		if err := tx.Cases().Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.NewInvalidState("case already open", details)
			}
			return storeError(err, "case", details)
		}
		if offer == nil {
			if err := tx.Contracts().SetActive(ctx, contractID, false); err != nil {
				return storeError(err, "contract", details)
			}
		}
		result = &OpenCaseResult{Case: c, Offer: offer}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "case", details)
	}

	c := result.Case
	s.publish(ctx, events.EventCaseOpened, c, clientActor(), events.CaseOpenedPayload{
		Reason:          c.InitialReason,
		ProposedOfferID: c.ProposedOfferID,
	})
	if result.Closed() {
		s.recordClosure(ctx, c, domain.CaseStatusActive, cause, systemActor())
	}
	s.logger.Info("retention case opened",
		zap.Int64("case_id", c.ID),
		zap.String("contract_id", contractID),
		zap.String("status", string(c.Status)))
	return result, nil
}

// ResolveOffer records the client's answer to the proposed offer. A
// decline escalates to a staff member or, with no staff available, churns
// the case and deactivates the contract.
func (s *CaseService) ResolveOffer(ctx context.Context, caseID int64, accepted bool) (*ResolveResult, error) {
	result, contract, err := s.resolveOfferLocked(ctx, caseID, accepted)
	if err != nil {
		return nil, err
	}

	c := result.Case
	switch c.Status {
	case domain.CaseStatusRetained:
		s.recordClosure(ctx, c, domain.CaseStatusActive, events.CauseAccepted, clientActor())
	case domain.CaseStatusChurned:
		s.recordClosure(ctx, c, domain.CaseStatusActive, events.CauseNoStaff, clientActor())
	case domain.CaseStatusEscalated:
		s.metrics.RecordOutcome(string(c.Status))
		s.publish(ctx, events.EventCaseEscalated, c, clientActor(), events.CaseEscalatedPayload{
			AssignedStaffID: result.AssignedStaff.ID,
		})
		if s.notifier != nil {
			notice := EscalationNotice{
				StaffID:    result.AssignedStaff.ID,
				CaseID:     c.ID,
				ContractID: c.ContractID,
				Reason:     c.InitialReason,
				ClientID:   contract.ClientID,
				ClientName: contract.FullName(),
			}
			result.Notified = s.notifier.Notify(ctx, notice) == nil
		}
	}
	s.logger.Info("offer decision recorded",
		zap.Int64("case_id", c.ID),
		zap.Bool("accepted", accepted),
		zap.String("status", string(c.Status)))
	return result, nil
}

func (s *CaseService) resolveOfferLocked(ctx context.Context, caseID int64, accepted bool) (*ResolveResult, *domain.Contract, error) {
	unlock := s.caseLocks.Lock(caseKey(caseID))
	defer unlock()

	details := map[string]any{"case_id": caseID}
	now := s.now().UTC()
	result := &ResolveResult{}
	var contract *domain.Contract

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.Cases().GetByID(ctx, caseID)
		if err != nil {
			return storeError(err, "case", details)
		}
		if c.Status != domain.CaseStatusActive {
			return apperrors.NewInvalidState("case is not awaiting an offer decision",
				map[string]any{"case_id": caseID, "status": string(c.Status)})
		}
		contract, err = tx.Contracts().GetByID(ctx, c.ContractID)
		if err != nil {
			return storeError(err, "contract", map[string]any{"contract_id": c.ContractID})
		}

		from := c.Status
		if accepted {
			c.Close(domain.CaseStatusRetained, now)
		} else {
			candidates, err := s.candidates(ctx, tx)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				c.Close(domain.CaseStatusChurned, now)
				if err := tx.Contracts().SetActive(ctx, c.ContractID, false); err != nil {
					return storeError(err, "contract", map[string]any{"contract_id": c.ContractID})
				}
			} else {
				staff := candidates[s.selector.Pick(len(candidates))]
				c.Status = domain.CaseStatusEscalated
				c.AssignedStaffID = &staff.ID
				result.AssignedStaff = &staff
			}
		}

		if err := tx.Cases().Transition(ctx, c, from); err != nil {
			return storeError(err, "case", details)
		}
		result.Case = c
		return nil
	})
	if err != nil {
		return nil, nil, storeError(err, "case", details)
	}
	return result, contract, nil
}

// ResolveByStaff closes an open case on behalf of a staff member. Leaving
// deactivates the contract.
func (s *CaseService) ResolveByStaff(ctx context.Context, caseID int64, decision domain.StaffDecision, staffID int64) (*ResolveResult, error) {
	if !decision.Valid() {
		return nil, apperrors.NewValidationError("decision must be stay or left", map[string]any{"decision": string(decision)})
	}

	unlock := s.caseLocks.Lock(caseKey(caseID))
	defer unlock()

	details := map[string]any{"case_id": caseID}
	now := s.now().UTC()
	var (
		resolved *domain.RetentionCase
		from     domain.CaseStatus
	)

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		staff, err := tx.Users().GetByID(ctx, staffID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewForbidden("staff role required")
			}
			return storeError(err, "user", nil)
		}
		if !staff.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}

		c, err := tx.Cases().GetByID(ctx, caseID)
		if err != nil {
			return storeError(err, "case", details)
		}
		if !c.Status.IsOpen() {
			return apperrors.NewInvalidState("case already closed",
				map[string]any{"case_id": caseID, "status": string(c.Status)})
		}

		from = c.Status
		if decision == domain.DecisionStay {
			c.Close(domain.CaseStatusRetained, now)
		} else {
			c.Close(domain.CaseStatusChurned, now)
			if err := tx.Contracts().SetActive(ctx, c.ContractID, false); err != nil {
				return storeError(err, "contract", map[string]any{"contract_id": c.ContractID})
			}
		}
		if err := tx.Cases().Transition(ctx, c, from); err != nil {
			return storeError(err, "case", details)
		}
		resolved = c
		return nil
	})
	if err != nil {
		return nil, storeError(err, "case", details)
	}

	s.recordClosure(ctx, resolved, from, events.CauseStaffDecision, staffActor(staffID))
	s.logger.Info("case resolved by staff",
		zap.Int64("case_id", caseID),
		zap.Int64("staff_id", staffID),
		zap.String("decision", string(decision)))
	return &ResolveResult{Case: resolved}, nil
}

// GetCase loads one case.
func (s *CaseService) GetCase(ctx context.Context, caseID int64) (*domain.RetentionCase, error) {
	c, err := s.store.Cases().GetByID(ctx, caseID)
	if err != nil {
		return nil, storeError(err, "case", map[string]any{"case_id": caseID})
	}
	return c, nil
}

// ListCases lists cases matching filter ordered by ascending id.
func (s *CaseService) ListCases(ctx context.Context, filter repository.CaseFilter) ([]domain.RetentionCase, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown case status", map[string]any{"status": string(status)})
		}
	}
	cases, err := s.store.Cases().List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "case", nil)
	}
	return cases, nil
}

// OpenCaseForContract returns the open case of a contract, or nil.
func (s *CaseService) OpenCaseForContract(ctx context.Context, contractID string) (*domain.RetentionCase, error) {
	c, err := s.store.Cases().GetOpenForContract(ctx, contractID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "case", nil)
	}
	return c, nil
}

func ensureNoOpenCase(ctx context.Context, tx repository.Store, contractID string) error {
	open, err := tx.Cases().GetOpenForContract(ctx, contractID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return storeError(err, "case", nil)
	default:
		return apperrors.NewInvalidState("case already open",
			map[string]any{"contract_id": contractID, "case_id": open.ID})
	}
}

func (s *CaseService) candidates(ctx context.Context, tx repository.Store) ([]domain.User, error) {
	var (
		staff []domain.User
		err   error
	)
	if s.notifier != nil {
		staff, err = s.notifier.Candidates(ctx, tx.Users())
	} else {
		staff, err = tx.Users().ListByRole(ctx, domain.RoleStaff)
	}
	if err != nil {
		return nil, storeError(err, "user", nil)
	}
	return staff, nil
}

func (s *CaseService) recordClosure(ctx context.Context, c *domain.RetentionCase, from domain.CaseStatus, cause string, actor events.Actor) {
	s.metrics.RecordOutcome(string(c.Status))
	eventType := events.EventCaseChurned
	if c.Status == domain.CaseStatusRetained {
		eventType = events.EventCaseRetained
	}
	s.publish(ctx, eventType, c, actor, events.CaseClosedPayload{
		OldStatus: from,
		NewStatus: c.Status,
		Cause:     cause,
	})
}

func (s *CaseService) publish(ctx context.Context, eventType events.EventType, c *domain.RetentionCase, actor events.Actor, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewCaseEvent(eventType, c, actor, s.now().UTC(), payload)
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("case event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.Int64("case_id", c.ID),
			zap.Error(err))
	}
}

func caseKey(caseID int64) string {
	return strconv.FormatInt(caseID, 10)
}

func clientActor() events.Actor {
	return events.Actor{Type: events.ActorClient}
}

func systemActor() events.Actor {
	return events.Actor{Type: events.ActorSystem}
}

func staffActor(staffID int64) events.Actor {
	return events.Actor{Type: events.ActorStaff, UserID: &staffID}
}
