// Package conversation drives the per-user chat flow of a cancellation
// request: main menu, reason, offer decision, and the staff-side
// resolution of escalated cases.
package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/channel"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
	"github.com/Manuloff/customer-retention/internal/service"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

const staffPageSize = 10

// Machine turns inbound channel events into workflow calls and replies.
type Machine struct {
	contracts repository.ContractRepository
	cases     *service.CaseService
	users     *service.AuthService
	sessions  SessionStore
	locks     *service.KeyedLocker
	logger    *zap.Logger
}

// Dependencies bundles collaborators for the machine.
type Dependencies struct {
	Contracts repository.ContractRepository
	Cases     *service.CaseService
	Users     *service.AuthService
	Sessions  SessionStore
	Logger    *zap.Logger
}

// NewMachine constructs the machine.
func NewMachine(deps Dependencies) *Machine {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		contracts: deps.Contracts,
		cases:     deps.Cases,
		users:     deps.Users,
		sessions:  sessions,
		locks:     service.NewKeyedLocker(),
		logger:    logger,
	}
}

// request is the per-event context handed to every step.
type request struct {
	ctx     context.Context
	event   channel.Event
	user    *domain.User
	session Session
}

// Handle processes one event. Events of the same user are serialized;
// different users proceed concurrently.
func (m *Machine) Handle(ctx context.Context, event channel.Event) []channel.Reply {
	unlock := m.locks.Lock(userKey(event.UserID))
	defer unlock()

	user, err := m.users.EnsureUser(ctx, event.UserID, event.DisplayName)
	if err != nil {
		m.logger.Warn("user lookup failed", zap.Int64("user_id", event.UserID), zap.Error(err))
		return []channel.Reply{reply(event.UserID, textUnavailable)}
	}
	session, err := m.sessions.Load(ctx, event.UserID)
	if err != nil {
		m.logger.Warn("session load failed", zap.Int64("user_id", event.UserID), zap.Error(err))
		return []channel.Reply{reply(event.UserID, textUnavailable)}
	}

	req := &request{ctx: ctx, event: event, user: user, session: session}

	if event.Action == channel.ActionStay || event.Action == channel.ActionLeft {
		return m.staffDecision(req)
	}
	if event.Action.IsMenuCommand() {
		req.session = MainMenu()
		return m.menuCommand(req)
	}

	switch req.session.State {
	case StateWaitingForReason:
		return m.reasonStep(req)
	case StateOfferDecision:
		return m.offerStep(req)
	default:
		return m.finish(req, MainMenu(), mainMenuReply(event.UserID, textWelcome))
	}
}

func (m *Machine) menuCommand(req *request) []channel.Reply {
	to := req.event.UserID
	switch req.event.Action {
	case channel.ActionViewContract:
		contract, err := m.contracts.GetByClientID(req.ctx, req.user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return m.finish(req, MainMenu(), mainMenuReply(to, textNoContract))
			}
			return m.fail(req, apperrors.NewStoreUnavailable(err))
		}
		return m.finish(req, MainMenu(), mainMenuReply(to, contractText(contract)))

	case channel.ActionCancelRequest:
		return m.cancelRequest(req)

	default:
		if req.user.IsStaff() {
			return m.staffMenu(req)
		}
		return m.finish(req, MainMenu(), mainMenuReply(to, textWelcome))
	}
}

func (m *Machine) cancelRequest(req *request) []channel.Reply {
	to := req.event.UserID
	contract, err := m.contracts.GetByClientID(req.ctx, req.user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return m.finish(req, MainMenu(), mainMenuReply(to, textNoContract))
		}
		return m.fail(req, apperrors.NewStoreUnavailable(err))
	}
	if !contract.Active {
		return m.finish(req, MainMenu(), mainMenuReply(to, textContractInactive))
	}
	open, err := m.cases.OpenCaseForContract(req.ctx, contract.ID)
	if err != nil {
		return m.fail(req, err)
	}
	if open != nil {
		return m.finish(req, MainMenu(), mainMenuReply(to, textCaseAlreadyOpen))
	}

	next := Session{State: StateWaitingForReason, ContractID: contract.ID}
	return m.finish(req, next, reply(to, textAskReason,
		channel.Button{Label: "Skip", Action: channel.ActionSkipReason}))
}

func (m *Machine) reasonStep(req *request) []channel.Reply {
	to := req.event.UserID
	var reason string
	switch {
	case req.event.Action == channel.ActionSkipReason:
		reason = ""
	case req.event.Action == "" && strings.TrimSpace(req.event.Text) != "":
		reason = req.event.Text
	default:
		return []channel.Reply{reply(to, textReasonExpected,
			channel.Button{Label: "Skip", Action: channel.ActionSkipReason})}
	}

	result, err := m.cases.OpenCase(req.ctx, req.session.ContractID, reason)
	if err != nil {
		return m.fail(req, err)
	}
	if result.Closed() {
		return m.finish(req, MainMenu(), mainMenuReply(to, textChurned))
	}
	next := Session{State: StateOfferDecision, ContractID: req.session.ContractID, CaseID: result.Case.ID}
	return m.finish(req, next, offerReply(to, result.Offer))
}

func (m *Machine) offerStep(req *request) []channel.Reply {
	to := req.event.UserID
	var accepted bool
	switch req.event.Action {
	case channel.ActionAccept:
		accepted = true
	case channel.ActionDecline:
		accepted = false
	default:
		return []channel.Reply{reply(to, textChooseOffer,
			channel.Button{Label: "Accept", Action: channel.ActionAccept},
			channel.Button{Label: "Decline", Action: channel.ActionDecline},
		)}
	}

	result, err := m.cases.ResolveOffer(req.ctx, req.session.CaseID, accepted)
	if err != nil {
		return m.fail(req, err)
	}
	text := textChurned
	switch result.Case.Status {
	case domain.CaseStatusRetained:
		text = textRetained
	case domain.CaseStatusEscalated:
		text = textEscalated
	}
	return m.finish(req, MainMenu(), mainMenuReply(to, text))
}

func (m *Machine) staffMenu(req *request) []channel.Reply {
	to := req.event.UserID
	staffID := req.user.ID
	cases, err := m.cases.ListCases(req.ctx, repository.CaseFilter{
		Statuses:        []domain.CaseStatus{domain.CaseStatusEscalated},
		AssignedStaffID: &staffID,
		Limit:           staffPageSize,
	})
	if err != nil {
		return m.fail(req, err)
	}
	if len(cases) == 0 {
		return m.finish(req, MainMenu(), mainMenuReply(to, textNoEscalations))
	}
	replies := make([]channel.Reply, 0, len(cases))
	for i := range cases {
		replies = append(replies, staffCaseReply(to, &cases[i]))
	}
	return m.finish(req, MainMenu(), replies...)
}

// staffDecision handles stay/left buttons. The client session of the staff
// member is left untouched.
func (m *Machine) staffDecision(req *request) []channel.Reply {
	to := req.event.UserID
	if !req.user.IsStaff() {
		return []channel.Reply{reply(to, textStaffOnly)}
	}
	decision := domain.DecisionStay
	if req.event.Action == channel.ActionLeft {
		decision = domain.DecisionLeft
	}
	result, err := m.cases.ResolveByStaff(req.ctx, req.event.CaseID, decision, req.user.ID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
			return []channel.Reply{reply(to, textUnavailable)}
		}
		return []channel.Reply{reply(to, errorText(err))}
	}
	return []channel.Reply{reply(to, staffResolvedText(result.Case))}
}

// finish persists next and returns replies. A failed save holds the user
// where they were.
func (m *Machine) finish(req *request, next Session, replies ...channel.Reply) []channel.Reply {
	if err := m.sessions.Save(req.ctx, req.event.UserID, next); err != nil {
		m.logger.Warn("session save failed", zap.Int64("user_id", req.event.UserID), zap.Error(err))
		return []channel.Reply{reply(req.event.UserID, textUnavailable)}
	}
	return replies
}

// fail turns a workflow error into user text. StoreUnavailable keeps the
// stored session so the user can retry; everything else resets it.
func (m *Machine) fail(req *request, err error) []channel.Reply {
	to := req.event.UserID
	m.logger.Info("workflow step rejected",
		zap.Int64("user_id", to),
		zap.String("state", string(req.session.State)),
		zap.Error(err))
	if apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
		return []channel.Reply{reply(to, textUnavailable)}
	}
	return m.finish(req, MainMenu(), mainMenuReply(to, errorText(err)))
}

func errorText(err error) string {
	de := apperrors.ToDomainError(err)
	switch de.Code {
	case apperrors.CodeNotFound:
		return textNotFound
	case apperrors.CodeInvalidState:
		if de.Message == "case already open" {
			return textCaseAlreadyOpen
		}
		if de.Message == "contract inactive" {
			return textContractInactive
		}
		return textConflict
	case apperrors.CodeStaleState:
		return textStale
	case apperrors.CodeForbidden:
		return textStaffOnly
	default:
		return textFailed
	}
}

func userKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
