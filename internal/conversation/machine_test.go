package conversation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/channel"
	"github.com/Manuloff/customer-retention/internal/config"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/events"
	"github.com/Manuloff/customer-retention/internal/observability"
	"github.com/Manuloff/customer-retention/internal/repository"
	"github.com/Manuloff/customer-retention/internal/repository/sqlite"
	"github.com/Manuloff/customer-retention/internal/service"
)

const (
	clientID int64 = 500
	staffID  int64 = 900
)

var fixedNow = time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)

type recordingSender struct {
	mu      sync.Mutex
	replies []channel.Reply
}

func (r *recordingSender) Send(_ context.Context, reply channel.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

func (r *recordingSender) sent() []channel.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]channel.Reply(nil), r.replies...)
}

type machineFixture struct {
	store    *sqlite.Store
	cases    *service.CaseService
	sessions *MemorySessionStore
	sender   *recordingSender
	machine  *Machine
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "conversation.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	sender := &recordingSender{}
	cases := service.NewCaseService(service.CaseDependencies{
		Store:      store,
		Notifier:   service.NewNotificationService(sender, metrics, logger, time.Second),
		Selector:   service.FirstSelector{},
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
		Logger:     logger,
		Clock:      func() time.Time { return fixedNow },
	})
	users := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, store.Users())
	sessions := NewMemorySessionStore()

	return &machineFixture{
		store:    store,
		cases:    cases,
		sessions: sessions,
		sender:   sender,
		machine: NewMachine(Dependencies{
			Contracts: store.Contracts(),
			Cases:     cases,
			Users:     users,
			Sessions:  sessions,
			Logger:    logger,
		}),
	}
}

func (f *machineFixture) addContract(t *testing.T, id string, profit float64, retainable bool) {
	t.Helper()
	require.NoError(t, f.store.Contracts().Create(context.Background(), &domain.Contract{
		ID:            id,
		ClientID:      clientID,
		LastName:      "Sidorov",
		FirstName:     "Pavel",
		CanBeRetained: retainable,
		MonthlyProfit: profit,
		Active:        true,
	}))
}

func (f *machineFixture) addOffer(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Offers().Create(context.Background(), &domain.Offer{
		Type:               "discount",
		Description:        "20% off",
		MinProfitThreshold: 1000,
		Cost:               300,
	}))
}

func (f *machineFixture) addStaff(t *testing.T, id int64) {
	t.Helper()
	require.NoError(t, f.store.Users().Create(context.Background(), &domain.User{ID: id, Role: domain.RoleStaff, DisplayName: "manager"}))
}

func (f *machineFixture) session(t *testing.T, userID int64) Session {
	t.Helper()
	s, err := f.sessions.Load(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func (f *machineFixture) send(userID int64, action channel.Action) []channel.Reply {
	return f.machine.Handle(context.Background(), channel.Event{UserID: userID, Action: action})
}

func (f *machineFixture) say(userID int64, text string) []channel.Reply {
	return f.machine.Handle(context.Background(), channel.Event{UserID: userID, Text: text})
}

// play runs events in order and renders a transcript of inputs and replies.
func (f *machineFixture) play(inputs ...channel.Event) []byte {
	var buf bytes.Buffer
	for _, e := range inputs {
		switch {
		case e.Action != "" && e.CaseID != 0:
			fmt.Fprintf(&buf, "@%d %s #%d\n", e.UserID, e.Action, e.CaseID)
		case e.Action != "":
			fmt.Fprintf(&buf, "@%d %s\n", e.UserID, e.Action)
		default:
			fmt.Fprintf(&buf, "@%d %s\n", e.UserID, e.Text)
		}
		for _, r := range f.machine.Handle(context.Background(), e) {
			buf.WriteString(r.String())
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

func act(userID int64, action channel.Action) channel.Event {
	return channel.Event{UserID: userID, Action: action}
}

func text(userID int64, s string) channel.Event {
	return channel.Event{UserID: userID, Text: s}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestMachine_OfferAccepted(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	out := f.play(
		act(clientID, channel.ActionStart),
		act(clientID, channel.ActionCancelRequest),
		text(clientID, "too expensive"),
		act(clientID, channel.ActionAccept),
	)
	newGoldie(t).Assert(t, "offer_accepted", out)

	assert.Equal(t, MainMenu(), f.session(t, clientID))
	c, err := f.store.Cases().GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusRetained, c.Status)
	assert.Equal(t, "too expensive", c.InitialReason)
}

func TestMachine_EscalatedAndStaffStays(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)
	f.addStaff(t, staffID)

	out := f.play(
		act(clientID, channel.ActionCancelRequest),
		act(clientID, channel.ActionSkipReason),
		act(clientID, channel.ActionDecline),
		act(staffID, channel.ActionStart),
		channel.Event{UserID: staffID, Action: channel.ActionStay, CaseID: 1},
		act(clientID, channel.ActionViewContract),
	)
	newGoldie(t).Assert(t, "escalated_staff_stay", out)

	notices := f.sender.sent()
	require.Len(t, notices, 1)
	assert.Equal(t, staffID, notices[0].Recipient)
	assert.Contains(t, notices[0].Text, "Retention case #1 needs your attention.")
	assert.Contains(t, notices[0].Text, "Client: Sidorov Pavel (id 500)")

	c, err := f.store.Cases().GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusRetained, c.Status)
}

func TestMachine_DeclineWithoutStaffChurns(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	out := f.play(
		act(clientID, channel.ActionCancelRequest),
		text(clientID, "price"),
		act(clientID, channel.ActionDecline),
		act(clientID, channel.ActionCancelRequest),
	)
	newGoldie(t).Assert(t, "declined_no_staff", out)
	assert.Empty(t, f.sender.sent())
}

func TestMachine_NotRetainableChurnsOnReason(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, false)

	out := f.play(
		act(clientID, channel.ActionCancelRequest),
		act(clientID, channel.ActionSkipReason),
	)
	newGoldie(t).Assert(t, "not_retainable", out)

	c, err := f.store.Contracts().GetByID(context.Background(), "C-1")
	require.NoError(t, err)
	assert.False(t, c.Active)
}

func TestMachine_RegistersUnknownUser(t *testing.T) {
	f := newMachineFixture(t)

	replies := f.machine.Handle(context.Background(), channel.Event{UserID: 777, DisplayName: " Olga ", Action: channel.ActionStart})
	require.Len(t, replies, 1)
	assert.Equal(t, textWelcome, replies[0].Text)

	u, err := f.store.Users().GetByID(context.Background(), 777)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, u.Role)
	assert.Equal(t, "Olga", u.DisplayName)
}

func TestMachine_CancelWithoutContract(t *testing.T) {
	f := newMachineFixture(t)

	replies := f.send(clientID, channel.ActionCancelRequest)
	require.Len(t, replies, 1)
	assert.Equal(t, textNoContract, replies[0].Text)
	assert.Equal(t, MainMenu(), f.session(t, clientID))
}

func TestMachine_CancelWithOpenCase(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)
	_, err := f.cases.OpenCase(context.Background(), "C-1", "")
	require.NoError(t, err)

	replies := f.send(clientID, channel.ActionCancelRequest)
	require.Len(t, replies, 1)
	assert.Equal(t, textCaseAlreadyOpen, replies[0].Text)
}

func TestMachine_UnexpectedInputKeepsState(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	f.send(clientID, channel.ActionCancelRequest)
	replies := f.send(clientID, channel.ActionAccept)
	require.Len(t, replies, 1)
	assert.Equal(t, textReasonExpected, replies[0].Text)
	assert.Equal(t, StateWaitingForReason, f.session(t, clientID).State)

	replies = f.say(clientID, "   ")
	assert.Equal(t, textReasonExpected, replies[0].Text)

	f.say(clientID, "moving")
	replies = f.say(clientID, "hmm")
	require.Len(t, replies, 1)
	assert.Equal(t, textChooseOffer, replies[0].Text)
	assert.Equal(t, StateOfferDecision, f.session(t, clientID).State)
}

func TestMachine_MenuCommandResetsSession(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	f.send(clientID, channel.ActionCancelRequest)
	require.Equal(t, StateWaitingForReason, f.session(t, clientID).State)

	replies := f.send(clientID, channel.ActionStart)
	require.Len(t, replies, 1)
	assert.Equal(t, textWelcome, replies[0].Text)
	assert.Equal(t, MainMenu(), f.session(t, clientID))

	cases, err := f.store.Cases().List(context.Background(), repository.CaseFilter{})
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestMachine_DecisionOnClosedCaseResets(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	f.send(clientID, channel.ActionCancelRequest)
	f.say(clientID, "price")
	caseID := f.session(t, clientID).CaseID
	require.NotZero(t, caseID)

	_, err := f.cases.ResolveOffer(context.Background(), caseID, true)
	require.NoError(t, err)

	replies := f.send(clientID, channel.ActionDecline)
	require.Len(t, replies, 1)
	assert.Equal(t, textConflict, replies[0].Text)
	assert.Equal(t, MainMenu(), f.session(t, clientID))
}

func TestMachine_StaffButtonsRequireStaff(t *testing.T) {
	f := newMachineFixture(t)

	replies := f.machine.Handle(context.Background(), channel.Event{UserID: clientID, Action: channel.ActionLeft, CaseID: 1})
	require.Len(t, replies, 1)
	assert.Equal(t, textStaffOnly, replies[0].Text)
}

func TestMachine_StaffDecisionOnClosedCase(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)
	f.addStaff(t, staffID)

	res, err := f.cases.OpenCase(context.Background(), "C-1", "")
	require.NoError(t, err)
	_, err = f.cases.ResolveOffer(context.Background(), res.Case.ID, true)
	require.NoError(t, err)

	replies := f.machine.Handle(context.Background(), channel.Event{UserID: staffID, Action: channel.ActionLeft, CaseID: res.Case.ID})
	require.Len(t, replies, 1)
	assert.Equal(t, textConflict, replies[0].Text)

	replies = f.machine.Handle(context.Background(), channel.Event{UserID: staffID, Action: channel.ActionLeft, CaseID: 42})
	require.Len(t, replies, 1)
	assert.Equal(t, textNotFound, replies[0].Text)

	replies = f.send(staffID, channel.ActionStart)
	require.Len(t, replies, 1)
	assert.Equal(t, textNoEscalations, replies[0].Text)
}

func TestMachine_StoreUnavailableHoldsSession(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	f.send(clientID, channel.ActionCancelRequest)
	before := f.session(t, clientID)
	require.Equal(t, StateWaitingForReason, before.State)

	require.NoError(t, f.store.Close())

	replies := f.say(clientID, "price")
	require.Len(t, replies, 1)
	assert.Equal(t, textUnavailable, replies[0].Text)
	assert.Empty(t, replies[0].Buttons)
	assert.Equal(t, before, f.session(t, clientID))
}

type failingSessions struct {
	*MemorySessionStore
	err error
}

func (s *failingSessions) Save(context.Context, int64, Session) error {
	return s.err
}

func TestMachine_SessionSaveFailure(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	f.addContract(t, "C-1", 5000, true)

	sessions := &failingSessions{MemorySessionStore: NewMemorySessionStore(), err: errors.New("redis down")}
	f.machine.sessions = sessions

	replies := f.send(clientID, channel.ActionCancelRequest)
	require.Len(t, replies, 1)
	assert.Equal(t, textUnavailable, replies[0].Text)
}

func TestMachine_ConcurrentUsers(t *testing.T) {
	f := newMachineFixture(t)
	f.addOffer(t)
	const users = 8
	for i := 0; i < users; i++ {
		require.NoError(t, f.store.Contracts().Create(context.Background(), &domain.Contract{
			ID:            fmt.Sprintf("C-%d", i),
			ClientID:      int64(1000 + i),
			CanBeRetained: true,
			MonthlyProfit: 5000,
			Active:        true,
		}))
	}

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			f.send(userID, channel.ActionCancelRequest)
			f.say(userID, "price")
			f.send(userID, channel.ActionAccept)
		}(int64(1000 + i))
	}
	wg.Wait()

	cases, err := f.store.Cases().List(context.Background(), repository.CaseFilter{})
	require.NoError(t, err)
	require.Len(t, cases, users)
	for _, c := range cases {
		assert.Equal(t, domain.CaseStatusRetained, c.Status)
	}
}
