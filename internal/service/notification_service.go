package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/channel"
	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/events"
	"github.com/Manuloff/customer-retention/internal/observability"
	"github.com/Manuloff/customer-retention/internal/repository"
)

// EscalationNotice is the payload delivered to the staff member handling
// an escalated case.
type EscalationNotice struct {
	StaffID    int64
	CaseID     int64
	ContractID string
	Reason     string
	ClientID   int64
	ClientName string
}

// Reply renders the notice as a channel message with stay/left buttons.
func (n EscalationNotice) Reply() channel.Reply {
	client := n.ClientName
	if client == "" {
		client = "unknown"
	}
	text := fmt.Sprintf(
		"Retention case #%d needs your attention.\nContract: %s\nClient: %s (id %d)\nReason: %s\n\nContact the client and record the outcome.",
		n.CaseID, n.ContractID, client, n.ClientID, n.Reason,
	)
	return channel.Reply{
		Recipient: n.StaffID,
		Text:      text,
		Buttons: []channel.Button{
			{Label: "Client stayed", Action: channel.ActionStay, CaseID: n.CaseID},
			{Label: "Client left", Action: channel.ActionLeft, CaseID: n.CaseID},
		},
	}
}

// NotificationService selects escalation candidates and delivers notices.
type NotificationService struct {
	sender  channel.Sender
	metrics *observability.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(sender channel.Sender, metrics *observability.Metrics, logger *zap.Logger, timeout time.Duration) *NotificationService {
	return &NotificationService{sender: sender, metrics: metrics, logger: logger, timeout: timeout}
}

// Candidates returns every staff user ordered by ascending id. All of them
// count as available.
func (n *NotificationService) Candidates(ctx context.Context, users repository.UserRepository) ([]domain.User, error) {
	return users.ListByRole(ctx, domain.RoleStaff)
}

// Notify delivers the notice. The error is returned for the caller's
// information only; the case state never depends on it.
func (n *NotificationService) Notify(ctx context.Context, notice EscalationNotice) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	err := n.sender.Send(ctx, notice.Reply())
	n.metrics.RecordDelivery(err == nil)
	if err != nil {
		n.logger.Warn("escalation notice not delivered",
			zap.Int64("case_id", notice.CaseID),
			zap.Int64("staff_id", notice.StaffID),
			zap.Error(err))
		return err
	}
	n.logger.Info("escalation notice delivered",
		zap.Int64("case_id", notice.CaseID),
		zap.Int64("staff_id", notice.StaffID))
	return nil
}

// RegisterHandlers subscribes an audit log to every case event.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range events.CaseEventTypes {
		dispatcher.Subscribe(eventType, n.logCaseEvent)
	}
}

func (n *NotificationService) logCaseEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("case_id", event.CaseID),
		zap.String("contract_id", event.ContractID),
		zap.Any("payload", event.Payload))
	return nil
}
