package worker

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/events"
)

// Publisher ships a keyed message to an external stream.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// StartCaseEventForwarder subscribes to every case event and forwards it to
// publisher keyed by case id. Delivery failures are logged and returned to
// the dispatcher; they never affect the case itself.
func StartCaseEventForwarder(dispatcher events.Dispatcher, publisher Publisher, timeout time.Duration, logger *zap.Logger) {
	if dispatcher == nil || publisher == nil {
		return
	}
	forward := func(ctx context.Context, event events.Event) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		key := strconv.FormatInt(event.CaseID, 10)
		if err := publisher.Publish(ctx, key, event); err != nil {
			logger.Warn("case event not forwarded",
				zap.String("event_type", string(event.Type)),
				zap.Int64("case_id", event.CaseID),
				zap.Error(err))
			return err
		}
		logger.Debug("case event forwarded",
			zap.String("event_type", string(event.Type)),
			zap.Int64("case_id", event.CaseID))
		return nil
	}
	for _, eventType := range events.CaseEventTypes {
		dispatcher.Subscribe(eventType, forward)
	}
}
