package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookSender posts replies as JSON to the chat transport's webhook.
type WebhookSender struct {
	url     string
	timeout time.Duration
}

// NewWebhookSender returns a sender posting to url.
func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{url: url, timeout: timeout}
}

// Send posts reply and treats any non-2xx answer as a failure.
func (s *WebhookSender) Send(ctx context.Context, reply Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	agent := fiber.Post(s.url).JSON(reply)
	if s.timeout > 0 {
		agent = agent.Timeout(s.timeout)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("deliver reply to %d: %w", reply.Recipient, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("deliver reply to %d: status %d: %s", reply.Recipient, code, body)
	}
	return nil
}

// LogSender writes replies to the log. It stands in for a transport in
// local runs.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a sender that only logs.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, reply Reply) error {
	s.logger.Info("reply",
		zap.Int64("recipient", reply.Recipient),
		zap.String("text", reply.Text),
		zap.Int("buttons", len(reply.Buttons)))
	return nil
}
