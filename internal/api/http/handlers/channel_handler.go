package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/api/dto"
	"github.com/Manuloff/customer-retention/internal/channel"
	"github.com/Manuloff/customer-retention/internal/conversation"
	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// ChannelHandler receives chat events from the transport adapter.
type ChannelHandler struct {
	machine *conversation.Machine
	sender  channel.Sender
	logger  *zap.Logger
}

// NewChannelHandler constructs handler. With a nil sender replies are only
// returned in the response body.
func NewChannelHandler(machine *conversation.Machine, sender channel.Sender, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{machine: machine, sender: sender, logger: logger}
}

// HandleEvent POST /channel/events.
func (h *ChannelHandler) HandleEvent(c *fiber.Ctx) error {
	var event channel.Event
	if err := c.BodyParser(&event); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if event.UserID <= 0 {
		return apperrors.NewValidationError("user_id required", nil)
	}
	if event.Action == "" && event.Text == "" {
		return apperrors.NewValidationError("text or action required", nil)
	}

	ctx := c.UserContext()
	replies := h.machine.Handle(ctx, event)
	if h.sender != nil {
		for _, r := range replies {
			if err := h.sender.Send(ctx, r); err != nil {
				h.logger.Warn("reply not delivered", zap.Int64("user_id", r.Recipient), zap.Error(err))
			}
		}
	}

	resp := dto.ChannelEventResponse{Replies: make([]dto.ChannelReply, 0, len(replies))}
	for _, r := range replies {
		resp.Replies = append(resp.Replies, channelReply(r))
	}
	return c.JSON(fiber.Map{"data": resp})
}

func channelReply(r channel.Reply) dto.ChannelReply {
	out := dto.ChannelReply{Recipient: r.Recipient, Text: r.Text}
	for _, b := range r.Buttons {
		out.Buttons = append(out.Buttons, dto.ChannelButton{Label: b.Label, Action: string(b.Action), CaseID: b.CaseID})
	}
	return out
}
