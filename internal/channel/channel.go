// Package channel models the chat transport: inbound user events and the
// outbound replies sent back through it.
package channel

import (
	"context"
	"fmt"
	"strings"
)

// Action identifies a button press or command.
type Action string

const (
	ActionStart         Action = "start"
	ActionViewContract  Action = "view_contract"
	ActionCancelRequest Action = "cancel_request"
	ActionSkipReason    Action = "skip_reason"
	ActionAccept        Action = "accept"
	ActionDecline       Action = "decline"
	ActionStay          Action = "stay"
	ActionLeft          Action = "left"
)

// IsMenuCommand reports whether a resets the conversation to the main menu.
func (a Action) IsMenuCommand() bool {
	return a == ActionStart || a == ActionViewContract || a == ActionCancelRequest
}

// Event is one inbound message or button press from a chat user.
type Event struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Text        string `json:"text,omitempty"`
	Action      Action `json:"action,omitempty"`
	CaseID      int64  `json:"case_id,omitempty"`
}

// Button is an inline choice attached to a reply.
type Button struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
	CaseID int64  `json:"case_id,omitempty"`
}

// Reply is an outbound message addressed to one chat user.
type Reply struct {
	Recipient int64    `json:"recipient"`
	Text      string   `json:"text"`
	Buttons   []Button `json:"buttons,omitempty"`
}

// String renders the reply as plain text, buttons in brackets.
func (r Reply) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "to %d:\n%s\n", r.Recipient, r.Text)
	for _, btn := range r.Buttons {
		if btn.CaseID != 0 {
			fmt.Fprintf(&b, "[%s] -> %s #%d\n", btn.Label, btn.Action, btn.CaseID)
			continue
		}
		fmt.Fprintf(&b, "[%s] -> %s\n", btn.Label, btn.Action)
	}
	return b.String()
}

// Sender delivers replies to chat users.
type Sender interface {
	Send(ctx context.Context, reply Reply) error
}
