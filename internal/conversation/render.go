package conversation

import (
	"fmt"
	"strings"

	"github.com/Manuloff/customer-retention/internal/channel"
	"github.com/Manuloff/customer-retention/internal/domain"
)

const (
	textWelcome          = "Hello! Choose an action."
	textNoContract       = "You have no active contract."
	textContractInactive = "Your contract is already inactive."
	textCaseAlreadyOpen  = "You already have an open cancellation request."
	textAskReason        = "Please tell us why you want to cancel, or press Skip."
	textReasonExpected   = "Please type the reason for cancelling, or press Skip."
	textChooseOffer      = "Please accept or decline the offer."
	textRetained         = "Great, the offer is yours. Thank you for staying with us!"
	textEscalated        = "Your request was passed to a manager who will contact you shortly."
	textChurned          = "Your contract has been closed. Thank you for being with us."
	textUnavailable      = "Service temporarily unavailable, please try again later."
	textNotFound         = "Not found, please try again."
	textConflict         = "This request can no longer be processed."
	textStale            = "This request was already processed."
	textFailed           = "Something went wrong, please try again."
	textStaffOnly        = "This action is available to staff only."
	textNoEscalations    = "No escalated cases are assigned to you."
)

var mainMenuButtons = []channel.Button{
	{Label: "My contract", Action: channel.ActionViewContract},
	{Label: "Cancel subscription", Action: channel.ActionCancelRequest},
}

func reply(to int64, text string, buttons ...channel.Button) channel.Reply {
	return channel.Reply{Recipient: to, Text: text, Buttons: buttons}
}

func mainMenuReply(to int64, text string) channel.Reply {
	return reply(to, text, mainMenuButtons...)
}

func contractText(c *domain.Contract) string {
	status := "active"
	if !c.Active {
		status = "inactive"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Contract %s\n", c.ID)
	fmt.Fprintf(&b, "Client: %s\n", c.FullName())
	if c.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", c.Email)
	}
	if c.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	}
	fmt.Fprintf(&b, "Status: %s", status)
	return b.String()
}

func offerReply(to int64, o *domain.Offer) channel.Reply {
	text := fmt.Sprintf("Before you go, we have an offer for you: %s.", o.Type)
	if o.Description != "" {
		text += "\n" + o.Description
	}
	return reply(to, text,
		channel.Button{Label: "Accept", Action: channel.ActionAccept},
		channel.Button{Label: "Decline", Action: channel.ActionDecline},
	)
}

func staffCaseReply(to int64, c *domain.RetentionCase) channel.Reply {
	text := fmt.Sprintf("Case #%d, contract %s\nReason: %s\nOpened: %s",
		c.ID, c.ContractID, c.InitialReason, c.CreatedAt.UTC().Format("2006-01-02 15:04"))
	return reply(to, text,
		channel.Button{Label: "Client stayed", Action: channel.ActionStay, CaseID: c.ID},
		channel.Button{Label: "Client left", Action: channel.ActionLeft, CaseID: c.ID},
	)
}

func staffResolvedText(c *domain.RetentionCase) string {
	if c.Status == domain.CaseStatusRetained {
		return fmt.Sprintf("Case #%d closed: client stayed.", c.ID)
	}
	return fmt.Sprintf("Case #%d closed: client left.", c.ID)
}
