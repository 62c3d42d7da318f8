package dto

import (
	"time"

	"github.com/Manuloff/customer-retention/internal/domain"
)

// CaseListQuery captures query filters for the staff case console.
type CaseListQuery struct {
	Statuses   []domain.CaseStatus
	ContractID *string
	Mine       bool
	Page       int
	PageSize   int
}

// CaseResponse is the API view of a retention case.
type CaseResponse struct {
	ID              int64             `json:"id"`
	ContractID      string            `json:"contract_id"`
	InitialReason   string            `json:"initial_reason"`
	ProposedOfferID *int64            `json:"proposed_offer_id"`
	AssignedStaffID *int64            `json:"assigned_staff_id"`
	Status          domain.CaseStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     *time.Time        `json:"completed_at"`
}

// ResolveCaseRequest payload for POST /staff/cases/:id/resolve.
type ResolveCaseRequest struct {
	Decision domain.StaffDecision `json:"decision"`
}

// ChannelEventResponse carries the replies produced for one inbound event.
type ChannelEventResponse struct {
	Replies []ChannelReply `json:"replies"`
}

// ChannelReply mirrors channel.Reply for API consumers.
type ChannelReply struct {
	Recipient int64           `json:"recipient"`
	Text      string          `json:"text"`
	Buttons   []ChannelButton `json:"buttons,omitempty"`
}

// ChannelButton mirrors channel.Button.
type ChannelButton struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	CaseID int64  `json:"case_id,omitempty"`
}
