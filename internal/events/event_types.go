package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Manuloff/customer-retention/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseOpened    EventType = "case_opened"
	EventCaseEscalated EventType = "case_escalated"
	EventCaseRetained  EventType = "case_retained"
	EventCaseChurned   EventType = "case_churned"
)

// CaseEventTypes lists every case lifecycle event.
var CaseEventTypes = []EventType{EventCaseOpened, EventCaseEscalated, EventCaseRetained, EventCaseChurned}

// ActorType identifies who caused an event.
type ActorType string

const (
	ActorClient ActorType = "client"
	ActorStaff  ActorType = "staff"
	ActorSystem ActorType = "system"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   ActorType `json:"type"`
	UserID *int64    `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	CaseID     int64     `json:"case_id"`
	ContractID string    `json:"contract_id"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// NewCaseEvent builds an event for c stamped at at.
func NewCaseEvent(eventType EventType, c *domain.RetentionCase, actor Actor, at time.Time, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CaseID:     c.ID,
		ContractID: c.ContractID,
		Actor:      actor,
		Timestamp:  at,
		Payload:    payload,
	}
}

// CaseOpenedPayload payload.
type CaseOpenedPayload struct {
	Reason          string `json:"reason"`
	ProposedOfferID *int64 `json:"proposed_offer_id,omitempty"`
}

// CaseEscalatedPayload payload.
type CaseEscalatedPayload struct {
	AssignedStaffID int64 `json:"assigned_staff_id"`
}

// CaseClosedPayload payload for retained and churned cases.
type CaseClosedPayload struct {
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
	Cause     string            `json:"cause"`
}

// Causes recorded on CaseClosedPayload.
const (
	CauseNotRetainable = "not_retainable"
	CauseNoOffer       = "no_eligible_offer"
	CauseAccepted      = "offer_accepted"
	CauseNoStaff       = "no_staff_available"
	CauseStaffDecision = "staff_decision"
)
