package domain

import "time"

// CaseStatus enumerates lifecycle states of a retention case.
type CaseStatus string

const (
	CaseStatusActive    CaseStatus = "active"
	CaseStatusEscalated CaseStatus = "escalated"
	CaseStatusRetained  CaseStatus = "retained"
	CaseStatusChurned   CaseStatus = "churned"
)

// OpenCaseStatuses are the statuses that count as an open case.
var OpenCaseStatuses = []CaseStatus{CaseStatusActive, CaseStatusEscalated}

// IsTerminal reports whether no further transition is allowed.
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusRetained || s == CaseStatusChurned
}

// IsOpen reports whether the case still awaits a resolution.
func (s CaseStatus) IsOpen() bool {
	return s == CaseStatusActive || s == CaseStatusEscalated
}

// Valid reports whether s is a known status.
func (s CaseStatus) Valid() bool {
	return s.IsOpen() || s.IsTerminal()
}

// StaffDecision is the outcome chosen by staff for an escalated case.
type StaffDecision string

const (
	DecisionStay StaffDecision = "stay"
	DecisionLeft StaffDecision = "left"
)

// Valid reports whether d is a known decision.
func (d StaffDecision) Valid() bool {
	return d == DecisionStay || d == DecisionLeft
}

// ReasonNotSpecified is stored when the client gives no reason.
const ReasonNotSpecified = "not specified"

// RetentionCase is one retention attempt for a contract.
type RetentionCase struct {
	ID              int64
	ContractID      string
	InitialReason   string
	ProposedOfferID *int64
	AssignedStaffID *int64
	CreatedAt       time.Time
	CompletedAt     *time.Time
	Status          CaseStatus
}

var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusActive:    {CaseStatusRetained, CaseStatusEscalated, CaseStatusChurned},
	CaseStatusEscalated: {CaseStatusRetained, CaseStatusChurned},
	CaseStatusRetained:  {},
	CaseStatusChurned:   {},
}

// CanTransition reports whether current may move to next.
func CanTransition(current, next CaseStatus) bool {
	for _, candidate := range caseTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Close moves the case into a terminal status and stamps CompletedAt.
func (c *RetentionCase) Close(status CaseStatus, at time.Time) {
	c.Status = status
	c.CompletedAt = &at
}
