package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to CaseStatus
		want     bool
	}{
		{CaseStatusActive, CaseStatusRetained, true},
		{CaseStatusActive, CaseStatusEscalated, true},
		{CaseStatusActive, CaseStatusChurned, true},
		{CaseStatusEscalated, CaseStatusRetained, true},
		{CaseStatusEscalated, CaseStatusChurned, true},
		{CaseStatusEscalated, CaseStatusActive, false},
		{CaseStatusEscalated, CaseStatusEscalated, false},
		{CaseStatusRetained, CaseStatusChurned, false},
		{CaseStatusChurned, CaseStatusRetained, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRetentionCaseClose(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &RetentionCase{Status: CaseStatusActive}
	c.Close(CaseStatusRetained, at)

	assert.True(t, c.Status.IsTerminal())
	if assert.NotNil(t, c.CompletedAt) {
		assert.Equal(t, at, *c.CompletedAt)
	}
}

func TestContractFullName(t *testing.T) {
	c := &Contract{LastName: "Ivanov", FirstName: "Ivan", MiddleName: " "}
	assert.Equal(t, "Ivanov Ivan", c.FullName())
}

func TestOfferValidate(t *testing.T) {
	assert.NoError(t, (&Offer{MinProfitThreshold: 0, Cost: 0}).Validate())
	assert.Error(t, (&Offer{MinProfitThreshold: -1}).Validate())
	assert.Error(t, (&Offer{Cost: -0.5}).Validate())
}

func TestOfferEligibleFor(t *testing.T) {
	offer := &Offer{MinProfitThreshold: 500}
	assert.True(t, offer.EligibleFor(&Contract{MonthlyProfit: 500}))
	assert.True(t, offer.EligibleFor(&Contract{MonthlyProfit: 1000}))
	assert.False(t, offer.EligibleFor(&Contract{MonthlyProfit: 499.99}))
}
