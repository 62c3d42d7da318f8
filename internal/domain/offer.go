package domain

import "errors"

// Offer is a retention incentive proposed to clients whose monthly profit
// reaches MinProfitThreshold.
type Offer struct {
	ID                 int64
	Type               string
	Description        string
	MinProfitThreshold float64
	Cost               float64
}

// Validate checks the offer invariants.
func (o *Offer) Validate() error {
	if o.MinProfitThreshold < 0 {
		return errors.New("min_profit_threshold must be non-negative")
	}
	if o.Cost < 0 {
		return errors.New("cost must be non-negative")
	}
	return nil
}

// EligibleFor reports whether the contract's monthly profit qualifies.
func (o *Offer) EligibleFor(c *Contract) bool {
	return o.MinProfitThreshold <= c.MonthlyProfit
}
