package domain

// OutcomeBucket aggregates closed cases for one month and offer type.
type OutcomeBucket struct {
	Month     string  `json:"month"`
	OfferType string  `json:"offer_type"`
	Income    float64 `json:"income"`
	Expenses  float64 `json:"expenses"`
	Retained  int64   `json:"retained"`
	Churned   int64   `json:"churned"`
}

// Profit is income minus expenses.
func (b OutcomeBucket) Profit() float64 {
	return b.Income - b.Expenses
}

// NoOfferType labels buckets for cases closed without a proposed offer.
const NoOfferType = "not specified"
