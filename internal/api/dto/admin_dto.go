package dto

// ContractRequest payload for POST /admin/contracts.
type ContractRequest struct {
	ID            string  `json:"id"`
	ClientID      int64   `json:"client_id"`
	LastName      string  `json:"last_name"`
	FirstName     string  `json:"first_name"`
	MiddleName    string  `json:"middle_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	CanBeRetained bool    `json:"can_be_retained"`
	MonthlyProfit float64 `json:"monthly_profit"`
	Active        *bool   `json:"active"`
}

// ContractResponse is the API view of a contract.
type ContractResponse struct {
	ID            string  `json:"id"`
	ClientID      int64   `json:"client_id"`
	FullName      string  `json:"full_name"`
	LastName      string  `json:"last_name"`
	FirstName     string  `json:"first_name"`
	MiddleName    string  `json:"middle_name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	CanBeRetained bool    `json:"can_be_retained"`
	MonthlyProfit float64 `json:"monthly_profit"`
	Active        bool    `json:"active"`
}

// OfferRequest payload for POST /admin/offers.
type OfferRequest struct {
	Type               string  `json:"type"`
	Description        string  `json:"description"`
	MinProfitThreshold float64 `json:"min_profit_threshold"`
	Cost               float64 `json:"cost"`
}

// OfferResponse is the API view of a retention offer.
type OfferResponse struct {
	ID                 int64   `json:"id"`
	Type               string  `json:"type"`
	Description        string  `json:"description"`
	MinProfitThreshold float64 `json:"min_profit_threshold"`
	Cost               float64 `json:"cost"`
}

// FieldUpdateRequest edits one named field with a textual value, the same
// way the chat admin console does.
type FieldUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}
