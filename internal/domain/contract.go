package domain

import "strings"

// Contract is a client's subscription record.
type Contract struct {
	ID            string
	ClientID      int64
	LastName      string
	FirstName     string
	MiddleName    string
	Email         string
	Phone         string
	CanBeRetained bool
	MonthlyProfit float64
	Active        bool
}

// FullName joins the non-empty name parts in last, first, middle order.
func (c *Contract) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.LastName, c.FirstName, c.MiddleName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
