package service

import (
	"math/rand"

	"github.com/Manuloff/customer-retention/internal/config"
)

// Selector picks one index out of n candidates. Callers guarantee n > 0.
type Selector interface {
	Pick(n int) int
}

// RandomSelector picks uniformly at random.
type RandomSelector struct{}

func (RandomSelector) Pick(n int) int {
	return rand.Intn(n)
}

// FirstSelector always picks the first candidate, i.e. the lowest id.
type FirstSelector struct{}

func (FirstSelector) Pick(int) int {
	return 0
}

// NewSelector maps a configured strategy name to a Selector.
func NewSelector(strategy string) Selector {
	if strategy == config.SelectionFirst {
		return FirstSelector{}
	}
	return RandomSelector{}
}
