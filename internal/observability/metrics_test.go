package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/staff/cases", "GET", 200, time.Millisecond)
	m.RecordRequest("/staff/cases", "GET", 200, time.Millisecond)
	m.RecordError("/staff/cases/:id", "GET", "NOT_FOUND")
	m.RecordOutcome("retained")
	m.RecordDelivery(true)
	m.RecordDelivery(false)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/staff/cases|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/staff/cases/:id|GET|NOT_FOUND"])
	assert.Equal(t, int64(1), snap.Outcomes["retained"])
	assert.Equal(t, int64(1), snap.Deliveries["delivered"])
	assert.Equal(t, int64(1), snap.Deliveries["failed"])

	m.RecordOutcome("retained")
	assert.Equal(t, int64(1), snap.Outcomes["retained"], "snapshot must be a copy")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordOutcome("churned")
		m.RecordDelivery(true)
		_ = m.Snapshot()
	})
}
