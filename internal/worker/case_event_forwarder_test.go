package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/events"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func TestCaseEventForwarder_KeysByCase(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	pub := &recordingPublisher{}
	StartCaseEventForwarder(dispatcher, pub, time.Second, zap.NewNop())

	c := &domain.RetentionCase{ID: 42, ContractID: "C-1"}
	for _, typ := range events.CaseEventTypes {
		require.NoError(t, dispatcher.Publish(context.Background(),
			events.NewCaseEvent(typ, c, events.Actor{Type: events.ActorSystem}, time.Now(), nil)))
	}
	assert.Equal(t, []string{"42", "42", "42", "42"}, pub.keys)
}

func TestCaseEventForwarder_SurfacesFailure(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	StartCaseEventForwarder(dispatcher, pub, 0, zap.NewNop())

	c := &domain.RetentionCase{ID: 1, ContractID: "C-1"}
	err := dispatcher.Publish(context.Background(),
		events.NewCaseEvent(events.EventCaseChurned, c, events.Actor{Type: events.ActorSystem}, time.Now(), nil))
	assert.Error(t, err)
}
