package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

// Envelope is one room publish. Except names a client id that must not
// receive it.
type Envelope struct {
	Room    string          `json:"room"`
	Except  string          `json:"except,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Broker carries room publishes to every hub that may hold members of the
// room. Delivery is fire-and-forget.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe sets the handler that receives every envelope.
	Subscribe(handler func(Envelope))
	// Run blocks until ctx is done or the broker fails.
	Run(ctx context.Context) error
	Close() error
}

// LocalBroker delivers publishes synchronously inside the process.
type LocalBroker struct {
	mu      sync.RWMutex
	handler func(Envelope)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	h := b.handler
	b.mu.RUnlock()
	if h != nil {
		h(env)
	}
	return nil
}

func (b *LocalBroker) Subscribe(handler func(Envelope)) {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
}

func (b *LocalBroker) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (b *LocalBroker) Close() error { return nil }
