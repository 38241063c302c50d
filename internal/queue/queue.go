package queue

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// LedgerEventsTopic carries confirmed ledger transactions. The reconciliation
// worker replays this feed to repair mirror drift.
const LedgerEventsTopic = "ledger_events"

// Publisher is the coordinator's side of the event feed.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Queue adds in-process subscription on top of Publisher.
type Queue interface {
	Publisher
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue fans events out to in-process subscribers. Handlers run on
// their own goroutine; a handler error is logged, not retried, because the
// feed consumer is idempotent and the durable amqp path owns redelivery.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	Log      zerolog.Logger
}

func NewInMemoryQueue(log zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		Log:      log.With().Str("component", "queue").Logger(),
	}
}

func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		h := handler
		go func() {
			if err := h(payload); err != nil {
				q.Log.Warn().Err(err).Str("topic", topic).Msg("subscriber failed")
			}
		}()
	}
	return nil
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
