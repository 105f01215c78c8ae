// File: internal/feedback/bus.go
package feedback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/internal/config"
)

// Topic names a stream of messages on the Bus.
type Topic string

// TopicOutcome carries schemas.OutcomeReport payloads from the execution layer.
const TopicOutcome Topic = "outcome"

// ErrBusClosed is returned by Post once Shutdown has started.
var ErrBusClosed = errors.New("feedback bus is shut down")

// Message is the envelope for data transmitted over the Bus.
type Message struct {
	ID        string
	Timestamp time.Time
	Topic     Topic
	Payload   any
}

// Bus is an in-process pub/sub channel between the execution layer and the
// decision engine. Every delivered message must be passed to Acknowledge.
type Bus struct {
	logger *zap.Logger

	subscribers map[Topic][]chan Message
	// detached holds unsubscribed channels a racing Post may still deliver to.
	detached    map[chan Message]struct{}
	mu          sync.RWMutex
	bufferSize  int
	settleTime  time.Duration

	// processingWg counts delivered but unacknowledged messages.
	processingWg sync.WaitGroup
	// activePostsWg counts Post calls still attempting delivery.
	activePostsWg sync.WaitGroup

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	isShutdown   bool
	shutdownMu   sync.Mutex
}

// NewBus initializes the Bus from the feedback configuration.
func NewBus(cfg config.FeedbackConfig, logger *zap.Logger) *Bus {
	bufferSize := cfg.BufferSize
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Bus{
		logger:       logger.Named("feedback_bus"),
		subscribers:  make(map[Topic][]chan Message),
		detached:     make(map[chan Message]struct{}),
		bufferSize:   bufferSize,
		settleTime:   cfg.SettleTime,
		shutdownChan: make(chan struct{}),
	}
}

// Post sends a message to every subscriber of topic. It blocks while
// subscriber buffers are full, until ctx is done or the bus shuts down.
func (b *Bus) Post(ctx context.Context, topic Topic, payload any) error {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return ErrBusClosed
	}
	b.activePostsWg.Add(1)
	b.shutdownMu.Unlock()
	defer b.activePostsWg.Done()

	msg := Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Topic:     topic,
		Payload:   payload,
	}

	b.mu.RLock()
	subscribers := b.subscribers[topic]
	if len(subscribers) == 0 {
		b.mu.RUnlock()
		return nil
	}
	// Copy so channel sends happen without the lock held.
	subsCopy := make([]chan Message, len(subscribers))
	copy(subsCopy, subscribers)
	b.mu.RUnlock()

	for _, ch := range subsCopy {
		b.processingWg.Add(1)
		select {
		case ch <- msg:
		case <-ctx.Done():
			b.processingWg.Done()
			return ctx.Err()
		case <-b.shutdownChan:
			b.processingWg.Done()
			return ErrBusClosed
		}
	}
	return nil
}

// Subscribe returns a channel receiving the given topics and a function that
// removes the subscription. The channel is closed by Shutdown.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Message, func()) {
	if len(topics) == 0 {
		panic("feedback: must subscribe to at least one topic")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		closedCh := make(chan Message)
		close(closedCh)
		return closedCh, func() {}
	}

	ch := make(chan Message, b.bufferSize)
	subscribed := append([]Topic(nil), topics...)
	for _, topic := range subscribed {
		b.subscribers[topic] = append(b.subscribers[topic], ch)
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for _, topic := range subscribed {
				subs := b.subscribers[topic]
				for i, sub := range subs {
					if sub == ch {
						b.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
						if len(b.subscribers[topic]) == 0 {
							delete(b.subscribers, topic)
						}
						break
					}
				}
			}
			b.detached[ch] = struct{}{}
			if n := b.drain(ch); n > 0 {
				b.logger.Debug("Dropped messages buffered for a removed subscriber.", zap.Int("count", n))
			}
		})
	}
	return ch, unsubscribe
}

func (b *Bus) isClosed() bool {
	b.shutdownMu.Lock()
	defer b.shutdownMu.Unlock()
	return b.isShutdown
}

// Acknowledge marks msg as processed.
func (b *Bus) Acknowledge(Message) {
	b.processingWg.Done()
}

// Shutdown stops accepting posts, gives subscribers up to the settle time to
// work through buffered messages, then closes every subscription and drops
// what is left. It returns once every received message is acknowledged.
func (b *Bus) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.logger.Info("Shutting down feedback bus...")

		b.shutdownMu.Lock()
		b.isShutdown = true
		b.shutdownMu.Unlock()

		close(b.shutdownChan)
		b.activePostsWg.Wait()

		// No Post is running, so nothing reaches a detached channel after this.
		b.mu.Lock()
		dropped := 0
		for ch := range b.detached {
			dropped += b.drain(ch)
		}
		b.detached = make(map[chan Message]struct{})
		b.mu.Unlock()

		b.settle()

		b.mu.Lock()
		unique := make(map[chan Message]struct{})
		for _, subs := range b.subscribers {
			for _, ch := range subs {
				unique[ch] = struct{}{}
			}
		}
		// No Post is running, so closing is safe.
		for ch := range unique {
			close(ch)
		}
		for ch := range unique {
			for range ch {
				dropped++
				b.processingWg.Done()
			}
		}
		b.subscribers = make(map[Topic][]chan Message)
		b.mu.Unlock()

		if dropped > 0 {
			b.logger.Warn("Dropped unprocessed messages during shutdown.", zap.Int("count", dropped))
		}

		b.processingWg.Wait()
		b.logger.Info("Feedback bus shut down gracefully.")
	})
}

// drain acknowledges everything currently buffered in ch without blocking.
// Callers hold b.mu. A closed channel was already drained by Shutdown.
func (b *Bus) drain(ch chan Message) int {
	n := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
			b.processingWg.Done()
		default:
			return n
		}
	}
}

// settle waits until all delivered messages are acknowledged or the settle
// time elapses, whichever comes first.
func (b *Bus) settle() {
	if b.settleTime <= 0 {
		return
	}
	done := make(chan struct{})
	go func() {
		b.processingWg.Wait()
		close(done)
	}()

	timer := time.NewTimer(b.settleTime)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		b.logger.Debug("Settle time elapsed with messages still pending.", zap.Duration("settle_time", b.settleTime))
	}
}
