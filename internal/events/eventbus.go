// Package events provides an asynchronous event bus decoupling the
// detection engine from its consumers. Publishing never blocks the analysis
// loop, a full buffer drops the event and counts the drop.
package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
	"github.com/tphakala/soundwatch-go/internal/logging"
)

// Consumer processes detection events delivered by the bus.
type Consumer interface {
	// Name returns the consumer name for identification in logs.
	Name() string
	// ProcessDetection handles a single detection event. An error is
	// logged and counted, the bus keeps delivering.
	ProcessDetection(event *acoustic.DetectionEvent) error
}

// BusStats contains runtime statistics for monitoring.
type BusStats struct {
	Published      uint64
	Dropped        uint64
	Delivered      uint64
	ConsumerErrors uint64
}

// Bus fans detection events out to registered consumers from a single
// dispatch goroutine, preserving event order per session.
type Bus struct {
	eventChan chan *acoustic.DetectionEvent

	mu        sync.RWMutex
	consumers []Consumer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	published      atomic.Uint64
	dropped        atomic.Uint64
	delivered      atomic.Uint64
	consumerErrors atomic.Uint64

	logger *slog.Logger
}

// NewBus creates a bus with the given buffer size. A zero or negative size
// gets a sane default.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		eventChan: make(chan *acoustic.DetectionEvent, bufferSize),
		logger:    logging.ForService("events"),
	}
}

// Register adds a consumer. Registration is allowed while the bus runs.
func (b *Bus) Register(c Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers = append(b.consumers, c)
	b.logger.Info("consumer registered", "consumer", c.Name())
}

// Publish enqueues an event without blocking. Returns false if the event
// was dropped because the buffer was full or the bus is not running.
func (b *Bus) Publish(event *acoustic.DetectionEvent) bool {
	if !b.running.Load() {
		b.dropped.Add(1)
		return false
	}
	select {
	case b.eventChan <- event:
		b.published.Add(1)
		return true
	default:
		b.dropped.Add(1)
		b.logger.Warn("event buffer full, dropping detection", "kind", event.KindName)
		return false
	}
}

// Start launches the dispatch goroutine. Calling Start on a running bus is
// a no-op.
func (b *Bus) Start(ctx context.Context) {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				// Drain whatever is already queued before exiting.
				for {
					select {
					case event := <-b.eventChan:
						b.dispatch(event)
					default:
						return
					}
				}
			case event := <-b.eventChan:
				b.dispatch(event)
			}
		}
	}()
}

// Shutdown stops dispatching after draining queued events and waits for the
// dispatch goroutine to exit.
func (b *Bus) Shutdown() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	b.cancel()
	b.wg.Wait()
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() BusStats {
	return BusStats{
		Published:      b.published.Load(),
		Dropped:        b.dropped.Load(),
		Delivered:      b.delivered.Load(),
		ConsumerErrors: b.consumerErrors.Load(),
	}
}

func (b *Bus) dispatch(event *acoustic.DetectionEvent) {
	b.mu.RLock()
	consumers := b.consumers
	b.mu.RUnlock()

	for _, c := range consumers {
		if err := c.ProcessDetection(event); err != nil {
			b.consumerErrors.Add(1)
			b.logger.Error("consumer failed to process detection",
				"consumer", c.Name(), "kind", event.KindName, "error", err)
			continue
		}
		b.delivered.Add(1)
	}
}
