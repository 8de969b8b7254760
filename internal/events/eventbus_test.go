package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/soundwatch-go/internal/acoustic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingConsumer struct {
	name string
	fail bool

	mu     sync.Mutex
	events []*acoustic.DetectionEvent
}

func (c *recordingConsumer) Name() string { return c.name }

func (c *recordingConsumer) ProcessDetection(event *acoustic.DetectionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	if c.fail {
		return fmt.Errorf("consumer %s failed", c.name)
	}
	return nil
}

func (c *recordingConsumer) Events() []*acoustic.DetectionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*acoustic.DetectionEvent, len(c.events))
	copy(out, c.events)
	return out
}

func testEvent(kind acoustic.SignatureKind, confidence float64) *acoustic.DetectionEvent {
	candidate := acoustic.Candidate{
		Kind:        kind,
		Confidence:  confidence,
		FrequencyHz: 3100,
		Amplitude:   200,
	}
	return acoustic.NewDetectionEvent(candidate, time.Now(), "test")
}

func TestBusDeliversToAllConsumers(t *testing.T) {
	bus := NewBus(8)
	first := &recordingConsumer{name: "first"}
	second := &recordingConsumer{name: "second"}
	bus.Register(first)
	bus.Register(second)

	bus.Start(context.Background())
	require.True(t, bus.Publish(testEvent(acoustic.Fire, 0.9)))
	bus.Shutdown()

	require.Len(t, first.Events(), 1)
	require.Len(t, second.Events(), 1)
	assert.Equal(t, "fire_alarm", first.Events()[0].KindName)

	stats := bus.Stats()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Zero(t, stats.Dropped)
}

func TestBusPreservesOrder(t *testing.T) {
	bus := NewBus(16)
	sink := &recordingConsumer{name: "sink"}
	bus.Register(sink)

	bus.Start(context.Background())
	confidences := []float64{0.71, 0.82, 0.93}
	for _, c := range confidences {
		require.True(t, bus.Publish(testEvent(acoustic.Doorbell, c)))
	}
	bus.Shutdown()

	events := sink.Events()
	require.Len(t, events, len(confidences))
	for i, c := range confidences {
		assert.Equal(t, c, events[i].Confidence)
	}
}

func TestBusPublishNeverBlocks(t *testing.T) {
	// Created but never started: the channel is never consumed, yet
	// Publish must return immediately.
	bus := NewBus(1)

	start := time.Now()
	assert.False(t, bus.Publish(testEvent(acoustic.Fire, 0.9)))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, uint64(1), bus.Stats().Dropped)
}

func TestBusDropsWhenBufferFull(t *testing.T) {
	bus := NewBus(2)
	blocker := make(chan struct{})
	slow := consumerFunc(func(*acoustic.DetectionEvent) error {
		<-blocker
		return nil
	})
	bus.Register(namedConsumer{"slow", slow})

	bus.Start(context.Background())
	defer func() {
		close(blocker)
		bus.Shutdown()
	}()

	// One event occupies the dispatcher, two fill the buffer. Eventually a
	// publish has to be dropped.
	assert.Eventually(t, func() bool {
		bus.Publish(testEvent(acoustic.BabyCry, 0.8))
		return bus.Stats().Dropped > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBusShutdownDrainsQueue(t *testing.T) {
	bus := NewBus(32)
	sink := &recordingConsumer{name: "sink"}
	bus.Register(sink)

	bus.Start(context.Background())
	const n = 20
	for range n {
		require.True(t, bus.Publish(testEvent(acoustic.Fire, 0.9)))
	}
	bus.Shutdown()

	assert.Len(t, sink.Events(), n, "events queued before shutdown must still be delivered")
}

func TestBusConsumerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(8)
	failing := &recordingConsumer{name: "failing", fail: true}
	healthy := &recordingConsumer{name: "healthy"}
	bus.Register(failing)
	bus.Register(healthy)

	bus.Start(context.Background())
	require.True(t, bus.Publish(testEvent(acoustic.Fire, 0.9)))
	bus.Shutdown()

	assert.Len(t, failing.Events(), 1)
	assert.Len(t, healthy.Events(), 1, "a failing consumer must not starve the others")

	stats := bus.Stats()
	assert.Equal(t, uint64(1), stats.ConsumerErrors)
	assert.Equal(t, uint64(1), stats.Delivered)
}

func TestBusStartAndShutdownAreIdempotent(t *testing.T) {
	bus := NewBus(4)
	bus.Start(context.Background())
	bus.Start(context.Background())
	bus.Shutdown()
	bus.Shutdown()
}

type consumerFunc func(*acoustic.DetectionEvent) error

type namedConsumer struct {
	name string
	fn   consumerFunc
}

func (c namedConsumer) Name() string { return c.name }

func (c namedConsumer) ProcessDetection(event *acoustic.DetectionEvent) error {
	return c.fn(event)
}
