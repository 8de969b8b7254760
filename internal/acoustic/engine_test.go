package acoustic

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// collector is a Publisher capturing emitted events.
type collector struct {
	mu     sync.Mutex
	events []*DetectionEvent
}

func (c *collector) Publish(event *DetectionEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return true
}

func (c *collector) Events() []*DetectionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*DetectionEvent, len(c.events))
	copy(out, c.events)
	return out
}

// scriptedSource returns a fixed sequence of frames, then io.EOF.
type scriptedSource struct {
	name   string
	frames []*Frame
	idx    int
	closed bool
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) ReadFrame(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.idx >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.idx]
	s.idx++
	return frame, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

// blockingSource blocks in ReadFrame until the context is cancelled.
type blockingSource struct {
	closed chan struct{}
	once   sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{closed: make(chan struct{})}
}

func (s *blockingSource) Name() string { return "blocking" }

func (s *blockingSource) ReadFrame(ctx context.Context) (*Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, io.EOF
	}
}

func (s *blockingSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// fireFrame synthesizes a frame carrying the fire alarm signature.
func fireFrame() *Frame {
	return sineFrame(testFFTSize, map[float64]float64{3100: 0.9, 6200: 0.7})
}

// cryFrame synthesizes a frame carrying the baby cry signature.
func cryFrame() *Frame {
	return sineFrame(testFFTSize, map[float64]float64{400: 0.9, 2000: 0.7})
}

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	if cfg.Analyzer.FFTSize == 0 {
		cfg.Analyzer = testAnalyzerConfig()
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	return engine
}

func TestEngineRunEmitsFireDetection(t *testing.T) {
	sink := &collector{}
	engine := newTestEngine(t, EngineConfig{Publisher: sink})

	frames := make([]*Frame, 10)
	for i := range frames {
		frames[i] = fireFrame()
	}
	source := &scriptedSource{name: "test", frames: frames}

	require.NoError(t, engine.Run(context.Background(), source))
	assert.True(t, source.closed, "source must be released when the session ends")

	events := sink.Events()
	// All ten frames arrive well within the fire cooldown, the gate lets
	// exactly one event through.
	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, Fire, event.Kind)
	assert.Equal(t, "fire_alarm", event.KindName)
	assert.Greater(t, event.Confidence, 0.75)
	assert.InDelta(t, 3100, event.FrequencyHz, 150)
	assert.Equal(t, "test", event.Source)
	assert.NotEmpty(t, event.ID)
}

func TestEngineCycleClassifiesOnlyEnabledKinds(t *testing.T) {
	sink := &collector{}
	mask := NewEnabledMask()
	engine := newTestEngine(t, EngineConfig{Publisher: sink, Enabled: mask})
	engine.resetSession("test")

	mask.Set(Fire, false)
	for range 5 {
		assert.Empty(t, engine.cycle(fireFrame()))
	}
	assert.Empty(t, sink.Events(), "disabled kind must not emit")

	// Re-enabling takes effect on the next cycle, no session restart.
	mask.Set(Fire, true)
	emitted := engine.cycle(fireFrame())
	require.Len(t, emitted, 1)
	assert.Equal(t, Fire, emitted[0].Kind)
}

func TestEngineSessionRestartClearsGateState(t *testing.T) {
	sink := &collector{}
	engine := newTestEngine(t, EngineConfig{Publisher: sink})
	engine.resetSession("test")

	require.Len(t, engine.cycle(fireFrame()), 1)
	assert.Empty(t, engine.cycle(fireFrame()), "second cycle lands in the cooldown")

	// Stop and start: the same strong signal fires again immediately.
	engine.resetSession("test")
	require.Len(t, engine.cycle(fireFrame()), 1)
}

func TestEngineRunSessionsAreIndependent(t *testing.T) {
	sink := &collector{}
	engine := newTestEngine(t, EngineConfig{Publisher: sink})

	for range 2 {
		source := &scriptedSource{name: "test", frames: []*Frame{fireFrame(), fireFrame()}}
		require.NoError(t, engine.Run(context.Background(), source))
	}

	// One emission per session despite the sessions running back to back
	// well within the cooldown window.
	assert.Len(t, sink.Events(), 2)
}

func TestEngineMalformedFrameSkipsCycle(t *testing.T) {
	sink := &collector{}
	engine := newTestEngine(t, EngineConfig{Publisher: sink})
	engine.resetSession("test")

	// Establish a non-zero level first.
	engine.cycle(cryFrame())
	levelBefore := engine.Level()
	require.Positive(t, levelBefore)

	emitted := engine.cycle(&Frame{Samples: make([]float64, 3), SampleRate: testSampleRate})
	assert.Empty(t, emitted)
	assert.Equal(t, levelBefore, engine.Level(), "a skipped cycle must not move the level")
}

func TestEngineDistinctKindsMayFireInOneSession(t *testing.T) {
	sink := &collector{}
	engine := newTestEngine(t, EngineConfig{Publisher: sink})
	engine.resetSession("test")

	engine.cycle(fireFrame())
	// Analyzer smoothing carries some fire energy into the next cycles,
	// feed the cry signature until it fires.
	var sawCry bool
	for range 20 {
		for _, event := range engine.cycle(cryFrame()) {
			if event.Kind == BabyCry {
				sawCry = true
			}
		}
	}

	kinds := map[SignatureKind]bool{}
	for _, event := range sink.Events() {
		kinds[event.Kind] = true
	}
	assert.True(t, kinds[Fire])
	assert.True(t, sawCry)
}

func TestEngineLevelPublishing(t *testing.T) {
	levelChan := make(chan LevelUpdate, 16)
	engine := newTestEngine(t, EngineConfig{LevelChan: levelChan})
	engine.resetSession("test")

	engine.cycle(cryFrame())

	select {
	case update := <-levelChan:
		assert.Positive(t, update.Level)
		assert.Equal(t, "test", update.Source)
	default:
		t.Fatal("expected a level update after the cycle")
	}
	assert.Positive(t, engine.Level())
}

func TestEngineLevelResetBetweenSessions(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})
	engine.resetSession("test")

	engine.cycle(cryFrame())
	require.Positive(t, engine.Level())

	engine.resetSession("test")
	assert.Zero(t, engine.Level())
}

func TestEngineRunStopsOnContextCancel(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})
	source := newBlockingSource()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx, source)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop, not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop after cancellation")
	}
}

func TestEngineRejectsConcurrentSessions(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})
	source := newBlockingSource()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx, source)
	}()

	// Wait for the first session to take the running flag.
	require.Eventually(t, func() bool { return engine.running.Load() }, time.Second, time.Millisecond)

	err := engine.Run(ctx, &scriptedSource{name: "second"})
	assert.Error(t, err)

	cancel()
	require.NoError(t, <-done)
}

func TestNewEngineFailsOnBadAnalyzerConfig(t *testing.T) {
	cfg := testAnalyzerConfig()
	cfg.FFTSize = 1000
	_, err := NewEngine(EngineConfig{Analyzer: cfg})
	assert.Error(t, err)
}
