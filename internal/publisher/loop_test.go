package publisher

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/YaganovValera/cart-abandonment-producer/internal/catalog"
	"github.com/YaganovValera/cart-abandonment-producer/internal/generator"
	"github.com/YaganovValera/cart-abandonment-producer/internal/model"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/logger"
	"github.com/YaganovValera/cart-abandonment-producer/pkg/sink"
)

var errThrottled = errors.New("throughput exceeded")

// stubSink подтверждает записи из отдельной goroutine; каждая failEvery-я
// запись завершается ошибкой.
type stubSink struct {
	failEvery int64
	n         atomic.Int64
	inflight  sink.InFlight

	mu     sync.Mutex
	keys   []string
	closed bool
}

func (s *stubSink) PublishAsync(ctx context.Context, key string, payload []byte, cb sink.Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sink.ErrClosed
	}
	s.keys = append(s.keys, key)
	s.mu.Unlock()

	n := s.n.Add(1)
	s.inflight.Add()
	go func() {
		defer s.inflight.Done()
		if s.failEvery > 0 && n%s.failEvery == 0 {
			cb(sink.Result{}, errThrottled)
			return
		}
		cb(sink.Result{Destination: "t", ShardID: "shard-0", SequenceNumber: strconv.FormatInt(n, 10)}, nil)
	}()
	return nil
}

func (s *stubSink) Flush(ctx context.Context) error { return s.inflight.Wait(ctx) }
func (s *stubSink) Ping(context.Context) error      { return nil }
func (s *stubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func newGen(t *testing.T) *generator.Generator {
	t.Helper()
	g, err := generator.New(catalog.Default(), generator.Options{Source: generator.NewSeededSource(3)})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func observedLogger(level zapcore.Level) (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logger.FromZap(zap.New(core)), logs
}

func TestRun_FailingSinkKeepsGoing(t *testing.T) {
	log, logs := observedLogger(zapcore.DebugLevel)
	s := &stubSink{failEvery: 3}
	loop := New(newGen(t), s, Config{BatchSize: 50, Pause: time.Millisecond, MaxEvents: 150}, log)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	st := loop.Stats()
	if st.Generated != 150 || st.Submitted != 150 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Failed != 50 || st.Acked != 100 {
		t.Errorf("acked=%d failed=%d; want 100/50", st.Acked, st.Failed)
	}

	failures := logs.FilterMessage("publish failed").All()
	if len(failures) != 50 {
		t.Fatalf("failure logs = %d; want 50", len(failures))
	}
	fields := failures[0].ContextMap()
	for _, k := range []string{"customer_id", "seller_id", "event_time", "items", "error"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("failure log has no %q field", k)
		}
	}
	if failures[0].Level != zapcore.ErrorLevel {
		t.Errorf("failure level = %v", failures[0].Level)
	}
	if n := logs.FilterMessage("record published").Len(); n != 100 {
		t.Errorf("success logs = %d; want 100", n)
	}
}

func TestRun_PartitionKeyIsCustomer(t *testing.T) {
	s := &stubSink{}
	g, err := generator.New(catalog.Default(), generator.Options{Policy: generator.FixedPool, Source: generator.NewSeededSource(9)})
	if err != nil {
		t.Fatal(err)
	}
	loop := New(g, s, Config{MaxEvents: 20}, logger.Nop())
	if err := loop.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	pool := make(map[string]bool)
	for _, c := range catalog.Default().Customers() {
		pool[c] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if !pool[k] {
			t.Fatalf("key %q is not a customer id", k)
		}
	}
}

func TestRun_InterruptDuringPause(t *testing.T) {
	log, logs := observedLogger(zapcore.InfoLevel)
	s := &stubSink{}
	// пауза длиннее теста: продолжиться цикл может только после Interrupt
	loop := New(newGen(t), s, Config{BatchSize: 10, Pause: time.Hour, MaxEvents: 15}, log)

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for !loop.Interrupt() {
		select {
		case <-deadline:
			t.Fatal("loop never paused")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not resume after interrupt")
	}

	if st := loop.Stats(); st.Interrupts != 1 || st.Generated != 15 {
		t.Errorf("stats = %+v", st)
	}
	warns := logs.FilterMessage("pause interrupted, resuming").All()
	if len(warns) != 1 || warns[0].Level != zapcore.WarnLevel {
		t.Errorf("interrupt warnings = %v", warns)
	}
}

func TestInterrupt_OutsidePauseIsNoop(t *testing.T) {
	loop := New(newGen(t), &stubSink{}, Config{BatchSize: 10, Pause: time.Second}, logger.Nop())
	if loop.Interrupt() {
		t.Fatal("Interrupt without a pause must report false")
	}
}

func TestRun_CancelDuringPause(t *testing.T) {
	s := &stubSink{}
	loop := New(newGen(t), s, Config{BatchSize: 5, Pause: time.Hour}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	for loop.Stats().Generated < 5 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after cancel = %v; want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if g := loop.Stats().Generated; g != 5 {
		t.Errorf("generated = %d; want 5", g)
	}
}

func TestRun_EncodeErrorSkipped(t *testing.T) {
	log, logs := observedLogger(zapcore.InfoLevel)
	s := &stubSink{}
	var calls atomic.Int64
	enc := func(ev model.CartAbandonmentEvent) ([]byte, error) {
		if calls.Add(1)%2 == 0 {
			return nil, errors.New("boom")
		}
		return model.Encode(ev)
	}
	loop := New(newGen(t), s, Config{MaxEvents: 10}, log, WithEncoder(enc))
	if err := loop.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	st := loop.Stats()
	if st.Generated != 10 || st.EncodeErrors != 5 || st.Submitted != 5 {
		t.Errorf("stats = %+v", st)
	}
	if n := logs.FilterMessage("encode event failed").Len(); n != 5 {
		t.Errorf("encode error logs = %d; want 5", n)
	}
}

func TestRun_ClosedSinkStops(t *testing.T) {
	s := &stubSink{}
	_ = s.Close()
	loop := New(newGen(t), s, Config{}, logger.Nop())
	if err := loop.Run(context.Background()); !errors.Is(err, sink.ErrClosed) {
		t.Fatalf("Run = %v; want ErrClosed", err)
	}
	if st := loop.Stats(); st.Failed != 1 {
		t.Errorf("failed = %d; want 1", st.Failed)
	}
}

func TestPacer_Due(t *testing.T) {
	p := NewPacer(100, time.Millisecond)
	if p.Due(0) || p.Due(99) || !p.Due(100) || !p.Due(200) {
		t.Error("unexpected Due results")
	}
	if NewPacer(0, time.Second).Due(100) || NewPacer(100, 0).Due(100) {
		t.Error("disabled pacer must never be due")
	}
}
