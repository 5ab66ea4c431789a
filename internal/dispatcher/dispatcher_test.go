package dispatcher

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Close)

	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(KindShow, func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Kind: KindShow, Seat: "driver", Observer: 7})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "result" {
		t.Errorf("expected 'result', got %v", result)
	}
	if got.Seat != "driver" || got.Observer != 7 {
		t.Errorf("handler got %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected dispatch to stamp the event")
	}
}

func TestDispatcher_UnknownKind(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Kind: "explode"})

	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDispatcher_OrderIsPreserved(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var order []Kind
	record := func(e Event) (any, error) {
		order = append(order, e.Kind)
		return nil, nil
	}
	for _, k := range []Kind{KindTransform, KindMove, KindTick} {
		d.Register(k, record)
	}

	for _, k := range []Kind{KindTransform, KindMove, KindTick, KindTransform} {
		if _, err := d.Dispatch(Event{Kind: k}); err != nil {
			t.Fatalf("dispatch %s: %v", k, err)
		}
	}

	want := []Kind{KindTransform, KindMove, KindTick, KindTransform}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Register(KindModeChange, func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Kind: KindModeChange})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != "queued" {
			t.Errorf("expected 'queued', got %v", result)
		}
	}

	wg.Wait()

	if processed.Load() != 3 {
		t.Errorf("expected 3 processed, got %d", processed.Load())
	}
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register(KindModeChange, func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))

	d.Dispatch(Event{Kind: KindModeChange}) // being processed
	<-started
	d.Dispatch(Event{Kind: KindModeChange}) // queued
	d.Dispatch(Event{Kind: KindModeChange}) // queued

	_, err := d.Dispatch(Event{Kind: KindModeChange})

	if err == nil {
		t.Error("expected error when queue is full")
	}

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register(KindModeChange, func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Kind: KindModeChange})
	<-started
	d.Dispatch(Event{Kind: KindModeChange})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Kind: KindModeChange})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
		// Expected - dispatch is blocking
	}

	close(block)
	<-done
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(KindTick, func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	d.Dispatch(Event{Kind: KindTick, Seat: "gunner", Tick: 4})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.messages) < 2 {
		t.Errorf("expected at least 2 log messages, got %d", len(logger.messages))
	}
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register(KindEject, func(e Event) (any, error) {
		return nil, fmt.Errorf("no such seat")
	}, Logged())

	d.Dispatch(Event{Kind: KindEject})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	hasError := false
	for _, msg := range logger.messages {
		if len(msg) >= 5 && msg[:5] == "ERROR" {
			hasError = true
			break
		}
	}

	if !hasError {
		t.Error("expected error log message")
	}
}

func TestDispatcher_HasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register(KindAttach, func(e Event) (any, error) { return nil, nil })

	if !d.HasHandler(KindAttach) {
		t.Error("expected handler to exist")
	}

	if d.HasHandler(KindDetach) {
		t.Error("expected handler to not exist")
	}
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	logger := &testLogger{}
	d, err := New(logger)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	var processed atomic.Int32
	d.Register(KindModeChange, func(e Event) (any, error) {
		time.Sleep(time.Millisecond)
		processed.Add(1)
		return nil, nil
	}, Buffered(10), Logged())

	for i := 0; i < 5; i++ {
		d.Dispatch(Event{Kind: KindModeChange})
	}
	d.Close()

	if processed.Load() != 5 {
		t.Errorf("expected 5 processed after close, got %d", processed.Load())
	}
}
