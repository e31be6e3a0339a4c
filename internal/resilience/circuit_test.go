package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errFail = errors.New("fail")

func newTestBreaker(threshold int, reset time.Duration) (*Breaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	b.nowFunc = func() time.Time { return now }
	return b, &now
}

func call(b *Breaker, err error) error {
	if allowErr := b.Allow(); allowErr != nil {
		return allowErr
	}
	b.Record(err)
	return err
}

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	if err := call(b, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.State() != CircuitClosed {
		t.Errorf("expected closed state, got %s", b.State())
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = call(b, errFail)
	}

	if b.State() != CircuitOpen {
		t.Fatalf("expected open state after 3 failures, got %s", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected ErrBreakerOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	_ = call(b, errFail)
	_ = call(b, errFail)
	_ = call(b, nil)
	_ = call(b, errFail)
	_ = call(b, errFail)

	if b.State() != CircuitClosed {
		t.Errorf("expected closed state, got %s", b.State())
	}
	if got := b.ConsecutiveFailures(); got != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", got)
	}
}

func TestBreaker_HalfOpenTrial(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	_ = call(b, errFail)
	if b.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	*now = now.Add(61 * time.Second)

	if err := b.Allow(); err != nil {
		t.Fatalf("expected trial call to be allowed, got %v", err)
	}
	if b.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}
	// Only one trial call at a time.
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected second trial call rejected, got %v", err)
	}

	b.Record(nil)
	if b.State() != CircuitClosed {
		t.Errorf("expected closed after successful trial call, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	_ = call(b, errFail)
	*now = now.Add(2 * time.Minute)

	if err := call(b, errFail); !errors.Is(err, errFail) {
		t.Fatalf("expected trial call to run and fail, got %v", err)
	}
	if b.State() != CircuitOpen {
		t.Fatalf("expected reopened circuit, got %s", b.State())
	}

	*now = now.Add(30 * time.Second)
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Errorf("expected reset timeout to restart, got %v", err)
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = call(b, errFail)

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}

func TestBreaker_Defaults(t *testing.T) {
	b := NewBreaker(BreakerConfig{})
	if b.cfg.FailureThreshold != 5 {
		t.Errorf("expected default threshold 5, got %d", b.cfg.FailureThreshold)
	}
	if b.cfg.ResetTimeout != 60*time.Second {
		t.Errorf("expected default reset 60s, got %s", b.cfg.ResetTimeout)
	}

	cfg := NewBreakerConfig(0, 0)
	if cfg.FailureThreshold != 5 || cfg.ResetTimeout != 60*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	cfg = NewBreakerConfig(2, 10)
	if cfg.FailureThreshold != 2 || cfg.ResetTimeout != 10*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestBreaker_Concurrent(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1000, ResetTimeout: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = call(b, errFail)
		}()
	}
	wg.Wait()

	if got := b.ConsecutiveFailures(); got != 50 {
		t.Errorf("expected 50 failures, got %d", got)
	}
}

func TestCircuitState_String(t *testing.T) {
	cases := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(99): "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d: expected %q, got %q", s, want, s.String())
		}
	}
}
