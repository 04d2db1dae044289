package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keydrop/keydrop/internal/logger"
)

// countingStore counts sweep calls and can simulate failures.
type countingStore struct {
	tokens   atomic.Int64
	requests atomic.Int64
	access   atomic.Int64
	fail     bool
}

func (c *countingStore) DeleteExpiredRefreshTokens(context.Context) (int64, error) {
	c.tokens.Add(1)
	if c.fail {
		return 0, context.DeadlineExceeded
	}
	return 2, nil
}

func (c *countingStore) DeleteExpiredAuthRequests(context.Context) (int64, error) {
	c.requests.Add(1)
	return 1, nil
}

func (c *countingStore) ExpireAbandonedAccessRequests(context.Context) (int64, error) {
	c.access.Add(1)
	return 0, nil
}

func TestExpirySweeper_SweepsImmediatelyOnRun(t *testing.T) {
	cs := &countingStore{}
	s := newExpirySweeper(cs, time.Hour, logger.Nop())

	s.Run()
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for cs.access.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an immediate sweep after Run")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	if got := cs.tokens.Load(); got != 1 {
		t.Errorf("expected 1 token sweep, got %d", got)
	}
	if got := cs.requests.Load(); got != 1 {
		t.Errorf("expected 1 auth request sweep, got %d", got)
	}
}

func TestExpirySweeper_TicksOnInterval(t *testing.T) {
	cs := &countingStore{}
	s := newExpirySweeper(cs, 20*time.Millisecond, logger.Nop())

	s.Run()
	time.Sleep(110 * time.Millisecond)
	s.Stop()

	// immediate sweep plus several ticks
	if got := cs.tokens.Load(); got < 3 {
		t.Errorf("expected at least 3 sweeps, got %d", got)
	}
}

func TestExpirySweeper_FailureDoesNotStopLoop(t *testing.T) {
	cs := &countingStore{fail: true}
	s := newExpirySweeper(cs, 20*time.Millisecond, logger.Nop())

	s.Run()
	time.Sleep(70 * time.Millisecond)
	s.Stop()

	if got := cs.tokens.Load(); got < 2 {
		t.Errorf("expected repeated sweeps despite failures, got %d", got)
	}
	// later steps still run when an earlier one fails
	if got := cs.access.Load(); got < 2 {
		t.Errorf("expected access sweeps to continue, got %d", got)
	}
}

func TestExpirySweeper_StopWaitsForLoop(t *testing.T) {
	cs := &countingStore{}
	s := newExpirySweeper(cs, time.Hour, logger.Nop())

	s.Run()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

// The server drives the sweeper through the Workers aggregate, so its
// lifecycle must hold up when managed that way.
func TestExpirySweeper_RunsUnderWorkersAggregate(t *testing.T) {
	cs := &countingStore{}
	s := newExpirySweeper(cs, time.Hour, logger.Nop())

	ws := NewWorkers(s)
	ws.Run()

	deadline := time.After(2 * time.Second)
	for cs.access.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected a sweep after the aggregate started")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	done := make(chan struct{})
	go func() {
		ws.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("aggregate Stop did not drain the sweeper")
	}
}

func TestExpirySweeper_DefaultInterval(t *testing.T) {
	s := newExpirySweeper(&countingStore{}, 0, logger.Nop())

	if s.interval != DefaultSweepInterval {
		t.Errorf("expected default interval %v, got %v", DefaultSweepInterval, s.interval)
	}
}
