package workers

import (
	"context"
	"time"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/store"
)

// DefaultSweepInterval is used when the configuration does not set one.
const DefaultSweepInterval = 5 * time.Minute

// expiryStore is the slice of the repositories the sweeper needs.
// *store.Repositories satisfies it.
type expiryStore interface {
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
	DeleteExpiredAuthRequests(ctx context.Context) (int64, error)
	ExpireAbandonedAccessRequests(ctx context.Context) (int64, error)
}

// ExpirySweeper periodically clears rows whose lifetime has run out:
// expired refresh tokens are deleted, stale pending device-approval
// challenges are deleted, and emergency access requests the contact
// abandoned long past their waiting period are marked expired.
type ExpirySweeper struct {
	repos    expiryStore
	interval time.Duration
	logger   *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// NewExpirySweeper builds a sweeper over the given repositories.
// Non-positive intervals fall back to [DefaultSweepInterval].
func NewExpirySweeper(repos *store.Repositories, interval time.Duration, logger *logger.Logger) *ExpirySweeper {
	return newExpirySweeper(repos, interval, logger)
}

func newExpirySweeper(repos expiryStore, interval time.Duration, logger *logger.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpirySweeper{
		repos:    repos,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the sweep loop in its own goroutine and returns. The first
// sweep runs immediately, subsequent ones on every interval tick.
func (s *ExpirySweeper) Run() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *ExpirySweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *ExpirySweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if n, err := s.repos.DeleteExpiredRefreshTokens(ctx); err != nil {
		s.logger.Err(err).Msg("sweeping expired refresh tokens failed")
	} else if n > 0 {
		s.logger.Debug().Int64("deleted", n).Msg("swept expired refresh tokens")
	}

	if n, err := s.repos.DeleteExpiredAuthRequests(ctx); err != nil {
		s.logger.Err(err).Msg("sweeping expired auth requests failed")
	} else if n > 0 {
		s.logger.Debug().Int64("deleted", n).Msg("swept expired auth requests")
	}

	if n, err := s.repos.ExpireAbandonedAccessRequests(ctx); err != nil {
		s.logger.Err(err).Msg("expiring abandoned access requests failed")
	} else if n > 0 {
		s.logger.Debug().Int64("expired", n).Msg("expired abandoned emergency access requests")
	}
}
