package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/regkeeper/internal/client/auth"
	"github.com/dmitrijs2005/regkeeper/internal/client/models"
	"github.com/dmitrijs2005/regkeeper/internal/logging"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRefreshInterval  = 30 * time.Minute
	DefaultRefreshLookahead = time.Hour
)

// Refresher periodically rotates active tokens that are about to expire.
type Refresher struct {
	tokens    *TokenManager
	creds     CredentialLookup
	interval  time.Duration
	lookahead time.Duration
	log       logging.Logger
	clock     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRefresher(tokens *TokenManager, creds CredentialLookup, interval, lookahead time.Duration, log logging.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if lookahead <= 0 {
		lookahead = DefaultRefreshLookahead
	}
	return &Refresher{
		tokens:    tokens,
		creds:     creds,
		interval:  interval,
		lookahead: lookahead,
		log:       log,
		clock:     time.Now,
	}
}

// WithClock overrides clock for testing.
func (r *Refresher) WithClock(clock func() time.Time) *Refresher {
	r.clock = clock
	return r
}

// Start launches the refresh loop. A second Start while running is a no-op.
// The loop stops when ctx is done or Stop is called.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx, r.done)
	r.log.Info(ctx, "token refresher started", "interval", r.interval, "lookahead", r.lookahead)
}

// Stop cancels the loop and waits for the running sweep to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Refresher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.SweepOnce(ctx); err != nil {
				r.log.Warn(ctx, "token refresh sweep finished with errors", "error", err)
			}
		}
	}
}

// Due returns the active records whose expiry falls in (now, now+lookahead]
// and whose username has credentials.
func (r *Refresher) Due() []models.TokenRecord {
	now := r.clock()
	limit := now.Add(r.lookahead)

	var due []models.TokenRecord
	for _, rec := range r.tokens.Snapshot().Tokens {
		if !rec.IsActive {
			continue
		}
		exp, err := auth.ExpiresAt(rec.Token)
		if err != nil || !exp.After(now) || exp.After(limit) {
			continue
		}
		if _, ok := r.creds.Lookup(rec.Username); !ok {
			r.log.Debug(context.Background(), "no credentials, skipping refresh", "username", rec.Username, "id", rec.ID)
			continue
		}
		due = append(due, rec)
	}
	return due
}

// SweepOnce rotates every due record concurrently. One failure does not stop
// the others; all of them are returned together.
func (r *Refresher) SweepOnce(ctx context.Context) error {
	due := r.Due()
	if len(due) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	var g errgroup.Group
	for _, rec := range due {
		g.Go(func() error {
			if _, err := r.tokens.Rotate(ctx, rec.ID); err != nil {
				r.log.Error(ctx, "token refresh failed", "username", rec.Username, "id", rec.ID, "error", err)
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
				return nil
			}
			r.log.Info(ctx, "token refreshed", "username", rec.Username, "id", rec.ID)
			return nil
		})
	}
	_ = g.Wait()

	err := result.ErrorOrNil()
	if err != nil {
		r.tokens.RecordError(err)
	}
	return err
}
