package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/cerberus/internal/logging"
	"github.com/aretw0/cerberus/pkg/domain"
)

// DefaultRefreshInterval is the period of the auto-refresh timer.
const DefaultRefreshInterval = 2 * time.Second

// AutoRefresher periodically refreshes the active view while auto-refresh is on.
type AutoRefresher struct {
	orch     *Orchestrator
	interval time.Duration
	logger   *slog.Logger
}

// RefresherOption configures the AutoRefresher.
type RefresherOption func(*AutoRefresher)

// WithInterval overrides DefaultRefreshInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) RefresherOption {
	return func(r *AutoRefresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRefreshLogger configures a logger for the AutoRefresher.
func WithRefreshLogger(logger *slog.Logger) RefresherOption {
	return func(r *AutoRefresher) {
		r.logger = logger
	}
}

// NewAutoRefresher creates a refresher driving orch.
func NewAutoRefresher(orch *Orchestrator, opts ...RefresherOption) *AutoRefresher {
	r := &AutoRefresher{
		orch:     orch,
		interval: DefaultRefreshInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ticks until ctx is done.
func (r *AutoRefresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs one timer step. It reports whether a request was sent.
// Nothing happens while auto-refresh is off; a failed refresh turns it off.
func (r *AutoRefresher) Tick(ctx context.Context) bool {
	if !r.orch.session.Settings().AutoRefresh {
		return false
	}
	sent, err := r.orch.Refresh(ctx)
	switch {
	case errors.Is(err, domain.ErrNoActiveView):
		return false
	case err != nil:
		r.logger.Warn("auto refresh failed", "err", err)
	}
	return sent
}
