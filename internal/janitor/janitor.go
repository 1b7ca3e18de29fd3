// internal/janitor/janitor.go
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"gig-dispatch/internal/dispatch"
)

// Janitor periodically sweeps the engine: overdue pending offers are
// expired and long-terminal gigs are purged from memory and storage. It is
// bookkeeping, not correctness -- TTL enforcement at the accept decision
// point is authoritative. Runs on the leader only.
type Janitor struct {
	engine    *dispatch.Engine
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// New creates a janitor sweeping on the given cron spec (e.g. "@every 30s").
func New(engine *dispatch.Engine, spec string, retention time.Duration, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		engine:    engine,
		retention: retention,
		cron:      cron.New(),
		logger:    logger.With("component", "janitor"),
	}
	if _, err := j.cron.AddFunc(spec, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

// Start begins sweeping and blocks until the context is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("janitor started")
	j.cron.Start()
	<-ctx.Done()
	stopCtx := j.cron.Stop()
	<-stopCtx.Done()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	expired := j.engine.SweepExpiredOffers(ctx)
	purged := j.engine.PurgeTerminal(ctx, j.retention)
	if expired > 0 || purged > 0 {
		j.logger.Info("sweep complete", "offers_expired", expired, "gigs_purged", purged)
	}
}
