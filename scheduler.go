package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"quad-image/internal/logging"
	"quad-image/internal/thumbs"
)

const dbMetricsInterval = time.Minute

// dbMetricsUpdater is the part of the database the scheduler refreshes.
type dbMetricsUpdater interface {
	UpdateDBMetrics()
}

// startScheduler runs a thumbnail sweep now and then every interval, and
// refreshes database metrics every minute. A sweep still running when the
// next one is due causes that one to be skipped.
func startScheduler(ctx context.Context, gen *thumbs.Generator, db dbMetricsUpdater, interval time.Duration) (*cron.Cron, error) {
	c := cron.New()

	sweep := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cron.FuncJob(func() {
		if err := gen.GenerateAll(ctx); err != nil {
			logging.Warn("Thumbnail sweep finished with errors: %v", err)
		}
	}))

	if _, err := c.AddJob("@every "+interval.String(), sweep); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@every "+dbMetricsInterval.String(), db.UpdateDBMetrics); err != nil {
		return nil, err
	}

	c.Start()
	go sweep.Run()

	return c, nil
}
