// Package jobs schedules the background work of "wingetbridge serve".
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"wingetbridge/internal/config"
	"wingetbridge/internal/metrics"
	"wingetbridge/pkg/manager"
)

// Refresher is the part of a manager the refresh job drives.
type Refresher interface {
	RefreshSources(ctx context.Context) error
	ListUpdates(ctx context.Context) ([]manager.UpgradablePackage, error)
}

const refreshJob = "source-refresh"

// Start schedules the refresh job and starts the scheduler. A zero interval
// disables scheduling and returns a stopped scheduler.
func Start(ctx context.Context, r Refresher, cfg config.ServerConfig, log logrus.FieldLogger) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	interval := cfg.RefreshIntervalMinutes
	if interval <= 0 {
		log.Info("refresh interval is 0, scheduled refresh is disabled")
		return s, nil
	}

	log.WithField("job", refreshJob).Infof("scheduling every %d minutes", interval)
	_, err := s.Every(interval).Minutes().Tag(refreshJob).Do(func() {
		if err := Refresh(ctx, r, cfg.MetricsTextfile, log); err != nil {
			log.WithError(err).WithField("job", refreshJob).Warn("scheduled refresh failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", refreshJob, err)
	}

	s.StartAsync()
	return s, nil
}

// Refresh rebuilds the source registry, updates the pending-update gauge
// and writes the metrics textfile when a path is set.
func Refresh(ctx context.Context, r Refresher, textfile string, log logrus.FieldLogger) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.WithField("job", refreshJob).Debug("running")

	if err := r.RefreshSources(ctx); err != nil {
		return fmt.Errorf("refresh sources: %w", err)
	}

	updates, err := r.ListUpdates(ctx)
	if err != nil {
		return fmt.Errorf("list updates: %w", err)
	}
	metrics.SetUpdatesAvailable(len(updates))
	log.WithField("job", refreshJob).Infof("%d updates available", len(updates))

	if textfile != "" {
		if err := metrics.WriteTextfile(textfile); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
	}
	return nil
}
