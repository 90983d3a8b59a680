package server

import (
	"context"
	"fmt"
	"time"

	"CarValuator/internal/biz"
	"CarValuator/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultPurgeSchedule runs the provider log purge daily at 03:00.
	DefaultPurgeSchedule = "0 0 3 * * *"
	purgeTimeout         = 30 * time.Minute
)

// CronServer runs scheduled maintenance jobs as a kratos transport server,
// so jobs start and stop with the application.
type CronServer struct {
	cron   *cron.Cron
	logger *log.Helper
}

// NewCronServer registers the provider log purge on audit.purge_schedule.
// Schedules use six fields, seconds first.
func NewCronServer(c *conf.Audit, task *biz.ProviderLogRetentionTask, logger log.Logger) (*CronServer, error) {
	helper := log.NewHelper(logger)

	schedule := DefaultPurgeSchedule
	if c != nil && c.PurgeSchedule != "" {
		schedule = c.PurgeSchedule
	}

	cr := cron.New(cron.WithSeconds())
	_, err := cr.AddFunc(schedule, func() {
		helper.Info("starting provider log purge")
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()

		if err := task.PurgeExpiredLogs(ctx); err != nil {
			helper.Errorw("msg", "provider log purge failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid audit purge schedule %q: %w", schedule, err)
	}

	helper.Infow("msg", "provider log purge scheduled", "schedule", schedule)
	return &CronServer{cron: cr, logger: helper}, nil
}

// Start starts the scheduler. It does not block.
func (s *CronServer) Start(context.Context) error {
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish or ctx to end.
func (s *CronServer) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries returns the registered jobs.
func (s *CronServer) Entries() []cron.Entry {
	return s.cron.Entries()
}
