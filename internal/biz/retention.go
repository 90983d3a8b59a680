package biz

import (
	"context"
	"fmt"
	"time"

	"CarValuator/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// DefaultProviderLogRetention applies when configuration leaves retention unset.
const DefaultProviderLogRetention = 30 * 24 * time.Hour

// ProviderLogRetentionTask deletes provider call records older than the
// configured retention period.
type ProviderLogRetentionTask struct {
	repo      ProviderLogRepo
	retention time.Duration
	now       func() time.Time
	logger    *log.Helper
}

// NewProviderLogRetentionTask creates the retention task.
func NewProviderLogRetentionTask(c *conf.Audit, repo ProviderLogRepo, logger log.Logger) *ProviderLogRetentionTask {
	retention := DefaultProviderLogRetention
	if c != nil && c.Retention != nil && c.Retention.AsDuration() > 0 {
		retention = c.Retention.AsDuration()
	}
	return &ProviderLogRetentionTask{
		repo:      repo,
		retention: retention,
		now:       time.Now,
		logger:    log.NewHelper(logger),
	}
}

// PurgeExpiredLogs removes records written before now minus the retention period.
func (t *ProviderLogRetentionTask) PurgeExpiredLogs(ctx context.Context) error {
	cutoff := t.now().Add(-t.retention)

	deleted, err := t.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge provider logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	t.logger.Infow("msg", "provider log retention completed",
		"cutoff", cutoff.Format(time.RFC3339),
		"deleted", deleted)
	return nil
}
