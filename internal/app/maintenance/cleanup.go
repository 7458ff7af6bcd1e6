package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sonvt1710/graylog2-server/internal/models"
	"github.com/sonvt1710/graylog2-server/internal/services"
	"github.com/sonvt1710/graylog2-server/pkg/logger"
	"github.com/sonvt1710/graylog2-server/pkg/metrics"
)

const (
	defaultGrantSpec = "@every 5m"
	defaultAuditSpec = "@daily"
)

// Cleaner runs the background jobs that keep sharing data tidy: deleting expired grants
// and pruning old share audit rows.
type Cleaner struct {
	db        *gorm.DB
	audits    *services.ShareAuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	grantSchedule string
	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays enables pruning of share audit rows older than days.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithGrantSchedule overrides the cron specification for grant expiry.
func WithGrantSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.grantSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil audits service disables audit retention.
func NewCleaner(db *gorm.DB, audits *services.ShareAuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:            db,
		audits:        audits,
		now:           time.Now,
		grantSchedule: defaultGrantSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.grantSchedule, func() {
		removed, err := CleanupExpiredGrants(context.Background(), c.db, c.now())
		if err != nil {
			c.log.Warn("grant expiry failed", zap.Error(err))
			return
		}
		if removed > 0 {
			c.log.Info("expired grants removed", zap.Int64("count", removed))
		}
	}); err != nil {
		return fmt.Errorf("maintenance: schedule grant expiry: %w", err)
	}

	if c.auditsEnabled() {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audits.CleanupBefore(context.Background(), c.auditCutoff()); err != nil {
				c.log.Warn("share audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule audit retention: %w", err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.db != nil {
		if _, err := CleanupExpiredGrants(ctx, c.db, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.auditsEnabled() {
		if _, err := c.audits.CleanupBefore(ctx, c.auditCutoff()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (c *Cleaner) auditsEnabled() bool {
	return c.audits != nil && c.retention > 0
}

func (c *Cleaner) auditCutoff() time.Time {
	return c.now().UTC().AddDate(0, 0, -c.retention)
}

// CleanupExpiredGrants deletes every grant whose expiry is at or before now.
func CleanupExpiredGrants(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup grants: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Delete(&models.Grant{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup grants: %w", result.Error)
	}

	metrics.ExpiredGrants.Add(float64(result.RowsAffected))
	return result.RowsAffected, nil
}
