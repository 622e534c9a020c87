package maintenance

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publishedOutbox interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetters interface {
	DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type pendingCounter interface {
	CountPending() (int64, error)
}

// retentionJob deletes rows older than a day-count cutoff in one transaction.
type retentionJob struct {
	name  string
	logg  *logger.Logger
	db    txRunner
	days  int
	purge func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
	now   func() time.Time
}

// NewOutboxRetentionJob removes outbox rows published more than days ago.
func NewOutboxRetentionJob(logg *logger.Logger, db txRunner, repo publishedOutbox, days int) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newRetentionJob("outbox-retention", logg, db, days, repo.DeletePublishedBefore)
}

// NewDLQRetentionJob removes dead letters older than days.
func NewDLQRetentionJob(logg *logger.Logger, db txRunner, repo deadLetters, days int) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	return newRetentionJob("outbox-dlq-retention", logg, db, days, repo.DeleteBefore)
}

func newRetentionJob(name string, logg *logger.Logger, db txRunner, days int, purge func(context.Context, *gorm.DB, time.Time) (int64, error)) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if days <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", name)
	}
	return &retentionJob{name: name, logg: logg, db: db, days: days, purge: purge, now: time.Now}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.purge(ctx, tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}), "retention cleanup complete")
	return nil
}

// backlogJob warns when unpublished outbox rows pile up, which usually means
// the publisher is down or the broker is rejecting writes.
type backlogJob struct {
	logg    *logger.Logger
	counter pendingCounter
	warnAt  int64
}

func NewOutboxBacklogJob(logg *logger.Logger, counter pendingCounter, warnAt int64) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if counter == nil {
		return nil, fmt.Errorf("outbox counter required")
	}
	return &backlogJob{logg: logg, counter: counter, warnAt: warnAt}, nil
}

func (j *backlogJob) Name() string { return "outbox-backlog" }

func (j *backlogJob) Run(ctx context.Context) error {
	pending, err := j.counter.CountPending()
	if err != nil {
		return fmt.Errorf("count pending outbox rows: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "pending", pending)
	if j.warnAt > 0 && pending >= j.warnAt {
		j.logg.Warn(logCtx, "outbox backlog above threshold")
		return nil
	}
	j.logg.Debug(logCtx, "outbox backlog checked")
	return nil
}
