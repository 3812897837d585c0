package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"go.uber.org/multierr"
)

const (
	JobSessionIdleEviction = "session_idle_eviction"
	JobCouponRevalidation  = "coupon_revalidation"
	JobRecordRetention     = "collection_record_retention"
)

type sessionEvictor interface {
	EvictIdle(ctx context.Context) (int, error)
}

type sessionLister interface {
	Sessions() []*session.Context
}

// NewSessionEvictionJob closes sessions idle past the configured TTL.
func NewSessionEvictionJob(logg *logger.Logger, evictor sessionEvictor) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if evictor == nil {
		return nil, fmt.Errorf("session evictor required")
	}
	return &sessionEvictionJob{logg: logg, evictor: evictor}, nil
}

type sessionEvictionJob struct {
	logg    *logger.Logger
	evictor sessionEvictor
}

func (j *sessionEvictionJob) Name() string { return JobSessionIdleEviction }

func (j *sessionEvictionJob) Run(ctx context.Context) error {
	evicted, err := j.evictor.EvictIdle(ctx)
	if evicted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "evicted", evicted), "sessions evicted")
	}
	return err
}

// NewCouponRevalidationJob re-checks every applied coupon. Coupons the
// backend now rejects are dropped; transient failures are retried next cycle.
func NewCouponRevalidationJob(logg *logger.Logger, sessions sessionLister) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session lister required")
	}
	return &couponRevalidationJob{logg: logg, sessions: sessions}, nil
}

type couponRevalidationJob struct {
	logg     *logger.Logger
	sessions sessionLister
}

func (j *couponRevalidationJob) Name() string { return JobCouponRevalidation }

func (j *couponRevalidationJob) Run(ctx context.Context) error {
	var (
		errs      error
		checked   int
		transient int
	)
	for _, sc := range j.sessions.Sessions() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if !sc.Cart.HasPromo() {
			continue
		}
		checked++
		if _, err := sc.Cart.RevalidatePromo(ctx); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
				transient++
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("session %s: %w", sc.ID, err))
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"checked": checked, "transient": transient}), "coupons revalidated")
	return errs
}

type recordPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewRecordRetentionJob deletes durable collection records untouched for
// longer than retention. Only SQL storage needs it; Redis expires keys itself.
func NewRecordRetentionJob(logg *logger.Logger, purger recordPurger, retention time.Duration) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if purger == nil {
		return nil, fmt.Errorf("record purger required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &recordRetentionJob{logg: logg, purger: purger, retention: retention, now: time.Now}, nil
}

type recordRetentionJob struct {
	logg      *logger.Logger
	purger    recordPurger
	retention time.Duration
	now       func() time.Time
}

func (j *recordRetentionJob) Name() string { return JobRecordRetention }

func (j *recordRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge collection records: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"deleted": deleted, "cutoff": cutoff}), "collection records purged")
	return nil
}
