package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/julianvossen/gatherly-backend/pkg/logger"
)

type gatheringExpirer interface {
	ExpireDue(ctx context.Context, asOf time.Time) (int, error)
}

// ExpirationJobParams configure the gathering expiration sweep.
type ExpirationJobParams struct {
	Logger     *logger.Logger
	Gatherings gatheringExpirer
}

// NewExpirationJob builds the cron job that retires gatherings whose date has
// passed while they were still recruiting.
func NewExpirationJob(params ExpirationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Gatherings == nil {
		return nil, fmt.Errorf("gatherings service required")
	}
	return &expirationJob{
		logg:       params.Logger,
		gatherings: params.Gatherings,
		now:        time.Now,
	}, nil
}

type expirationJob struct {
	logg       *logger.Logger
	gatherings gatheringExpirer
	now        func() time.Time
}

func (j *expirationJob) Name() string { return "gathering-expiration" }

func (j *expirationJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	expired, err := j.gatherings.ExpireDue(ctx, asOf)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":   asOf,
		"expired": expired,
	})
	if err != nil {
		// Partial progress still counts; the error carries the per-gathering
		// failures for the next run to retry.
		j.logg.Error(logCtx, "expiration sweep finished with failures", err)
		return fmt.Errorf("expiration sweep: %w", err)
	}
	j.logg.Info(logCtx, "expiration sweep complete")
	return nil
}
