package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianvossen/gatherly-backend/pkg/logger"
)

type fakeExpirer struct {
	expired int
	err     error
	called  int
	lastAs  time.Time
}

func (f *fakeExpirer) ExpireDue(_ context.Context, asOf time.Time) (int, error) {
	f.called++
	f.lastAs = asOf
	return f.expired, f.err
}

func newExpirationJob(t *testing.T, expirer *fakeExpirer) *expirationJob {
	t.Helper()
	jobIface, err := NewExpirationJob(ExpirationJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Gatherings: expirer,
	})
	if err != nil {
		t.Fatalf("NewExpirationJob: %v", err)
	}
	job, ok := jobIface.(*expirationJob)
	if !ok {
		t.Fatalf("expected expirationJob, got %T", jobIface)
	}
	return job
}

func TestExpirationJobSweeps(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{expired: 3}
	job := newExpirationJob(t, expirer)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.called != 1 {
		t.Fatalf("expected one sweep, got %d", expirer.called)
	}
	if !expirer.lastAs.Equal(now) {
		t.Fatalf("expected asOf %s, got %s", now, expirer.lastAs)
	}
}

func TestExpirationJobPropagatesErrors(t *testing.T) {
	expirer := &fakeExpirer{expired: 1, err: errors.New("one gathering failed")}
	job := newExpirationJob(t, expirer)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when the sweep partially fails")
	}
}

func TestExpirationJobName(t *testing.T) {
	job := newExpirationJob(t, &fakeExpirer{})
	if job.Name() != "gathering-expiration" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
}
