// Package scheduler runs the periodic background jobs of the API
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/chambers"
)

const reconcileJob = "reconcile_orphans"

// Reconciler removes records left behind by partially applied writes
type Reconciler interface {
	ReconcileOrphans(ctx context.Context) (chambers.ReconcileReport, error)
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	Reconciler Reconciler
	Lock       Locker
	Schedule   string
	JobTimeout time.Duration
	instanceID string
}

// NewScheduler creates a new scheduler instance. A nil lock runs every job
// locally.
func NewScheduler(r Reconciler, lock Locker, schedule string) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}
	if lock == nil {
		lock = NewLocalLock()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Reconciler: r,
		Lock:       lock,
		Schedule:   schedule,
		JobTimeout: 5 * time.Minute,
		instanceID: instanceID,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.Schedule, func() { s.RunReconcile(context.Background()) }); err != nil {
		return fmt.Errorf("register %s job: %w", reconcileJob, err)
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "schedule", s.Schedule, "instance", s.instanceID)
	return nil
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// RunReconcile runs one reconcile pass unless another instance holds the job
// lock. It reports whether the pass ran.
func (s *Scheduler) RunReconcile(parent context.Context) bool {
	ctx, cancel := context.WithTimeout(parent, s.JobTimeout)
	defer cancel()

	acquired, err := s.Lock.TryAcquire(ctx, reconcileJob, s.instanceID, 2*s.JobTimeout)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for reconcile job", "error", err)
		return false
	}
	if !acquired {
		zap.S().Debug("reconcile job already running on another instance, skipping")
		return false
	}
	defer func() {
		if err := s.Lock.Release(context.Background(), reconcileJob, s.instanceID); err != nil {
			zap.S().Warnw("failed to release reconcile lock", "error", err)
		}
	}()

	report, err := s.Reconciler.ReconcileOrphans(ctx)
	if err != nil {
		zap.S().Errorw("reconcile job failed", "error", err, "instance", s.instanceID)
		return true
	}
	zap.S().Infow("reconcile job complete",
		"chambers", report.Chambers,
		"members", report.Members,
		"requests", report.Requests,
	)
	return true
}
