package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/japaniel/wksync/pkg/metrics"
	"github.com/japaniel/wksync/pkg/subject"
)

// DefaultMaxInFlight bounds concurrent reconciliations when none is set.
const DefaultMaxInFlight = 300

// SubjectReconciler is implemented by *Reconciler.
type SubjectReconciler interface {
	Reconcile(ctx context.Context, rec subject.Record) error
}

// Scheduler runs one reconciliation per subject, at most MaxInFlight at a
// time, and never stops early because a subject failed.
type Scheduler struct {
	Reconciler  SubjectReconciler
	MaxInFlight int
	// OnProgress is called after every completed reconciliation, success or
	// not. Calls are serialized and completed is strictly increasing.
	OnProgress func(completed, total int)
}

// NewScheduler returns a Scheduler with the default bound.
func NewScheduler(r SubjectReconciler) *Scheduler {
	return &Scheduler{Reconciler: r, MaxInFlight: DefaultMaxInFlight}
}

// Run reconciles every subject exactly once, in map iteration order.
//
// When ctx is cancelled no further subjects are admitted; reconciliations
// already running finish against a context that is not cancelled, so no
// subject is left half written by the cancellation itself. The partial
// report is returned with ctx.Err().
func (s *Scheduler) Run(ctx context.Context, subjects map[int]subject.Record) (RunReport, error) {
	start := time.Now()
	total := len(subjects)
	report := RunReport{Total: total}
	metrics.SyncSubjectsTotal.Set(float64(total))

	limit := s.MaxInFlight
	if limit <= 0 {
		limit = DefaultMaxInFlight
	}
	pool := NewPool(limit, limit)
	pool.Start(ctx)

	var (
		mu        sync.Mutex
		completed int
	)
	for _, rec := range subjects {
		job := func(jobCtx context.Context) {
			if jobCtx.Err() != nil {
				return
			}
			err := s.reconcile(context.WithoutCancel(jobCtx), rec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, asSyncError(rec.SubjectID(), err))
			} else {
				report.Succeeded++
			}
			completed++
			if s.OnProgress != nil {
				s.OnProgress(completed, total)
			}
		}
		if err := pool.SubmitCtx(ctx, job); err != nil {
			break
		}
	}
	pool.Close()

	sortFailures(report.Failed)
	report.Skipped = total - report.Succeeded - len(report.Failed)
	report.Duration = time.Since(start)
	return report, ctx.Err()
}

func (s *Scheduler) reconcile(ctx context.Context, rec subject.Record) error {
	metrics.SyncInFlight.Inc()
	defer metrics.SyncInFlight.Dec()

	start := time.Now()
	err := s.Reconciler.Reconcile(ctx, rec)
	metrics.ReconcileDuration.WithLabelValues(string(rec.Type())).Observe(time.Since(start).Seconds())

	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	metrics.SyncSubjectsCompleted.WithLabelValues(outcome).Inc()
	return err
}
