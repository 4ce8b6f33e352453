package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/japaniel/wksync/pkg/logging"
	"github.com/japaniel/wksync/pkg/subject"
	"github.com/rs/zerolog"
)

// Snapshot supplies the subject mapping for a run. *snapshot.Store
// satisfies it.
type Snapshot interface {
	LoadOrFetch(ctx context.Context) (map[int]subject.Record, error)
	Refresh(ctx context.Context) (map[int]subject.Record, error)
}

// Options tune a single Driver run.
type Options struct {
	// Refresh fetches a new snapshot even if one is cached.
	Refresh bool
	// Only restricts the run to these subject ids, typically the failed ids
	// of a previous report. Ids missing from the snapshot are logged and
	// ignored.
	Only []int
}

// Driver loads the snapshot and hands it to the Scheduler.
type Driver struct {
	Snapshot  Snapshot
	Scheduler *Scheduler
	Logger    *zerolog.Logger
}

func (d *Driver) logger() *zerolog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	l := logging.Component("driver")
	return &l
}

// Run performs one sync. Subject failures are reported, not returned: the
// error is non-nil only if the snapshot could not be loaded or ctx was
// cancelled.
func (d *Driver) Run(ctx context.Context, opts Options) (RunReport, error) {
	log := d.logger()

	load := d.Snapshot.LoadOrFetch
	if opts.Refresh {
		load = d.Snapshot.Refresh
	}
	started := time.Now()
	subjects, err := load(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("load snapshot: %w", err)
	}
	log.Info().Int("subjects", len(subjects)).Dur("took", time.Since(started)).Msg("snapshot loaded")

	if len(opts.Only) > 0 {
		subjects = restrict(subjects, opts.Only, log)
	}

	report, err := d.Scheduler.Run(ctx, subjects)

	ev := log.Info()
	if len(report.Failed) > 0 || err != nil {
		ev = log.Warn()
	}
	ev.Int("total", report.Total).
		Int("succeeded", report.Succeeded).
		Int("failed", len(report.Failed)).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration).
		Msg("sync finished")
	for _, f := range report.Failed {
		log.Debug().Int("subject_id", f.SubjectID).Str("stage", string(f.Stage)).Err(f.Err).Msg("subject failed")
	}

	if err != nil {
		return report, fmt.Errorf("sync interrupted: %w", err)
	}
	return report, nil
}

func restrict(all map[int]subject.Record, ids []int, log *zerolog.Logger) map[int]subject.Record {
	out := make(map[int]subject.Record, len(ids))
	for _, id := range ids {
		rec, ok := all[id]
		if !ok {
			log.Warn().Int("subject_id", id).Msg("subject not in snapshot; skipping")
			continue
		}
		out[id] = rec
	}
	return out
}
