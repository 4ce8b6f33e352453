// Package syncer mirrors a catalog snapshot into the relational store.
//
// A Reconciler rewrites one subject; a Scheduler runs one reconciliation per
// subject with bounded parallelism and collects a RunReport; a Driver ties
// the snapshot and the scheduler into a single run.
package syncer

import (
	"context"
	"fmt"

	"github.com/japaniel/wksync/pkg/db"
	"github.com/japaniel/wksync/pkg/logging"
	"github.com/japaniel/wksync/pkg/metrics"
	"github.com/japaniel/wksync/pkg/subject"
	"github.com/rs/zerolog"
)

// Reconciler brings the stored rows of one subject in line with its record.
// Concurrent calls are safe as long as they are for different subject ids.
type Reconciler struct {
	Store Store
	// Logger defaults to the process logger.
	Logger *zerolog.Logger
}

// NewReconciler returns a Reconciler writing to store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{Store: store}
}

func (r *Reconciler) logger() *zerolog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	l := logging.Component("reconciler")
	return &l
}

// Reconcile rewrites the index, canonical and child rows of rec. If the
// subject changed type since the last run, the canonical row under the old
// type is removed first. The returned error, if any, is a *SyncError.
func (r *Reconciler) Reconcile(ctx context.Context, rec subject.Record) error {
	id := rec.SubjectID()
	typ := rec.Type()

	existing, err := r.Store.FindIndex(ctx, id)
	if err != nil {
		return r.fail(id, StageFindIndex, err)
	}

	var stale *SyncError
	if existing != nil {
		if existing.SubjectType != typ {
			if err := r.Store.DeleteCanonical(ctx, existing.SubjectType, id); err != nil {
				stale = &SyncError{
					SubjectID: id,
					Stage:     StageDeleteStale,
					Err:       fmt.Errorf("%w: %s row: %w", ErrStaleDelete, existing.SubjectType, err),
				}
				metrics.SyncStageErrors.WithLabelValues(string(StageDeleteStale)).Inc()
				r.logger().Warn().
					Int("subject_id", id).
					Str("stage", string(StageDeleteStale)).
					Str("old_type", string(existing.SubjectType)).
					Str("new_type", string(typ)).
					Err(err).
					Msg("stale canonical row not deleted; rewriting anyway")
			}
		}
		if err := r.Store.DeleteIndex(ctx, id); err != nil {
			return r.fail(id, StageDeleteIndex, err)
		}
	}

	h := rec.Header()
	index := db.IndexRow{
		SubjectID:    id,
		SubjectType:  typ,
		Level:        h.Level,
		ReadingTexts: subject.SearchReadings(rec),
		MeaningTexts: subject.SearchMeanings(rec),
	}
	if err := r.Store.UpsertIndex(ctx, index); err != nil {
		return r.fail(id, StageWriteIndex, err)
	}

	if err := r.writeCanonical(ctx, rec); err != nil {
		return r.fail(id, StageWriteCanonical, err)
	}

	if err := writeChildren(ctx, r.Store, rec); err != nil {
		return r.fail(id, StageWriteChildren, err)
	}

	if stale != nil {
		return stale
	}
	return nil
}

func (r *Reconciler) fail(id int, stage Stage, err error) *SyncError {
	metrics.SyncStageErrors.WithLabelValues(string(stage)).Inc()
	return &SyncError{SubjectID: id, Stage: stage, Err: err}
}

func (r *Reconciler) writeCanonical(ctx context.Context, rec subject.Record) error {
	switch s := rec.(type) {
	case *subject.Radical:
		row := db.RadicalRow{
			ID:                     s.ID,
			Characters:             s.Characters,
			Level:                  s.Level,
			LessonPosition:         s.LessonPosition,
			MeaningMnemonic:        s.MeaningMnemonic,
			AmalgamationSubjectIDs: s.AmalgamationSubjectIDs,
		}
		if url, ok := subject.SelectImage(s.CharacterImages); ok {
			row.ImageURL = &url
		}
		return r.Store.PutRadical(ctx, row)
	case *subject.Kanji:
		return r.Store.PutKanji(ctx, db.KanjiRow{
			ID:                        s.ID,
			Characters:                s.Characters,
			Level:                     s.Level,
			LessonPosition:            s.LessonPosition,
			MeaningMnemonic:           s.MeaningMnemonic,
			MeaningHint:               s.MeaningHint,
			ReadingHint:               s.ReadingHint,
			ReadingMnemonic:           s.ReadingMnemonic,
			AmalgamationSubjectIDs:    s.AmalgamationSubjectIDs,
			ComponentSubjectIDs:       s.ComponentSubjectIDs,
			VisuallySimilarSubjectIDs: s.VisuallySimilarSubjectIDs,
		})
	case *subject.Vocabulary:
		return r.Store.PutVocabulary(ctx, db.VocabularyRow{
			ID:                  s.ID,
			Characters:          s.Characters,
			Level:               s.Level,
			LessonPosition:      s.LessonPosition,
			MeaningMnemonic:     s.MeaningMnemonic,
			ReadingMnemonic:     s.ReadingMnemonic,
			ComponentSubjectIDs: s.ComponentSubjectIDs,
			PartsOfSpeech:       s.PartsOfSpeech,
		})
	}
	return fmt.Errorf("unsupported record %T", rec)
}
