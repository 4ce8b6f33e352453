package syncer

import (
	"errors"
	"fmt"
)

// Stage names the step of a reconciliation that failed.
type Stage string

const (
	StageFindIndex      Stage = "find_index"
	StageDeleteStale    Stage = "delete_stale"
	StageDeleteIndex    Stage = "delete_index"
	StageWriteIndex     Stage = "write_index"
	StageWriteCanonical Stage = "write_canonical"
	StageWriteChildren  Stage = "write_children"
	// StageReconcile is used for failures that did not come from a store call.
	StageReconcile Stage = "reconcile"
)

// ErrStaleDelete marks a failed removal of the canonical row left behind by
// a reclassified subject. It never stops the rewrite of that subject.
var ErrStaleDelete = errors.New("stale canonical row not deleted")

// SyncError reports the failure of one subject's reconciliation.
type SyncError struct {
	SubjectID int
	Stage     Stage
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("subject %d: %s: %v", e.SubjectID, e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Fatal reports whether the subject was left without a complete rewrite.
func (e *SyncError) Fatal() bool { return e.Stage != StageDeleteStale }

func asSyncError(id int, err error) *SyncError {
	var se *SyncError
	if errors.As(err, &se) {
		return se
	}
	return &SyncError{SubjectID: id, Stage: StageReconcile, Err: err}
}
