package syncer

import (
	"sort"
	"time"
)

// RunReport summarizes one scheduler run.
type RunReport struct {
	Total     int
	Succeeded int
	// Failed holds one entry per failed subject, ordered by subject id.
	Failed []*SyncError
	// Skipped counts subjects never attempted because the run was cancelled.
	Skipped  int
	Duration time.Duration
}

// FailedIDs returns the ids of failed subjects, ready to be retried.
func (r RunReport) FailedIDs() []int {
	ids := make([]int, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.SubjectID)
	}
	return ids
}

// FailuresByStage counts failures per stage.
func (r RunReport) FailuresByStage() map[Stage]int {
	out := make(map[Stage]int)
	for _, f := range r.Failed {
		out[f.Stage]++
	}
	return out
}

func sortFailures(f []*SyncError) {
	sort.Slice(f, func(i, j int) bool { return f[i].SubjectID < f[j].SubjectID })
}
