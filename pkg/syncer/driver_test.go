package syncer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/japaniel/wksync/pkg/subject"
	"github.com/rs/zerolog"
)

type fakeSnapshot struct {
	subjects  map[int]subject.Record
	err       error
	refreshed bool
}

func (f *fakeSnapshot) LoadOrFetch(context.Context) (map[int]subject.Record, error) {
	return f.subjects, f.err
}

func (f *fakeSnapshot) Refresh(context.Context) (map[int]subject.Record, error) {
	f.refreshed = true
	return f.subjects, f.err
}

func newTestDriver(snap Snapshot, fs *fakeStore) *Driver {
	nop := zerolog.Nop()
	return &Driver{
		Snapshot:  snap,
		Scheduler: &Scheduler{Reconciler: quietReconciler(fs), MaxInFlight: 4},
		Logger:    &nop,
	}
}

func TestDriverRunReportsFailuresWithoutError(t *testing.T) {
	fs := newFakeStore()
	fs.failCanonical[2] = errStoreDown
	snap := &fakeSnapshot{subjects: map[int]subject.Record{
		1: radicalRecord(1),
		2: kanjiRecord(2),
		3: vocabularyRecord(3),
	}}

	report, err := newTestDriver(snap, fs).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if snap.refreshed {
		t.Fatalf("refresh should not be forced")
	}
	if report.Total != 3 || report.Succeeded != 2 || !reflect.DeepEqual(report.FailedIDs(), []int{2}) {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDriverRetriesOnlySelectedIDs(t *testing.T) {
	fs := newFakeStore()
	snap := &fakeSnapshot{subjects: map[int]subject.Record{
		1: radicalRecord(1),
		2: kanjiRecord(2),
		3: vocabularyRecord(3),
	}}

	report, err := newTestDriver(snap, fs).Run(context.Background(), Options{Refresh: true, Only: []int{2, 99}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !snap.refreshed {
		t.Fatalf("refresh was requested")
	}
	if report.Total != 1 || report.Succeeded != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, ok := fs.canonical[1]; ok {
		t.Fatalf("subject 1 should not have been synced")
	}
}

func TestDriverLoadFailure(t *testing.T) {
	snap := &fakeSnapshot{err: errors.New("no network")}
	_, err := newTestDriver(snap, newFakeStore()).Run(context.Background(), Options{})
	if err == nil {
		t.Fatalf("expected load error")
	}
}
