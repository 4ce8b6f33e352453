// Package snapshot caches the fetched catalog on disk so a sync can be
// repeated without hitting the API.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/japaniel/wksync/pkg/logging"
	"github.com/japaniel/wksync/pkg/subject"
)

// DefaultPath is where the snapshot lives unless configured otherwise.
const DefaultPath = "wanikani.json"

// Source produces a fresh catalog. *wanikani.Client satisfies it.
type Source interface {
	FetchAll(ctx context.Context) (map[int]subject.Record, error)
}

// Store reads and writes the snapshot file at Path, falling back to Source
// when there is none.
type Store struct {
	Path   string
	Source Source
}

// New returns a Store for path backed by src.
func New(path string, src Source) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path, Source: src}
}

type file struct {
	FetchedAt time.Time `json:"fetched_at"`
	Subjects  []entry   `json:"subjects"`
}

// entry tags a record with its type so it can be decoded back into the
// right concrete struct.
type entry struct {
	Type       subject.Type        `json:"type"`
	Radical    *subject.Radical    `json:"radical,omitempty"`
	Kanji      *subject.Kanji      `json:"kanji,omitempty"`
	Vocabulary *subject.Vocabulary `json:"vocabulary,omitempty"`
}

func (e entry) record() (subject.Record, error) {
	switch {
	case e.Type == subject.TypeRadical && e.Radical != nil:
		return e.Radical, nil
	case e.Type == subject.TypeKanji && e.Kanji != nil:
		return e.Kanji, nil
	case e.Type == subject.TypeVocabulary && e.Vocabulary != nil:
		return e.Vocabulary, nil
	}
	return nil, fmt.Errorf("snapshot entry of type %q has no payload", e.Type)
}

func newEntry(rec subject.Record) entry {
	e := entry{Type: rec.Type()}
	switch s := rec.(type) {
	case *subject.Radical:
		e.Radical = s
	case *subject.Kanji:
		e.Kanji = s
	case *subject.Vocabulary:
		e.Vocabulary = s
	}
	return e
}

// LoadOrFetch decodes the snapshot file, or refreshes it if it does not
// exist yet.
func (s *Store) LoadOrFetch(ctx context.Context) (map[int]subject.Record, error) {
	subjects, fetchedAt, err := s.Load()
	if errors.Is(err, os.ErrNotExist) {
		logging.Info().Str("path", s.Path).Msg("no snapshot found; fetching catalog")
		return s.Refresh(ctx)
	}
	if err != nil {
		return nil, err
	}
	logging.Debug().Str("path", s.Path).Time("fetched_at", fetchedAt).Int("subjects", len(subjects)).Msg("snapshot loaded")
	return subjects, nil
}

// Load decodes the snapshot file. The error wraps os.ErrNotExist when there
// is no file.
func (s *Store) Load() (map[int]subject.Record, time.Time, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (map[int]subject.Record, time.Time, error) {
	var doc file
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	out := make(map[int]subject.Record, len(doc.Subjects))
	for i, e := range doc.Subjects {
		rec, err := e.record()
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("snapshot entry %d: %w", i, err)
		}
		out[rec.SubjectID()] = rec
	}
	return out, doc.FetchedAt, nil
}

// Encode writes subjects to w in id order.
func Encode(w io.Writer, subjects map[int]subject.Record, fetchedAt time.Time) error {
	ids := make([]int, 0, len(subjects))
	for id := range subjects {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	doc := file{FetchedAt: fetchedAt.UTC(), Subjects: make([]entry, 0, len(ids))}
	for _, id := range ids {
		doc.Subjects = append(doc.Subjects, newEntry(subjects[id]))
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Refresh fetches the catalog from Source and replaces the snapshot file.
// The previous file survives if the fetch or the write fails.
func (s *Store) Refresh(ctx context.Context) (map[int]subject.Record, error) {
	if s.Source == nil {
		return nil, errors.New("snapshot: no source configured")
	}
	started := time.Now()
	subjects, err := s.Source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if err := s.Save(subjects, time.Now()); err != nil {
		return nil, err
	}
	logging.Info().
		Str("path", s.Path).
		Int("subjects", len(subjects)).
		Dur("took", time.Since(started)).
		Msg("snapshot refreshed")
	return subjects, nil
}

// Save writes subjects atomically: to a temporary file in the same
// directory, then renamed over Path.
func (s *Store) Save(subjects map[int]subject.Record, fetchedAt time.Time) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, subjects, fetchedAt); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
