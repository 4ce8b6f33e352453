package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/japaniel/wksync/pkg/subject"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Child tables in the order their rows are cleared.
var childTables = []string{
	"subject_meanings",
	"auxiliary_meanings",
	"kanji_readings",
	"vocabulary_readings",
	"context_sentences",
}

// Store executes the typed per-table operations used by the sync engine.
// It is safe for concurrent use; serialization of conflicting writes is
// left to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}

func canonicalTable(t subject.Type) (string, error) {
	switch t {
	case subject.TypeRadical:
		return "radical_subjects", nil
	case subject.TypeKanji:
		return "kanji_subjects", nil
	case subject.TypeVocabulary:
		return "vocabulary_subjects", nil
	}
	return "", fmt.Errorf("unknown subject type %q", t)
}

func parentColumn(t subject.Type) (string, error) {
	switch t {
	case subject.TypeRadical:
		return "radical_subject_id", nil
	case subject.TypeKanji:
		return "kanji_subject_id", nil
	case subject.TypeVocabulary:
		return "vocabulary_subject_id", nil
	}
	return "", fmt.Errorf("unknown subject type %q", t)
}

// withTx runs fn inside a transaction, rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindIndex returns the index row for id, or nil if there is none.
func (s *Store) FindIndex(ctx context.Context, id int) (*IndexRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT subject_id, subject_type, level, all_reading_texts, all_meaning_texts
		 FROM subject_index WHERE subject_id = ?`, id)
	idx, err := scanIndex(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find index %d: %w", id, err)
	}
	return idx, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIndex(row rowScanner) (*IndexRow, error) {
	var (
		idx                IndexRow
		typ                string
		readings, meanings string
	)
	if err := row.Scan(&idx.SubjectID, &typ, &idx.Level, &readings, &meanings); err != nil {
		return nil, err
	}
	t, err := subject.ParseType(typ)
	if err != nil {
		return nil, err
	}
	idx.SubjectType = t
	if idx.ReadingTexts, err = decodeList[string](readings); err != nil {
		return nil, err
	}
	if idx.MeaningTexts, err = decodeList[string](meanings); err != nil {
		return nil, err
	}
	return &idx, nil
}

// DeleteIndex removes the index row for id. Deleting a missing row is not an error.
func (s *Store) DeleteIndex(ctx context.Context, id int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subject_index WHERE subject_id = ?`, id); err != nil {
		return fmt.Errorf("delete index %d: %w", id, err)
	}
	return nil
}

// UpsertIndex creates or replaces the index row.
func (s *Store) UpsertIndex(ctx context.Context, row IndexRow) error {
	if _, err := subject.ParseType(string(row.SubjectType)); err != nil {
		return err
	}
	readings, err := encodeList(row.ReadingTexts)
	if err != nil {
		return err
	}
	meanings, err := encodeList(row.MeaningTexts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subject_index (subject_id, subject_type, level, all_reading_texts, all_meaning_texts)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(subject_id) DO UPDATE SET
		   subject_type = excluded.subject_type,
		   level = excluded.level,
		   all_reading_texts = excluded.all_reading_texts,
		   all_meaning_texts = excluded.all_meaning_texts`,
		row.SubjectID, string(row.SubjectType), row.Level, readings, meanings)
	if err != nil {
		return fmt.Errorf("upsert index %d: %w", row.SubjectID, err)
	}
	return nil
}

// DeleteCanonical removes the canonical row of type t with the given id along
// with every child row pointing at it. The child rows are removed explicitly
// so nothing is orphaned when the schema lacks cascading deletes. Deleting a
// row that does not exist is not an error.
func (s *Store) DeleteCanonical(ctx context.Context, t subject.Type, id int) error {
	table, err := canonicalTable(t)
	if err != nil {
		return err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteChildren(ctx, tx, t, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", t, id, err)
	}
	return nil
}

func deleteChildren(ctx context.Context, ex DBExecutor, t subject.Type, id int) error {
	col, err := parentColumn(t)
	if err != nil {
		return err
	}
	for _, table := range childTables {
		if _, err := ex.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+col+` = ?`, id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// replaceCanonical drops the previous generation of the row (and its
// children) and inserts the new one in a single transaction.
func (s *Store) replaceCanonical(ctx context.Context, t subject.Type, id int, insert string, args ...interface{}) error {
	table, err := canonicalTable(t)
	if err != nil {
		return err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteChildren(ctx, tx, t, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insert, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s %d: %w", t, id, err)
	}
	return nil
}

// PutRadical writes the canonical radical row, replacing any previous one.
func (s *Store) PutRadical(ctx context.Context, row RadicalRow) error {
	amalgamations, err := encodeList(row.AmalgamationSubjectIDs)
	if err != nil {
		return err
	}
	return s.replaceCanonical(ctx, subject.TypeRadical, row.ID,
		`INSERT INTO radical_subjects (id, characters, level, lesson_position, meaning_mnemonic, image_url, amalgamation_subject_ids)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, nullableString(row.Characters), row.Level, row.LessonPosition, row.MeaningMnemonic,
		nullableString(row.ImageURL), amalgamations)
}

// PutKanji writes the canonical kanji row, replacing any previous one.
func (s *Store) PutKanji(ctx context.Context, row KanjiRow) error {
	amalgamations, err := encodeList(row.AmalgamationSubjectIDs)
	if err != nil {
		return err
	}
	components, err := encodeList(row.ComponentSubjectIDs)
	if err != nil {
		return err
	}
	similar, err := encodeList(row.VisuallySimilarSubjectIDs)
	if err != nil {
		return err
	}
	return s.replaceCanonical(ctx, subject.TypeKanji, row.ID,
		`INSERT INTO kanji_subjects (id, characters, level, lesson_position, meaning_mnemonic, meaning_hint,
		   reading_hint, reading_mnemonic, amalgamation_subject_ids, component_subject_ids, visually_similar_subject_ids)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Characters, row.Level, row.LessonPosition, row.MeaningMnemonic, nullableString(row.MeaningHint),
		row.ReadingHint, row.ReadingMnemonic, amalgamations, components, similar)
}

// PutVocabulary writes the canonical vocabulary row, replacing any previous one.
func (s *Store) PutVocabulary(ctx context.Context, row VocabularyRow) error {
	components, err := encodeList(row.ComponentSubjectIDs)
	if err != nil {
		return err
	}
	pos, err := encodeList(row.PartsOfSpeech)
	if err != nil {
		return err
	}
	return s.replaceCanonical(ctx, subject.TypeVocabulary, row.ID,
		`INSERT INTO vocabulary_subjects (id, characters, level, lesson_position, meaning_mnemonic, reading_mnemonic,
		   component_subject_ids, parts_of_speech)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Characters, row.Level, row.LessonPosition, row.MeaningMnemonic, row.ReadingMnemonic,
		components, pos)
}

// createMany inserts n rows with a prepared statement inside one transaction.
func (s *Store) createMany(ctx context.Context, table, insert string, n int, args func(i int) []interface{}) error {
	if n == 0 {
		return nil
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create %d %s: %w", n, table, err)
	}
	return nil
}

// CreateMeanings inserts subject_meanings rows in one batch.
func (s *Store) CreateMeanings(ctx context.Context, rows []MeaningRow) error {
	return s.createMany(ctx, "subject_meanings",
		`INSERT INTO subject_meanings (meaning, is_primary, accepted_answer, radical_subject_id, kanji_subject_id, vocabulary_subject_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []interface{} {
			r := rows[i]
			return append([]interface{}{r.Text, r.Primary, r.AcceptedAnswer}, r.args()...)
		})
}

// CreateAuxiliaryMeanings inserts auxiliary_meanings rows in one batch.
func (s *Store) CreateAuxiliaryMeanings(ctx context.Context, rows []AuxiliaryMeaningRow) error {
	return s.createMany(ctx, "auxiliary_meanings",
		`INSERT INTO auxiliary_meanings (meaning, meaning_type, radical_subject_id, kanji_subject_id, vocabulary_subject_id)
		 VALUES (?, ?, ?, ?, ?)`,
		len(rows), func(i int) []interface{} {
			r := rows[i]
			return append([]interface{}{r.Text, r.Kind}, r.args()...)
		})
}

// CreateKanjiReadings inserts kanji_readings rows in one batch.
func (s *Store) CreateKanjiReadings(ctx context.Context, rows []KanjiReadingRow) error {
	return s.createMany(ctx, "kanji_readings",
		`INSERT INTO kanji_readings (reading, reading_type, is_primary, accepted_answer, radical_subject_id, kanji_subject_id, vocabulary_subject_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []interface{} {
			r := rows[i]
			return append([]interface{}{r.Text, string(r.Kind), r.Primary, r.AcceptedAnswer}, r.args()...)
		})
}

// CreateVocabularyReadings inserts vocabulary_readings rows in one batch.
func (s *Store) CreateVocabularyReadings(ctx context.Context, rows []VocabularyReadingRow) error {
	return s.createMany(ctx, "vocabulary_readings",
		`INSERT INTO vocabulary_readings (reading, is_primary, accepted_answer, radical_subject_id, kanji_subject_id, vocabulary_subject_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []interface{} {
			r := rows[i]
			return append([]interface{}{r.Text, r.Primary, r.AcceptedAnswer}, r.args()...)
		})
}

// CreateContextSentences inserts context_sentences rows in one batch.
func (s *Store) CreateContextSentences(ctx context.Context, rows []ContextSentenceRow) error {
	return s.createMany(ctx, "context_sentences",
		`INSERT INTO context_sentences (en, ja, radical_subject_id, kanji_subject_id, vocabulary_subject_id)
		 VALUES (?, ?, ?, ?, ?)`,
		len(rows), func(i int) []interface{} {
			r := rows[i]
			return append([]interface{}{r.English, r.Japanese}, r.args()...)
		})
}

func encodeList[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList[T any](s string) ([]T, error) {
	out := []T{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

// nullableInt returns nil for a missing id else the value.
func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
