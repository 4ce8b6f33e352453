package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/japaniel/wksync/pkg/subject"
)

const indexColumns = `subject_index.subject_id, subject_index.subject_type, subject_index.level,
	subject_index.all_reading_texts, subject_index.all_meaning_texts`

func queryIndex(ctx context.Context, ex DBExecutor, query string, args ...interface{}) ([]IndexRow, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IndexRow
	for rows.Next() {
		idx, err := scanIndex(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SubjectsByReading returns the index rows whose readings contain reading,
// ordered by level then id.
func (s *Store) SubjectsByReading(ctx context.Context, reading string) ([]IndexRow, error) {
	out, err := queryIndex(ctx, s.db,
		`SELECT `+indexColumns+` FROM subject_index
		 WHERE EXISTS (SELECT 1 FROM json_each(subject_index.all_reading_texts) WHERE json_each.value = ?)
		 ORDER BY subject_index.level, subject_index.subject_id`, reading)
	if err != nil {
		return nil, fmt.Errorf("subjects by reading %q: %w", reading, err)
	}
	return out, nil
}

// SubjectsByCharacters returns the index rows of every subject whose
// characters equal chars, ordered by level then id.
func (s *Store) SubjectsByCharacters(ctx context.Context, chars string) ([]IndexRow, error) {
	out, err := queryIndex(ctx, s.db,
		`SELECT `+indexColumns+` FROM subject_index
		 WHERE subject_index.subject_id IN (
		   SELECT id FROM radical_subjects WHERE characters = ?
		   UNION SELECT id FROM kanji_subjects WHERE characters = ?
		   UNION SELECT id FROM vocabulary_subjects WHERE characters = ?)
		 ORDER BY subject_index.level, subject_index.subject_id`, chars, chars, chars)
	if err != nil {
		return nil, fmt.Errorf("subjects by characters %q: %w", chars, err)
	}
	return out, nil
}

// KanjiIDByCharacter returns the id of the kanji subject for a single glyph,
// or 0 when the catalog has none.
func (s *Store) KanjiIDByCharacter(ctx context.Context, glyph string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT id FROM kanji_subjects WHERE characters = ? ORDER BY id LIMIT 1`, glyph).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("kanji by character %q: %w", glyph, err)
	}
	return id, nil
}

// PrimaryMeaning returns the primary meaning of a canonical row, or "" if
// it has none.
func (s *Store) PrimaryMeaning(ctx context.Context, t subject.Type, id int) (string, error) {
	col, err := parentColumn(t)
	if err != nil {
		return "", err
	}
	var meaning string
	err = s.db.QueryRowContext(ctx,
		`SELECT meaning FROM subject_meanings WHERE `+col+` = ? ORDER BY is_primary DESC, id LIMIT 1`, id).Scan(&meaning)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("primary meaning %s %d: %w", t, id, err)
	}
	return meaning, nil
}

// GetRadical returns the canonical radical row, or nil if absent.
func (s *Store) GetRadical(ctx context.Context, id int) (*RadicalRow, error) {
	var (
		r             RadicalRow
		chars, image  sql.NullString
		amalgamations string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, characters, level, lesson_position, meaning_mnemonic, image_url, amalgamation_subject_ids
		 FROM radical_subjects WHERE id = ?`, id).
		Scan(&r.ID, &chars, &r.Level, &r.LessonPosition, &r.MeaningMnemonic, &image, &amalgamations)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get radical %d: %w", id, err)
	}
	if chars.Valid {
		r.Characters = &chars.String
	}
	if image.Valid {
		r.ImageURL = &image.String
	}
	if r.AmalgamationSubjectIDs, err = decodeList[int](amalgamations); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetKanji returns the canonical kanji row, or nil if absent.
func (s *Store) GetKanji(ctx context.Context, id int) (*KanjiRow, error) {
	var (
		k                                   KanjiRow
		hint                                sql.NullString
		amalgamations, components, similars string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, characters, level, lesson_position, meaning_mnemonic, meaning_hint, reading_hint, reading_mnemonic,
		   amalgamation_subject_ids, component_subject_ids, visually_similar_subject_ids
		 FROM kanji_subjects WHERE id = ?`, id).
		Scan(&k.ID, &k.Characters, &k.Level, &k.LessonPosition, &k.MeaningMnemonic, &hint, &k.ReadingHint,
			&k.ReadingMnemonic, &amalgamations, &components, &similars)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get kanji %d: %w", id, err)
	}
	if hint.Valid {
		k.MeaningHint = &hint.String
	}
	if k.AmalgamationSubjectIDs, err = decodeList[int](amalgamations); err != nil {
		return nil, err
	}
	if k.ComponentSubjectIDs, err = decodeList[int](components); err != nil {
		return nil, err
	}
	if k.VisuallySimilarSubjectIDs, err = decodeList[int](similars); err != nil {
		return nil, err
	}
	return &k, nil
}

// GetVocabulary returns the canonical vocabulary row, or nil if absent.
func (s *Store) GetVocabulary(ctx context.Context, id int) (*VocabularyRow, error) {
	var (
		v               VocabularyRow
		components, pos string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, characters, level, lesson_position, meaning_mnemonic, reading_mnemonic, component_subject_ids, parts_of_speech
		 FROM vocabulary_subjects WHERE id = ?`, id).
		Scan(&v.ID, &v.Characters, &v.Level, &v.LessonPosition, &v.MeaningMnemonic, &v.ReadingMnemonic, &components, &pos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vocabulary %d: %w", id, err)
	}
	if v.ComponentSubjectIDs, err = decodeList[int](components); err != nil {
		return nil, err
	}
	if v.PartsOfSpeech, err = decodeList[string](pos); err != nil {
		return nil, err
	}
	return &v, nil
}

var countableTables = map[string]bool{
	"subject_index":       true,
	"radical_subjects":    true,
	"kanji_subjects":      true,
	"vocabulary_subjects": true,
	"subject_meanings":    true,
	"auxiliary_meanings":  true,
	"kanji_readings":      true,
	"vocabulary_readings": true,
	"context_sentences":   true,
}

// CountRows returns the number of rows in one of the catalog tables.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	if !countableTables[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
