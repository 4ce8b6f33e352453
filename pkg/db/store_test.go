package db

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"github.com/japaniel/wksync/pkg/subject"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	// Open limits the pool to a single connection, which keeps every query
	// on the same in-memory database.
	conn, err := Open(":memory:", 1)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func countWhere(t *testing.T, conn *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupTestDB(t))

	got, err := s.FindIndex(ctx, 440)
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing index, got %+v", got)
	}

	row := IndexRow{SubjectID: 440, SubjectType: subject.TypeKanji, Level: 1,
		ReadingTexts: []string{"いち", "ひと"}, MeaningTexts: []string{"One"}}
	if err := s.UpsertIndex(ctx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	row.Level = 2
	row.MeaningTexts = []string{"One", "Uno"}
	if err := s.UpsertIndex(ctx, row); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	got, err = s.FindIndex(ctx, 440)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !reflect.DeepEqual(*got, row) {
		t.Fatalf("got %+v, want %+v", *got, row)
	}
	if n, _ := s.CountRows(ctx, "subject_index"); n != 1 {
		t.Fatalf("expected 1 index row, got %d", n)
	}

	if err := s.DeleteIndex(ctx, 440); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteIndex(ctx, 440); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestUpsertIndexRejectsUnknownType(t *testing.T) {
	s := NewStore(setupTestDB(t))
	if err := s.UpsertIndex(context.Background(), IndexRow{SubjectID: 1, SubjectType: "kana"}); err == nil {
		t.Fatal("expected error for unknown subject type")
	}
}

func TestPutKanjiReplacesChildren(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	s := NewStore(conn)

	hint := "think of a single line"
	k := KanjiRow{ID: 440, Characters: "一", Level: 1, MeaningHint: &hint,
		ComponentSubjectIDs: []int{1}, VisuallySimilarSubjectIDs: []int{}}
	for i := 0; i < 2; i++ {
		if err := s.PutKanji(ctx, k); err != nil {
			t.Fatalf("put kanji: %v", err)
		}
		if err := s.CreateKanjiReadings(ctx, []KanjiReadingRow{
			{ParentRef: Parent(subject.TypeKanji, 440), Text: "いち", Kind: subject.ReadingOnyomi, Primary: true},
			{ParentRef: Parent(subject.TypeKanji, 440), Text: "ひと", Kind: subject.ReadingKunyomi},
		}); err != nil {
			t.Fatalf("create readings: %v", err)
		}
	}

	if n := countWhere(t, conn, `SELECT COUNT(*) FROM kanji_readings WHERE kanji_subject_id = ?`, 440); n != 2 {
		t.Fatalf("expected 2 readings after rewrite, got %d", n)
	}

	got, err := s.GetKanji(ctx, 440)
	if err != nil {
		t.Fatalf("get kanji: %v", err)
	}
	if got == nil || got.Characters != "一" || got.MeaningHint == nil || *got.MeaningHint != hint {
		t.Fatalf("unexpected kanji row %+v", got)
	}
	if !reflect.DeepEqual(got.ComponentSubjectIDs, []int{1}) || len(got.AmalgamationSubjectIDs) != 0 {
		t.Fatalf("unexpected id lists %+v", got)
	}
}

func TestDeleteCanonicalRemovesChildrenAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	s := NewStore(conn)

	if err := s.PutRadical(ctx, RadicalRow{ID: 7, Level: 1, MeaningMnemonic: "m"}); err != nil {
		t.Fatalf("put radical: %v", err)
	}
	if err := s.CreateMeanings(ctx, []MeaningRow{{ParentRef: Parent(subject.TypeRadical, 7), Text: "Ground", Primary: true}}); err != nil {
		t.Fatalf("create meanings: %v", err)
	}
	if err := s.CreateAuxiliaryMeanings(ctx, []AuxiliaryMeaningRow{{ParentRef: Parent(subject.TypeRadical, 7), Text: "floor", Kind: "whitelist"}}); err != nil {
		t.Fatalf("create aux: %v", err)
	}

	// Turn cascading off to prove the store clears children itself.
	if _, err := conn.Exec(`PRAGMA foreign_keys=OFF`); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if err := s.DeleteCanonical(ctx, subject.TypeRadical, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCanonical(ctx, subject.TypeRadical, 7); err != nil {
		t.Fatalf("delete absent row should succeed: %v", err)
	}

	if r, err := s.GetRadical(ctx, 7); err != nil || r != nil {
		t.Fatalf("expected radical gone, got %+v, %v", r, err)
	}
	if n := countWhere(t, conn, `SELECT COUNT(*) FROM subject_meanings`); n != 0 {
		t.Fatalf("expected no orphan meanings, got %d", n)
	}
	if n := countWhere(t, conn, `SELECT COUNT(*) FROM auxiliary_meanings`); n != 0 {
		t.Fatalf("expected no orphan auxiliary meanings, got %d", n)
	}
}

func TestChildRowRequiresExactlyOneParent(t *testing.T) {
	s := NewStore(setupTestDB(t))
	err := s.CreateMeanings(context.Background(), []MeaningRow{{Text: "orphan"}})
	if err == nil {
		t.Fatal("expected constraint error for child without parent")
	}
}

func TestChildRowRequiresExistingParent(t *testing.T) {
	s := NewStore(setupTestDB(t))
	err := s.CreateContextSentences(context.Background(), []ContextSentenceRow{
		{ParentRef: Parent(subject.TypeVocabulary, 99), English: "One.", Japanese: "一。"},
	})
	if err == nil {
		t.Fatal("expected foreign key error for missing vocabulary row")
	}
}

func TestCreateManyEmptyIsNoop(t *testing.T) {
	s := NewStore(setupTestDB(t))
	if err := s.CreateVocabularyReadings(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestSubjectsByReadingAndCharacters(t *testing.T) {
	ctx := context.Background()
	s := NewStore(setupTestDB(t))

	if err := s.PutKanji(ctx, KanjiRow{ID: 440, Characters: "一", Level: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutVocabulary(ctx, VocabularyRow{ID: 2467, Characters: "一", Level: 1, PartsOfSpeech: []string{"numeral"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertIndex(ctx, IndexRow{SubjectID: 440, SubjectType: subject.TypeKanji, Level: 1, ReadingTexts: []string{"いち", "ひと"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertIndex(ctx, IndexRow{SubjectID: 2467, SubjectType: subject.TypeVocabulary, Level: 1, ReadingTexts: []string{"いち"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateMeanings(ctx, []MeaningRow{
		{ParentRef: Parent(subject.TypeKanji, 440), Text: "Uno"},
		{ParentRef: Parent(subject.TypeKanji, 440), Text: "One", Primary: true},
	}); err != nil {
		t.Fatal(err)
	}

	byReading, err := s.SubjectsByReading(ctx, "いち")
	if err != nil {
		t.Fatalf("by reading: %v", err)
	}
	if len(byReading) != 2 || byReading[0].SubjectID != 440 || byReading[1].SubjectID != 2467 {
		t.Fatalf("unexpected by-reading result %+v", byReading)
	}
	if only, _ := s.SubjectsByReading(ctx, "ひと"); len(only) != 1 || only[0].SubjectID != 440 {
		t.Fatalf("unexpected result for ひと: %+v", only)
	}

	byChars, err := s.SubjectsByCharacters(ctx, "一")
	if err != nil {
		t.Fatalf("by characters: %v", err)
	}
	if len(byChars) != 2 {
		t.Fatalf("expected kanji and vocabulary, got %+v", byChars)
	}

	id, err := s.KanjiIDByCharacter(ctx, "一")
	if err != nil || id != 440 {
		t.Fatalf("kanji id = %d, %v", id, err)
	}
	if id, _ := s.KanjiIDByCharacter(ctx, "二"); id != 0 {
		t.Fatalf("expected 0 for unknown kanji, got %d", id)
	}

	meaning, err := s.PrimaryMeaning(ctx, subject.TypeKanji, 440)
	if err != nil || meaning != "One" {
		t.Fatalf("primary meaning = %q, %v", meaning, err)
	}

	v, err := s.GetVocabulary(ctx, 2467)
	if err != nil || v == nil || !reflect.DeepEqual(v.PartsOfSpeech, []string{"numeral"}) {
		t.Fatalf("unexpected vocabulary %+v, %v", v, err)
	}
}
