package db

import "github.com/japaniel/wksync/pkg/subject"

// IndexRow is the denormalized per-subject lookup row.
type IndexRow struct {
	SubjectID    int
	SubjectType  subject.Type
	Level        int
	ReadingTexts []string
	MeaningTexts []string
}

// RadicalRow is the canonical row of a radical subject.
type RadicalRow struct {
	ID                     int
	Characters             *string
	Level                  int
	LessonPosition         int
	MeaningMnemonic        string
	ImageURL               *string
	AmalgamationSubjectIDs []int
}

// KanjiRow is the canonical row of a kanji subject.
type KanjiRow struct {
	ID                        int
	Characters                string
	Level                     int
	LessonPosition            int
	MeaningMnemonic           string
	MeaningHint               *string
	ReadingHint               string
	ReadingMnemonic           string
	AmalgamationSubjectIDs    []int
	ComponentSubjectIDs       []int
	VisuallySimilarSubjectIDs []int
}

// VocabularyRow is the canonical row of a vocabulary subject.
type VocabularyRow struct {
	ID                  int
	Characters          string
	Level               int
	LessonPosition      int
	MeaningMnemonic     string
	ReadingMnemonic     string
	ComponentSubjectIDs []int
	PartsOfSpeech       []string
}

// ParentRef is the polymorphic owner of a child row. Exactly one of the
// three ids is set.
type ParentRef struct {
	RadicalSubjectID    *int
	KanjiSubjectID      *int
	VocabularySubjectID *int
}

// Parent builds the reference for a canonical row of type t.
func Parent(t subject.Type, id int) ParentRef {
	var p ParentRef
	switch t {
	case subject.TypeRadical:
		p.RadicalSubjectID = &id
	case subject.TypeKanji:
		p.KanjiSubjectID = &id
	case subject.TypeVocabulary:
		p.VocabularySubjectID = &id
	}
	return p
}

func (p ParentRef) args() []interface{} {
	return []interface{}{nullableInt(p.RadicalSubjectID), nullableInt(p.KanjiSubjectID), nullableInt(p.VocabularySubjectID)}
}

// MeaningRow belongs to subject_meanings.
type MeaningRow struct {
	ParentRef
	Text           string
	Primary        bool
	AcceptedAnswer bool
}

// AuxiliaryMeaningRow belongs to auxiliary_meanings.
type AuxiliaryMeaningRow struct {
	ParentRef
	Text string
	Kind string
}

// KanjiReadingRow belongs to kanji_readings.
type KanjiReadingRow struct {
	ParentRef
	Text           string
	Kind           subject.ReadingKind
	Primary        bool
	AcceptedAnswer bool
}

// VocabularyReadingRow belongs to vocabulary_readings.
type VocabularyReadingRow struct {
	ParentRef
	Text           string
	Primary        bool
	AcceptedAnswer bool
}

// ContextSentenceRow belongs to context_sentences.
type ContextSentenceRow struct {
	ParentRef
	English  string
	Japanese string
}
