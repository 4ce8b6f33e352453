// Package subject holds the catalog model: radicals, kanji and vocabulary
// entries as they are mirrored from the content source.
package subject

import "fmt"

// Type identifies which kind of subject a record is.
type Type string

const (
	TypeRadical    Type = "radical"
	TypeKanji      Type = "kanji"
	TypeVocabulary Type = "vocabulary"
)

// Types lists every subject type in a stable order.
var Types = []Type{TypeRadical, TypeKanji, TypeVocabulary}

// ParseType converts a stored type name back into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeRadical, TypeKanji, TypeVocabulary:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown subject type %q", s)
}

// Meaning is an answer accepted (or not) for a subject.
type Meaning struct {
	Text           string `json:"meaning"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
}

// AuxiliaryMeaning is an extra whitelisted or blacklisted meaning.
type AuxiliaryMeaning struct {
	Text string `json:"meaning"`
	Kind string `json:"type"`
}

// ReadingKind is the kind of a kanji reading.
type ReadingKind string

const (
	ReadingOnyomi  ReadingKind = "onyomi"
	ReadingKunyomi ReadingKind = "kunyomi"
	ReadingNanori  ReadingKind = "nanori"
)

// KanjiReading is one reading of a kanji.
type KanjiReading struct {
	Text           string      `json:"reading"`
	Primary        bool        `json:"primary"`
	AcceptedAnswer bool        `json:"accepted_answer"`
	Kind           ReadingKind `json:"type"`
}

// VocabularyReading is one reading of a vocabulary entry.
type VocabularyReading struct {
	Text           string `json:"reading"`
	Primary        bool   `json:"primary"`
	AcceptedAnswer bool   `json:"accepted_answer"`
}

// ContextSentence is an example sentence with its translation.
type ContextSentence struct {
	English  string `json:"en"`
	Japanese string `json:"ja"`
}

// Common holds the fields shared by every subject type.
type Common struct {
	ID                int                `json:"id"`
	Level             int                `json:"level"`
	LessonPosition    int                `json:"lesson_position"`
	Slug              string             `json:"slug,omitempty"`
	DocumentURL       string             `json:"document_url,omitempty"`
	MeaningMnemonic   string             `json:"meaning_mnemonic"`
	Meanings          []Meaning          `json:"meanings"`
	AuxiliaryMeanings []AuxiliaryMeaning `json:"auxiliary_meanings"`
}

// SubjectID returns the externally assigned subject id.
func (c *Common) SubjectID() int { return c.ID }

// Header returns the shared fields.
func (c *Common) Header() *Common { return c }

// Record is a radical, kanji or vocabulary subject. The set of
// implementations is closed: *Radical, *Kanji and *Vocabulary.
type Record interface {
	SubjectID() int
	Header() *Common
	Type() Type
	isRecord()
}

// Radical is a building block of kanji. Some radicals have no unicode
// characters and are only available as images.
type Radical struct {
	Common
	Characters             *string          `json:"characters,omitempty"`
	CharacterImages        []CharacterImage `json:"character_images"`
	AmalgamationSubjectIDs []int            `json:"amalgamation_subject_ids"`
}

func (*Radical) Type() Type { return TypeRadical }
func (*Radical) isRecord()  {}

// Kanji is a single kanji character.
type Kanji struct {
	Common
	Characters                string         `json:"characters"`
	MeaningHint               *string        `json:"meaning_hint,omitempty"`
	ReadingHint               string         `json:"reading_hint"`
	ReadingMnemonic           string         `json:"reading_mnemonic"`
	Readings                  []KanjiReading `json:"readings"`
	AmalgamationSubjectIDs    []int          `json:"amalgamation_subject_ids"`
	ComponentSubjectIDs       []int          `json:"component_subject_ids"`
	VisuallySimilarSubjectIDs []int          `json:"visually_similar_subject_ids"`
}

func (*Kanji) Type() Type { return TypeKanji }
func (*Kanji) isRecord()  {}

// Vocabulary is a word built from one or more kanji (or kana only).
type Vocabulary struct {
	Common
	Characters          string              `json:"characters"`
	ReadingMnemonic     string              `json:"reading_mnemonic"`
	Readings            []VocabularyReading `json:"readings"`
	ContextSentences    []ContextSentence   `json:"context_sentences"`
	ComponentSubjectIDs []int               `json:"component_subject_ids"`
	PartsOfSpeech       []string            `json:"parts_of_speech,omitempty"`
}

func (*Vocabulary) Type() Type { return TypeVocabulary }
func (*Vocabulary) isRecord()  {}
