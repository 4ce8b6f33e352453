package wanikani

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/japaniel/wksync/pkg/subject"
)

var errUnknownObject = errors.New("unknown object type")

// collection is one page of a collection endpoint.
type collection struct {
	Object        string     `json:"object"`
	URL           string     `json:"url"`
	Pages         pages      `json:"pages"`
	TotalCount    int        `json:"total_count"`
	DataUpdatedAt *time.Time `json:"data_updated_at"`
	Data          []resource `json:"data"`
}

type pages struct {
	PerPage     int     `json:"per_page"`
	NextURL     *string `json:"next_url"`
	PreviousURL *string `json:"previous_url"`
}

// resource is the envelope around a single subject.
type resource struct {
	ID            int             `json:"id"`
	Object        string          `json:"object"`
	URL           string          `json:"url"`
	DataUpdatedAt *time.Time      `json:"data_updated_at"`
	Data          json.RawMessage `json:"data"`
}

type commonData struct {
	Level             int                        `json:"level"`
	Slug              string                     `json:"slug"`
	HiddenAt          *time.Time                 `json:"hidden_at"`
	DocumentURL       string                     `json:"document_url"`
	LessonPosition    int                        `json:"lesson_position"`
	MeaningMnemonic   string                     `json:"meaning_mnemonic"`
	Meanings          []subject.Meaning          `json:"meanings"`
	AuxiliaryMeanings []subject.AuxiliaryMeaning `json:"auxiliary_meanings"`
}

type radicalData struct {
	commonData
	Characters             *string          `json:"characters"`
	CharacterImages        []characterImage `json:"character_images"`
	AmalgamationSubjectIDs []int            `json:"amalgamation_subject_ids"`
}

type characterImage struct {
	URL         string        `json:"url"`
	ContentType string        `json:"content_type"`
	Metadata    imageMetadata `json:"metadata"`
}

// imageMetadata is the union of the svg and png metadata shapes.
type imageMetadata struct {
	InlineStyles bool   `json:"inline_styles"`
	Color        string `json:"color"`
	Dimensions   string `json:"dimensions"`
	StyleName    string `json:"style_name"`
}

type kanjiData struct {
	commonData
	Characters                string                 `json:"characters"`
	MeaningHint               *string                `json:"meaning_hint"`
	ReadingHint               string                 `json:"reading_hint"`
	ReadingMnemonic           string                 `json:"reading_mnemonic"`
	Readings                  []subject.KanjiReading `json:"readings"`
	AmalgamationSubjectIDs    []int                  `json:"amalgamation_subject_ids"`
	ComponentSubjectIDs       []int                  `json:"component_subject_ids"`
	VisuallySimilarSubjectIDs []int                  `json:"visually_similar_subject_ids"`
}

type vocabularyData struct {
	commonData
	Characters          string                      `json:"characters"`
	ReadingMnemonic     string                      `json:"reading_mnemonic"`
	Readings            []subject.VocabularyReading `json:"readings"`
	ContextSentences    []subject.ContextSentence   `json:"context_sentences"`
	ComponentSubjectIDs []int                       `json:"component_subject_ids"`
	PartsOfSpeech       []string                    `json:"parts_of_speech"`
}

func (d commonData) header(id int) subject.Common {
	return subject.Common{
		ID:                id,
		Level:             d.Level,
		LessonPosition:    d.LessonPosition,
		Slug:              d.Slug,
		DocumentURL:       d.DocumentURL,
		MeaningMnemonic:   d.MeaningMnemonic,
		Meanings:          d.Meanings,
		AuxiliaryMeanings: d.AuxiliaryMeanings,
	}
}

// toRecord decodes the payload of a resource according to its object type.
func (r resource) toRecord() (subject.Record, error) {
	switch r.Object {
	case "radical":
		var d radicalData
		if err := json.Unmarshal(r.Data, &d); err != nil {
			return nil, fmt.Errorf("decode radical %d: %w", r.ID, err)
		}
		images := make([]subject.CharacterImage, 0, len(d.CharacterImages))
		for _, img := range d.CharacterImages {
			ci, ok := img.toImage()
			if !ok {
				continue
			}
			images = append(images, ci)
		}
		return &subject.Radical{
			Common:                 d.header(r.ID),
			Characters:             d.Characters,
			CharacterImages:        images,
			AmalgamationSubjectIDs: d.AmalgamationSubjectIDs,
		}, nil

	case "kanji":
		var d kanjiData
		if err := json.Unmarshal(r.Data, &d); err != nil {
			return nil, fmt.Errorf("decode kanji %d: %w", r.ID, err)
		}
		return &subject.Kanji{
			Common:                    d.header(r.ID),
			Characters:                d.Characters,
			MeaningHint:               d.MeaningHint,
			ReadingHint:               d.ReadingHint,
			ReadingMnemonic:           d.ReadingMnemonic,
			Readings:                  d.Readings,
			AmalgamationSubjectIDs:    d.AmalgamationSubjectIDs,
			ComponentSubjectIDs:       d.ComponentSubjectIDs,
			VisuallySimilarSubjectIDs: d.VisuallySimilarSubjectIDs,
		}, nil

	case "vocabulary", "kana_vocabulary":
		var d vocabularyData
		if err := json.Unmarshal(r.Data, &d); err != nil {
			return nil, fmt.Errorf("decode %s %d: %w", r.Object, r.ID, err)
		}
		readings := d.Readings
		// Kana-only vocabulary carries no readings; it reads as written.
		if r.Object == "kana_vocabulary" && len(readings) == 0 && d.Characters != "" {
			readings = []subject.VocabularyReading{{Text: d.Characters, Primary: true, AcceptedAnswer: true}}
		}
		return &subject.Vocabulary{
			Common:              d.header(r.ID),
			Characters:          d.Characters,
			ReadingMnemonic:     d.ReadingMnemonic,
			Readings:            readings,
			ContextSentences:    d.ContextSentences,
			ComponentSubjectIDs: d.ComponentSubjectIDs,
			PartsOfSpeech:       d.PartsOfSpeech,
		}, nil
	}
	return nil, fmt.Errorf("subject %d: %w %q", r.ID, errUnknownObject, r.Object)
}

func (img characterImage) toImage() (subject.CharacterImage, bool) {
	ci := subject.CharacterImage{URL: img.URL}
	switch img.ContentType {
	case "image/svg+xml":
		ci.Format = subject.FormatSVG
		ci.InlineStyles = img.Metadata.InlineStyles
	case "image/png":
		ci.Format = subject.FormatPNG
		ci.Color = img.Metadata.Color
		ci.Dimensions = img.Metadata.Dimensions
		ci.StyleName = img.Metadata.StyleName
	default:
		return ci, false
	}
	return ci, true
}
