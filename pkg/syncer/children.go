package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/japaniel/wksync/pkg/db"
	"github.com/japaniel/wksync/pkg/subject"
)

// writeChildren creates every child collection of rec under its canonical
// row. Each collection is attempted even if an earlier one failed; the
// failures are joined.
func writeChildren(ctx context.Context, store Store, rec subject.Record) error {
	parent := db.Parent(rec.Type(), rec.SubjectID())
	h := rec.Header()

	var errs []error
	collect := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	collect("meanings", store.CreateMeanings(ctx, meaningRows(parent, h.Meanings)))
	collect("auxiliary meanings", store.CreateAuxiliaryMeanings(ctx, auxiliaryRows(parent, h.AuxiliaryMeanings)))

	switch s := rec.(type) {
	case *subject.Kanji:
		rows := make([]db.KanjiReadingRow, 0, len(s.Readings))
		for _, rd := range s.Readings {
			rows = append(rows, db.KanjiReadingRow{
				ParentRef:      parent,
				Text:           rd.Text,
				Kind:           rd.Kind,
				Primary:        rd.Primary,
				AcceptedAnswer: rd.AcceptedAnswer,
			})
		}
		collect("kanji readings", store.CreateKanjiReadings(ctx, rows))
	case *subject.Vocabulary:
		readings := make([]db.VocabularyReadingRow, 0, len(s.Readings))
		for _, rd := range s.Readings {
			readings = append(readings, db.VocabularyReadingRow{
				ParentRef:      parent,
				Text:           rd.Text,
				Primary:        rd.Primary,
				AcceptedAnswer: rd.AcceptedAnswer,
			})
		}
		collect("vocabulary readings", store.CreateVocabularyReadings(ctx, readings))

		sentences := make([]db.ContextSentenceRow, 0, len(s.ContextSentences))
		for _, cs := range s.ContextSentences {
			sentences = append(sentences, db.ContextSentenceRow{
				ParentRef: parent,
				English:   cs.English,
				Japanese:  cs.Japanese,
			})
		}
		collect("context sentences", store.CreateContextSentences(ctx, sentences))
	}

	return errors.Join(errs...)
}

func meaningRows(parent db.ParentRef, meanings []subject.Meaning) []db.MeaningRow {
	rows := make([]db.MeaningRow, 0, len(meanings))
	for _, m := range meanings {
		rows = append(rows, db.MeaningRow{
			ParentRef:      parent,
			Text:           m.Text,
			Primary:        m.Primary,
			AcceptedAnswer: m.AcceptedAnswer,
		})
	}
	return rows
}

func auxiliaryRows(parent db.ParentRef, aux []subject.AuxiliaryMeaning) []db.AuxiliaryMeaningRow {
	rows := make([]db.AuxiliaryMeaningRow, 0, len(aux))
	for _, a := range aux {
		rows = append(rows, db.AuxiliaryMeaningRow{ParentRef: parent, Text: a.Text, Kind: a.Kind})
	}
	return rows
}
