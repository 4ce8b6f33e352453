package syncer

import (
	"context"

	"github.com/japaniel/wksync/pkg/db"
	"github.com/japaniel/wksync/pkg/subject"
)

// Store is the slice of the relational store the engine writes through.
// *db.Store satisfies it.
type Store interface {
	FindIndex(ctx context.Context, id int) (*db.IndexRow, error)
	DeleteIndex(ctx context.Context, id int) error
	UpsertIndex(ctx context.Context, row db.IndexRow) error
	DeleteCanonical(ctx context.Context, t subject.Type, id int) error

	PutRadical(ctx context.Context, row db.RadicalRow) error
	PutKanji(ctx context.Context, row db.KanjiRow) error
	PutVocabulary(ctx context.Context, row db.VocabularyRow) error

	CreateMeanings(ctx context.Context, rows []db.MeaningRow) error
	CreateAuxiliaryMeanings(ctx context.Context, rows []db.AuxiliaryMeaningRow) error
	CreateKanjiReadings(ctx context.Context, rows []db.KanjiReadingRow) error
	CreateVocabularyReadings(ctx context.Context, rows []db.VocabularyReadingRow) error
	CreateContextSentences(ctx context.Context, rows []db.ContextSentenceRow) error
}

var _ Store = (*db.Store)(nil)
