package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/japaniel/wksync/pkg/db"
	"github.com/japaniel/wksync/pkg/subject"
)

// fakeStore records calls in memory and can be told to fail specific
// operations for specific subject ids.
type fakeStore struct {
	mu    sync.Mutex
	index map[int]db.IndexRow
	calls []string

	failDeleteCanonical map[int]error
	failCanonical       map[int]error
	failMeanings        map[int]error
	failReadings        map[int]error

	canonical map[int]subject.Type
	children  map[int]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		index:               make(map[int]db.IndexRow),
		failDeleteCanonical: make(map[int]error),
		failCanonical:       make(map[int]error),
		failMeanings:        make(map[int]error),
		failReadings:        make(map[int]error),
		canonical:           make(map[int]subject.Type),
		children:            make(map[int]int),
	}
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) FindIndex(_ context.Context, id int) (*db.IndexRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("find_index")
	row, ok := f.index[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (f *fakeStore) DeleteIndex(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_index")
	delete(f.index, id)
	return nil
}

func (f *fakeStore) UpsertIndex(_ context.Context, row db.IndexRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upsert_index")
	f.index[row.SubjectID] = row
	return nil
}

func (f *fakeStore) DeleteCanonical(_ context.Context, t subject.Type, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_canonical:" + string(t))
	if err := f.failDeleteCanonical[id]; err != nil {
		return err
	}
	if f.canonical[id] == t {
		delete(f.canonical, id)
	}
	return nil
}

func (f *fakeStore) put(t subject.Type, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("put:" + string(t))
	if err := f.failCanonical[id]; err != nil {
		return err
	}
	f.canonical[id] = t
	f.children[id] = 0
	return nil
}

func (f *fakeStore) PutRadical(_ context.Context, row db.RadicalRow) error {
	return f.put(subject.TypeRadical, row.ID)
}

func (f *fakeStore) PutKanji(_ context.Context, row db.KanjiRow) error {
	return f.put(subject.TypeKanji, row.ID)
}

func (f *fakeStore) PutVocabulary(_ context.Context, row db.VocabularyRow) error {
	return f.put(subject.TypeVocabulary, row.ID)
}

func parentID(p db.ParentRef) int {
	switch {
	case p.RadicalSubjectID != nil:
		return *p.RadicalSubjectID
	case p.KanjiSubjectID != nil:
		return *p.KanjiSubjectID
	case p.VocabularySubjectID != nil:
		return *p.VocabularySubjectID
	}
	return 0
}

func (f *fakeStore) create(name string, parents []db.ParentRef, fail map[int]error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create:" + name)
	for _, p := range parents {
		id := parentID(p)
		if err := fail[id]; err != nil {
			return err
		}
		f.children[id]++
	}
	return nil
}

func (f *fakeStore) CreateMeanings(_ context.Context, rows []db.MeaningRow) error {
	parents := make([]db.ParentRef, len(rows))
	for i, r := range rows {
		parents[i] = r.ParentRef
	}
	return f.create("meanings", parents, f.failMeanings)
}

func (f *fakeStore) CreateAuxiliaryMeanings(_ context.Context, rows []db.AuxiliaryMeaningRow) error {
	parents := make([]db.ParentRef, len(rows))
	for i, r := range rows {
		parents[i] = r.ParentRef
	}
	return f.create("auxiliary_meanings", parents, nil)
}

func (f *fakeStore) CreateKanjiReadings(_ context.Context, rows []db.KanjiReadingRow) error {
	parents := make([]db.ParentRef, len(rows))
	for i, r := range rows {
		parents[i] = r.ParentRef
	}
	return f.create("kanji_readings", parents, f.failReadings)
}

func (f *fakeStore) CreateVocabularyReadings(_ context.Context, rows []db.VocabularyReadingRow) error {
	parents := make([]db.ParentRef, len(rows))
	for i, r := range rows {
		parents[i] = r.ParentRef
	}
	return f.create("vocabulary_readings", parents, f.failReadings)
}

func (f *fakeStore) CreateContextSentences(_ context.Context, rows []db.ContextSentenceRow) error {
	parents := make([]db.ParentRef, len(rows))
	for i, r := range rows {
		parents[i] = r.ParentRef
	}
	return f.create("context_sentences", parents, nil)
}

var errStoreDown = errors.New("store unavailable")

func strptr(s string) *string { return &s }

func kanjiRecord(id int) *subject.Kanji {
	return &subject.Kanji{
		Common: subject.Common{
			ID:              id,
			Level:           1,
			LessonPosition:  id,
			MeaningMnemonic: "mnemonic",
			Meanings: []subject.Meaning{
				{Text: "one", Primary: true, AcceptedAnswer: true},
				{Text: "two", AcceptedAnswer: true},
			},
			AuxiliaryMeanings: []subject.AuxiliaryMeaning{{Text: "uno", Kind: "whitelist"}},
		},
		Characters:      "一",
		ReadingHint:     "hint",
		ReadingMnemonic: "reading mnemonic",
		Readings: []subject.KanjiReading{
			{Text: "あ", Primary: true, AcceptedAnswer: true, Kind: subject.ReadingOnyomi},
			{Text: "い", Kind: subject.ReadingKunyomi},
		},
		ComponentSubjectIDs: []int{1},
	}
}

func radicalRecord(id int) *subject.Radical {
	return &subject.Radical{
		Common: subject.Common{
			ID:              id,
			Level:           1,
			MeaningMnemonic: "ground",
			Meanings:        []subject.Meaning{{Text: "ground", Primary: true, AcceptedAnswer: true}},
		},
		Characters: strptr("一"),
		CharacterImages: []subject.CharacterImage{
			{URL: "https://files.example/a.png", Format: subject.FormatPNG, Dimensions: "4x4"},
			{URL: "https://files.example/b.png", Format: subject.FormatPNG, Dimensions: "3x10"},
		},
		AmalgamationSubjectIDs: []int{440},
	}
}

func vocabularyRecord(id int) *subject.Vocabulary {
	return &subject.Vocabulary{
		Common: subject.Common{
			ID:              id,
			Level:           2,
			MeaningMnemonic: "m",
			Meanings:        []subject.Meaning{{Text: "one thing", Primary: true, AcceptedAnswer: true}},
		},
		Characters:       "一つ",
		ReadingMnemonic:  "r",
		Readings:         []subject.VocabularyReading{{Text: "ひとつ", Primary: true, AcceptedAnswer: true}},
		ContextSentences: []subject.ContextSentence{{English: "One please.", Japanese: "一つください。"}},
		PartsOfSpeech:    []string{"noun"},
	}
}
