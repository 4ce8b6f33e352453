package lookup

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/japaniel/wksync/pkg/db"
)

// MaxKanjiMapRunes caps the text accepted by KanjiMap.
const MaxKanjiMapRunes = 100

// Index is the read side of the relational store. *db.Store satisfies it.
type Index interface {
	SubjectsByCharacters(ctx context.Context, chars string) ([]db.IndexRow, error)
	SubjectsByReading(ctx context.Context, reading string) ([]db.IndexRow, error)
	KanjiIDByCharacter(ctx context.Context, glyph string) (int, error)
}

var _ Index = (*db.Store)(nil)

// Annotation links a token to the subjects it corresponds to.
type Annotation struct {
	Token    Token
	Subjects []db.IndexRow
	// MatchedBy is "characters", "reading" or "" when nothing matched.
	MatchedBy string
}

// Annotator maps text onto catalog subjects.
type Annotator struct {
	Index    Index
	Analyzer *Analyzer
}

// Annotate tokenizes text and looks up every content token: first by
// characters (base form, then surface), then by reading. Non-content
// tokens are returned unannotated so the text can be rebuilt.
func (a *Annotator) Annotate(ctx context.Context, text string) ([]Annotation, error) {
	tokens := a.Analyzer.Analyze(text)
	out := make([]Annotation, 0, len(tokens))
	cache := make(map[string]Annotation)

	for _, tok := range tokens {
		if !tok.IsContent() {
			out = append(out, Annotation{Token: tok})
			continue
		}
		key := tok.BaseForm + "\x00" + tok.Surface + "\x00" + tok.Reading
		if hit, ok := cache[key]; ok {
			hit.Token = tok
			out = append(out, hit)
			continue
		}
		ann, err := a.annotateToken(ctx, tok)
		if err != nil {
			return nil, err
		}
		cache[key] = ann
		out = append(out, ann)
	}
	return out, nil
}

func (a *Annotator) annotateToken(ctx context.Context, tok Token) (Annotation, error) {
	ann := Annotation{Token: tok}

	candidates := []string{tok.BaseForm}
	if tok.Surface != tok.BaseForm {
		candidates = append(candidates, tok.Surface)
	}
	for _, chars := range candidates {
		rows, err := a.Index.SubjectsByCharacters(ctx, chars)
		if err != nil {
			return ann, fmt.Errorf("lookup %q: %w", chars, err)
		}
		if len(rows) > 0 {
			ann.Subjects, ann.MatchedBy = rows, "characters"
			return ann, nil
		}
	}

	if tok.Reading == "" {
		return ann, nil
	}
	rows, err := a.Index.SubjectsByReading(ctx, tok.Reading)
	if err != nil {
		return ann, fmt.Errorf("lookup reading %q: %w", tok.Reading, err)
	}
	if len(rows) > 0 {
		ann.Subjects, ann.MatchedBy = rows, "reading"
	}
	return ann, nil
}

// KanjiEntry is one character of a kanji map.
type KanjiEntry struct {
	Character string
	// SubjectID is 0 when the character is not a known kanji subject.
	SubjectID int
}

// KanjiMap returns every distinct character of text, in order of first
// appearance, with the kanji subject it corresponds to.
func KanjiMap(ctx context.Context, idx Index, text string) ([]KanjiEntry, error) {
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxKanjiMapRunes {
		return nil, fmt.Errorf("text has %d characters, limit is %d", n, MaxKanjiMapRunes)
	}

	seen := make(map[rune]bool)
	var out []KanjiEntry
	for _, r := range text {
		if seen[r] {
			continue
		}
		seen[r] = true
		id, err := idx.KanjiIDByCharacter(ctx, string(r))
		if err != nil {
			return nil, fmt.Errorf("lookup %q: %w", r, err)
		}
		out = append(out, KanjiEntry{Character: string(r), SubjectID: id})
	}
	return out, nil
}
