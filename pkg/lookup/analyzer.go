// Package lookup answers questions about Japanese text against the synced
// catalog: which subjects a word or reading belongs to, which kanji of a
// text are known subjects, and how an article maps onto subjects.
package lookup

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface  string // The text as it appears (e.g. "行っ")
	BaseForm string // The dictionary form (e.g. "行く")
	Reading  string // The pronunciation in hiragana (e.g. "いっ")
	// PartsOfSpeech holds the raw IPA feature list; PrimaryPOS is its first entry.
	PartsOfSpeech []string
	PrimaryPOS    string
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Analyzer handles text segmentation.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token

	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0-3 POS, 4-5 conjugation, 6 base form, 7 reading, 8 pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = ToHiragana(features[7])
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}
	return result
}

// AnalyzeDocument splits the text into sentences and tokenizes each sentence.
func (a *Analyzer) AnalyzeDocument(text string) []Sentence {
	var result []Sentence
	for _, s := range splitSentences(text) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		result = append(result, Sentence{Text: s, Tokens: a.Analyze(s)})
	}
	return result
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// contentPOS are the parts of speech worth looking up.
var contentPOS = map[string]bool{
	"名詞":  true,
	"動詞":  true,
	"形容詞": true,
	"副詞":  true,
	"連体詞": true,
	"接頭詞": true,
	"感動詞": true,
}

// IsContent reports whether the token carries meaning of its own, as
// opposed to particles, auxiliaries and punctuation.
func (t Token) IsContent() bool {
	return contentPOS[t.PrimaryPOS]
}
