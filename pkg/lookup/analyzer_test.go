package lookup

import (
	"strings"
	"testing"
)

func TestAnalyzeBaseFormAndReading(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	tokens := analyzer.Analyze("学校に行った")
	if len(tokens) == 0 {
		t.Fatal("No tokens found")
	}

	var school, went *Token
	for i := range tokens {
		switch tokens[i].Surface {
		case "学校":
			school = &tokens[i]
		case "行っ":
			went = &tokens[i]
		}
	}
	if school == nil || school.Reading != "がっこう" || school.PrimaryPOS != "名詞" {
		t.Fatalf("unexpected token for 学校: %+v", school)
	}
	if went == nil || went.BaseForm != "行く" {
		t.Fatalf("expected 行っ with base form 行く, got %+v", went)
	}
}

func TestPrimaryPOSSet(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	for _, tok := range analyzer.Analyze("猫が好きです。") {
		if len(tok.PartsOfSpeech) == 0 || tok.PrimaryPOS != tok.PartsOfSpeech[0] {
			t.Errorf("PrimaryPOS mismatch for %q: %q vs %v", tok.Surface, tok.PrimaryPOS, tok.PartsOfSpeech)
		}
	}
}

func TestIsContent(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	for _, tok := range analyzer.Analyze("猫が好きです。") {
		switch tok.Surface {
		case "猫":
			if !tok.IsContent() {
				t.Errorf("猫 should be a content token")
			}
		case "が", "。":
			if tok.IsContent() {
				t.Errorf("%q should not be a content token", tok.Surface)
			}
		}
	}
}

func TestAnalyzeDocumentSplitsSentences(t *testing.T) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	sentences := analyzer.AnalyzeDocument("今日は晴れです。明日は雨ですか？\nそうですね")
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(sentences))
	}
	if !strings.HasSuffix(sentences[0].Text, "。") {
		t.Errorf("first sentence should keep its delimiter: %q", sentences[0].Text)
	}
	for _, s := range sentences {
		if len(s.Tokens) == 0 {
			t.Errorf("Sentence has no tokens: %q", s.Text)
		}
	}
}

func TestToHiragana(t *testing.T) {
	tests := map[string]string{
		"カタカナ":  "かたかな",
		"ガッコウ":  "がっこう",
		"ひらがな":  "ひらがな",
		"漢字とカナ": "漢字とかな",
		"ヴ":     "ゔ",
		"ー":     "ー",
	}
	for in, want := range tests {
		if got := ToHiragana(in); got != want {
			t.Errorf("ToHiragana(%q) = %q, want %q", in, got, want)
		}
	}
}
