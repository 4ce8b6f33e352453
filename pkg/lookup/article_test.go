package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const furiganaPage = `<!DOCTYPE html>
<html lang="ja"><head><title>漢字の勉強</title></head>
<body>
<nav><a href="/">ホーム</a></nav>
<article>
<h1>漢字の勉強</h1>
<p>毎日<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>を勉強しています。日本語の新聞を読むためには、たくさんの文字を覚えなければなりません。</p>
<p><ruby>先生<rt>せんせい</rt></ruby>は、毎日少しずつ練習することが大切だと言いました。私もそう思います。だから、毎朝三十分ぐらい練習しています。</p>
<p>最近は、ニュースの見出しが少しずつ分かるようになってきました。これからも頑張りたいと思います。</p>
</article>
</body></html>`

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple Ruby",
			input:    "<ruby>漢字<rt>かんじ</rt></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Ruby with RP",
			input:    "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>",
			expected: "<ruby>漢字</ruby>",
		},
		{
			name:     "Multiple Ruby",
			input:    "<ruby>私<rt>わたし</rt></ruby>は<ruby>猫<rt>ねこ</rt></ruby>である",
			expected: "<ruby>私</ruby>は<ruby>猫</ruby>である",
		},
		{
			name:     "Attributes and case",
			input:    "<ruby>字<RT class=\"f\">じ</RT></ruby>",
			expected: "<ruby>字</ruby>",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(SanitizeRuby([]byte(tc.input))); got != tc.expected {
				t.Errorf("SanitizeRuby(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestExtractArticleDropsFurigana(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, furiganaPage)
	}))
	defer srv.Close()

	article, err := ExtractArticle(context.Background(), srv.Client(), srv.URL+"/news/1")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if !strings.Contains(gotUA, "Mozilla") {
		t.Errorf("expected browser User-Agent, got %q", gotUA)
	}
	if !strings.Contains(article.Text, "漢字を勉強") {
		t.Errorf("article text missing body: %q", article.Text)
	}
	if strings.Contains(article.Text, "かんじ") || strings.Contains(article.Text, "せんせい") {
		t.Errorf("article text still contains furigana: %q", article.Text)
	}
}

func TestExtractArticleStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := ExtractArticle(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
