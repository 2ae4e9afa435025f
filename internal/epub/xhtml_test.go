package epub

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestRenderTextBody(t *testing.T) {
	content := "First paragraph.\n\nSecond paragraph\nwith a continuation line."
	out := renderTextBody(content)

	if got := strings.Count(out, "<p>"); got != 2 {
		t.Fatalf("paragraph count = %d, want 2\n%s", got, out)
	}
	paras := strings.SplitAfter(out, "</p>")
	if strings.Contains(paras[0], "<br/>") {
		t.Errorf("first paragraph has a line break:\n%s", paras[0])
	}
	if !strings.Contains(paras[1], "with a continuation line") || !strings.Contains(paras[1], "<br/>") {
		t.Errorf("second paragraph missing line break:\n%s", paras[1])
	}
}

func TestRenderTextBody_SkipsEmptyRuns(t *testing.T) {
	out := renderTextBody("One.\n\n\n\nTwo.\n\n   \n")
	if got := strings.Count(out, "<p>"); got != 2 {
		t.Errorf("paragraph count = %d, want 2\n%s", got, out)
	}
}

func TestRenderTextChapter(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	ch := &Chapter{
		Volume: 1, Index: 1,
		Title:        "Chapter <One>",
		Content:      "Hello.",
		Kind:         KindText,
		UseGlobalCSS: true,
		Stylesheets:  []int{2},
		TitleMode:    TitleAuto,
	}
	out := b.renderTextChapter(ch)

	if !strings.HasPrefix(out, xmlDeclaration) {
		t.Errorf("output missing XML declaration:\n%s", out)
	}
	if !strings.Contains(out, "<title>Chapter &lt;One&gt;</title>") {
		t.Errorf("output missing escaped title:\n%s", out)
	}
	if !strings.Contains(out, `href="../Styles/style0.css"`) {
		t.Errorf("output missing global stylesheet link:\n%s", out)
	}
	if !strings.Contains(out, `href="../Styles/style2.css"`) {
		t.Errorf("output missing indexed stylesheet link:\n%s", out)
	}
	if !strings.Contains(out, "<h1>Chapter &lt;One&gt;</h1>") {
		t.Errorf("output missing generated heading:\n%s", out)
	}
}

func TestRenderChapterMarkup_Coercion(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	ch := &Chapter{
		Volume: 1, Index: 2,
		Title:        "Second",
		Content:      "<html><head></head><body><p>hi</p></body></html>",
		Kind:         KindXHTML,
		UseGlobalCSS: true,
		TitleMode:    TitleAuto,
	}
	out := b.renderChapterMarkup(ch)

	if !strings.HasPrefix(out, xmlDeclaration) {
		t.Errorf("output missing XML declaration:\n%s", out)
	}
	if !strings.Contains(out, "<title>Second</title>") {
		t.Errorf("title not injected:\n%s", out)
	}
	if !strings.Contains(out, `name="viewport"`) {
		t.Errorf("viewport meta not injected:\n%s", out)
	}
	if !strings.Contains(out, "../Styles/style0.css") {
		t.Errorf("global stylesheet link not injected:\n%s", out)
	}
	if !strings.Contains(out, "<h1>Second</h1>") {
		t.Errorf("heading not injected under Auto with headingless body:\n%s", out)
	}
}

func TestRenderChapterMarkup_TitleModes(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	withHeading := "<html><body><h2>Existing</h2><p>x</p></body></html>"

	tests := []struct {
		name        string
		mode        TitleMode
		content     string
		wantHeading bool
	}{
		{"auto with existing heading", TitleAuto, withHeading, false},
		{"auto without heading", TitleAuto, "<html><body><p>x</p></body></html>", true},
		{"always with existing heading", TitleAlways, withHeading, true},
		{"never", TitleNever, "<html><body><p>x</p></body></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &Chapter{Title: "Gen", Content: tt.content, Kind: KindHTML, TitleMode: tt.mode}
			out := b.renderChapterMarkup(ch)
			got := strings.Contains(out, "<h1>Gen</h1>")
			if got != tt.wantHeading {
				t.Errorf("generated heading present = %v, want %v\n%s", got, tt.wantHeading, out)
			}
		})
	}
}

func TestRenderChapterMarkup_PreservesExistingLinks(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	ch := &Chapter{
		Title: "C",
		Content: `<html><head><link rel="stylesheet" type="text/css" href="../Styles/style0.css"/></head>` +
			`<body><h1>H</h1></body></html>`,
		Kind:         KindXHTML,
		UseGlobalCSS: true,
		TitleMode:    TitleAuto,
	}
	out := b.renderChapterMarkup(ch)

	if got := strings.Count(out, "../Styles/style0.css"); got != 1 {
		t.Errorf("global stylesheet link count = %d, want 1 (no duplicate injection)", got)
	}
}

// failingNormalizer rejects everything, forcing the passthrough branch.
type failingNormalizer struct{}

func (failingNormalizer) ParseStrict(string) (*goquery.Document, error) {
	return nil, errors.New("strict parse failed")
}

func (failingNormalizer) ParseLenient(string) (*goquery.Document, error) {
	return nil, errors.New("lenient parse failed")
}

func (failingNormalizer) Serialize(*goquery.Document) (string, error) {
	return "", errors.New("serialize failed")
}

func TestRenderChapterMarkup_FallbackPassthrough(t *testing.T) {
	b := NewBook(BookOptions{Fetcher: newFakeFetcher(), Normalizer: failingNormalizer{}})
	ch := &Chapter{Title: "Broken", Content: "<<<not markup>>>", Kind: KindHTML}

	out := b.renderChapterMarkup(ch)
	if out != "<<<not markup>>>" {
		t.Errorf("fallback output = %q, want original content unchanged", out)
	}

	diags := b.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != DiagMarkupFallback {
		t.Errorf("diagnostics = %+v, want one markup-fallback entry", diags)
	}
}

func TestCheckWellFormed(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		wantOK bool
	}{
		{"well-formed", "<html><body><p>ok</p></body></html>", true},
		{"unclosed tag", "<html><body><p>bad</body></html>", false},
		{"html entity accepted", "<p>a&nbsp;b</p>", true},
		{"mismatched nesting", "<b><i>x</b></i>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkWellFormed(tt.markup)
			if (err == nil) != tt.wantOK {
				t.Errorf("checkWellFormed(%q) err = %v, wantOK %v", tt.markup, err, tt.wantOK)
			}
		})
	}
}
