package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	htmlutil "html"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>`
	htmlDoctype    = `<!DOCTYPE html>`
	viewportMeta   = `<meta name="viewport" content="width=device-width, height=device-height"/>`
	xhtmlNamespace = "http://www.w3.org/1999/xhtml"
)

// MarkupNormalizer abstracts the parse/serialize capability used to turn
// loosely-specified chapter markup into well-formed output. Any
// standards-conformant implementation may satisfy it.
type MarkupNormalizer interface {
	// ParseStrict parses well-formed XML and fails on any violation.
	ParseStrict(markup string) (*goquery.Document, error)
	// ParseLenient parses with browser-style error recovery.
	ParseLenient(markup string) (*goquery.Document, error)
	// Serialize renders the document back to markup.
	Serialize(doc *goquery.Document) (string, error)
}

// goqueryNormalizer is the default MarkupNormalizer built on goquery and
// golang.org/x/net/html, with strict well-formedness checked via
// encoding/xml.
type goqueryNormalizer struct{}

func (goqueryNormalizer) ParseStrict(markup string) (*goquery.Document, error) {
	if err := checkWellFormed(markup); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

func (goqueryNormalizer) ParseLenient(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

func (goqueryNormalizer) Serialize(doc *goquery.Document) (string, error) {
	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to serialize document: %w", err)
		}
	}
	return buf.String(), nil
}

// checkWellFormed scans the markup with a strict XML tokenizer. HTML named
// entities are accepted; structural violations are not.
func checkWellFormed(markup string) error {
	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// blankLineRe splits plain text content into paragraphs.
var blankLineRe = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// renderTextBody wraps plain prose: blank-line-separated runs become
// paragraph elements, remaining single newlines become line breaks.
func renderTextBody(content string) string {
	var b strings.Builder
	for _, para := range blankLineRe.Split(content, -1) {
		if strings.TrimSpace(para) == "" {
			continue
		}
		lines := strings.Split(strings.ReplaceAll(para, "\r\n", "\n"), "\n")
		escaped := make([]string, 0, len(lines))
		for _, line := range lines {
			escaped = append(escaped, htmlutil.EscapeString(strings.TrimSpace(line)))
		}
		b.WriteString("    <p>" + strings.Join(escaped, "<br/>") + "</p>\n")
	}
	return b.String()
}

// renderChapterMarkup normalizes a chapter of kind Html/Xhtml: strict XML
// parse first, lenient HTML fallback, then head/link/heading coercion. If
// even lenient parsing fails the original content is returned unchanged.
func (b *Book) renderChapterMarkup(ch *Chapter) string {
	doc, err := b.normalizer.ParseStrict(ch.Content)
	if err != nil {
		doc, err = b.normalizer.ParseLenient(ch.Content)
	}
	if err != nil {
		b.diag(Diagnostic{Kind: DiagMarkupFallback, Detail: ch.Title})
		log.Printf("warning: chapter %q markup could not be parsed, emitting as-is: %v", ch.Title, err)
		return ch.Content
	}

	b.coerceChapterDoc(doc, ch)

	out, err := b.normalizer.Serialize(doc)
	if err != nil {
		b.diag(Diagnostic{Kind: DiagMarkupFallback, Detail: ch.Title})
		log.Printf("warning: chapter %q could not be serialized, emitting as-is: %v", ch.Title, err)
		return ch.Content
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "<?xml") {
		out = xmlDeclaration + "\n" + out
	}
	return out
}

// coerceChapterDoc ensures the parsed chapter carries a head with title and
// viewport, the stylesheet links the chapter declares, and a generated
// heading according to the chapter's title mode.
func (b *Book) coerceChapterDoc(doc *goquery.Document, ch *Chapter) {
	head := doc.Find("head")
	if head.Find("title").Length() == 0 {
		head.AppendHtml("<title>" + htmlutil.EscapeString(ch.Title) + "</title>")
	}
	if head.Find("meta[name='viewport']").Length() == 0 {
		head.AppendHtml(viewportMeta)
	}

	if ch.UseGlobalCSS && !hasStylesheetLink(doc, styleHref(GlobalStylesheet)) {
		head.AppendHtml(stylesheetLink(styleHref(GlobalStylesheet)))
	}
	for _, idx := range ch.Stylesheets {
		if idx == GlobalStylesheet {
			continue
		}
		if !hasStylesheetLink(doc, styleHref(idx)) {
			head.AppendHtml(stylesheetLink(styleHref(idx)))
		}
	}

	body := doc.Find("body")
	switch ch.TitleMode {
	case TitleAlways:
		body.PrependHtml("<h1>" + htmlutil.EscapeString(ch.Title) + "</h1>")
	case TitleAuto:
		if body.Find("h1,h2,h3,h4,h5,h6").Length() == 0 {
			body.PrependHtml("<h1>" + htmlutil.EscapeString(ch.Title) + "</h1>")
		}
	}
}

func hasStylesheetLink(doc *goquery.Document, href string) bool {
	found := false
	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		if v, _ := s.Attr("href"); v == href {
			found = true
		}
	})
	return found
}

func stylesheetLink(href string) string {
	return fmt.Sprintf(`<link rel="stylesheet" type="text/css" href="%s"/>`, htmlutil.EscapeString(href))
}

// renderTextChapter builds a complete XHTML document for a chapter of kind
// Text. Generated bodies never contain headings, so Auto behaves like
// Always here.
func (b *Book) renderTextChapter(ch *Chapter) string {
	var body strings.Builder
	if ch.TitleMode != TitleNever {
		body.WriteString("    <h1>" + htmlutil.EscapeString(ch.Title) + "</h1>\n")
	}
	body.WriteString(renderTextBody(ch.Content))
	return b.wrapDocument(ch.Title, chapterHeadLinks(ch), body.String())
}

// chapterHeadLinks returns the stylesheet links a chapter declares.
func chapterHeadLinks(ch *Chapter) []string {
	var links []string
	if ch.UseGlobalCSS {
		links = append(links, stylesheetLink(styleHref(GlobalStylesheet)))
	}
	for _, idx := range ch.Stylesheets {
		if idx == GlobalStylesheet {
			continue
		}
		links = append(links, stylesheetLink(styleHref(idx)))
	}
	return links
}

// wrapDocument assembles a well-formed XHTML document around a body.
func (b *Book) wrapDocument(title string, headLinks []string, body string) string {
	var doc strings.Builder
	doc.WriteString(xmlDeclaration + "\n" + htmlDoctype + "\n")
	fmt.Fprintf(&doc, "<html xmlns=\"%s\">\n  <head>\n", xhtmlNamespace)
	fmt.Fprintf(&doc, "    <title>%s</title>\n", htmlutil.EscapeString(title))
	doc.WriteString("    " + viewportMeta + "\n")
	for _, link := range headLinks {
		doc.WriteString("    " + link + "\n")
	}
	doc.WriteString("  </head>\n  <body>\n")
	doc.WriteString(body)
	doc.WriteString("  </body>\n</html>\n")
	return doc.String()
}
