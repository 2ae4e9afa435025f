package epub

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yuanying/novel2epub/internal/fetch"
)

// GlobalStylesheet is the reserved index of the book-wide stylesheet. It is
// linked into a chapter only when that chapter opts into the global CSS.
const GlobalStylesheet = 0

// mapReassignBase is the first index tried when a mapped stylesheet path
// collides with the indexed naming convention.
const mapReassignBase = 1000

// indexedNameRe matches the naming convention used for indexed stylesheets.
var indexedNameRe = regexp.MustCompile(`^style(\d+)\.css$`)

// IndexedStylesheet is a stylesheet registered under an integer index.
type IndexedStylesheet struct {
	Index    int
	Content  string
	PathHint string
}

// MappedStylesheet is a stylesheet imported by original reference path.
type MappedStylesheet struct {
	OriginalPath string
	OutputName   string // file name under Styles/
	Content      string
}

// MapEntry is one (original path, source) pair for ImportMap. Source is
// either a remote URL or literal CSS content.
type MapEntry struct {
	Path   string
	Source string
}

// StylesheetRegistry holds indexed stylesheets plus a path-keyed stylesheet
// map with conflict-free output path assignment and reference rewriting.
type StylesheetRegistry struct {
	fetcher fetch.Client
	indexed map[int]*IndexedStylesheet
	mapped  []*MappedStylesheet
	byPath  map[string]string // original href -> final href relative to Text/
	report  func(Diagnostic)
}

func newStylesheetRegistry(fetcher fetch.Client, report func(Diagnostic)) *StylesheetRegistry {
	return &StylesheetRegistry{
		fetcher: fetcher,
		indexed: make(map[int]*IndexedStylesheet),
		byPath:  make(map[string]string),
		report:  report,
	}
}

// Add registers a stylesheet under an integer index. Re-registering the same
// index with the same path hint is a no-op merge; a different hint is a
// conflict.
func (r *StylesheetRegistry) Add(idx int, content, pathHint string) error {
	if existing, ok := r.indexed[idx]; ok {
		if existing.PathHint != pathHint {
			return &ConflictError{Index: idx, ExistingHint: existing.PathHint, NewHint: pathHint}
		}
		return nil
	}
	r.indexed[idx] = &IndexedStylesheet{Index: idx, Content: content, PathHint: pathHint}
	return nil
}

// Has reports whether an index is registered.
func (r *StylesheetRegistry) Has(idx int) bool {
	_, ok := r.indexed[idx]
	return ok
}

// Indexed returns the indexed stylesheets in ascending index order.
func (r *StylesheetRegistry) Indexed() []*IndexedStylesheet {
	keys := make([]int, 0, len(r.indexed))
	for k := range r.indexed {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]*IndexedStylesheet, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.indexed[k])
	}
	return out
}

// Mapped returns the mapped stylesheets in import order.
func (r *StylesheetRegistry) Mapped() []*MappedStylesheet {
	out := make([]*MappedStylesheet, len(r.mapped))
	copy(out, r.mapped)
	return out
}

// ImportMap registers a batch of path-keyed stylesheets. Output names that
// collide with the indexed naming convention are reassigned to the first
// unused integer at or above 1000; two paths stripping to the same output
// name share one file when their content matches and the later one is
// renamed when it does not. Remote sources are fetched; a failed fetch is
// fatal for the whole import.
func (r *StylesheetRegistry) ImportMap(entries []MapEntry) error {
	for _, e := range entries {
		name := strings.TrimPrefix(e.Path, "Styles/")
		if indexedNameRe.MatchString(name) {
			renamed := styleFileName(r.nextFreeIndex())
			log.Printf("stylesheet %q collides with indexed naming, renamed to %q", name, renamed)
			name = renamed
		}

		content := e.Source
		if isRemoteURL(e.Source) {
			res, err := r.fetcher.Fetch(e.Source)
			if err != nil {
				return &ResourceFetchError{URL: e.Source, Err: err}
			}
			if !res.OK() {
				return &ResourceFetchError{URL: e.Source, StatusCode: res.StatusCode}
			}
			content = string(res.Body)
		}

		if prev := r.mappedByName(name); prev != nil {
			if prev.Content == content {
				r.byPath[e.Path] = stylesHrefPrefix + name
				continue
			}
			renamed := styleFileName(r.nextFreeIndex())
			log.Printf("stylesheet %q collides with %q, renamed to %q", e.Path, prev.OriginalPath, renamed)
			name = renamed
		}

		r.mapped = append(r.mapped, &MappedStylesheet{
			OriginalPath: e.Path,
			OutputName:   name,
			Content:      content,
		})
		r.byPath[e.Path] = stylesHrefPrefix + name
	}
	return nil
}

func (r *StylesheetRegistry) mappedByName(name string) *MappedStylesheet {
	for _, m := range r.mapped {
		if m.OutputName == name {
			return m
		}
	}
	return nil
}

// nextFreeIndex returns the lowest integer >= 1000 whose styleN.css name is
// unclaimed by both indexed stylesheets and previous map reassignments.
func (r *StylesheetRegistry) nextFreeIndex() int {
	taken := make(map[string]bool, len(r.mapped))
	for _, m := range r.mapped {
		taken[m.OutputName] = true
	}
	for n := mapReassignBase; ; n++ {
		if r.Has(n) || taken[styleFileName(n)] {
			continue
		}
		return n
	}
}

// RewriteReferences patches stylesheet link hrefs in chapter markup to their
// final output paths. Links with no registered path are removed; dangling
// references are dropped rather than left broken.
func (r *StylesheetRegistry) RewriteReferences(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	changed := false
	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if final, ok := r.lookup(href); ok {
			if final != href {
				s.SetAttr("href", final)
				changed = true
			}
			return
		}
		s.Remove()
		changed = true
		r.report(Diagnostic{Kind: DiagDanglingReference, Detail: href})
		log.Printf("warning: removing dangling stylesheet link %q", href)
	})

	if !changed {
		return markup
	}
	out, err := doc.Html()
	if err != nil {
		return markup
	}
	return out
}

// lookup resolves an href against the reverse mapping, tolerating the
// relative prefixes chapters commonly carry.
func (r *StylesheetRegistry) lookup(href string) (string, bool) {
	candidates := []string{
		href,
		strings.TrimPrefix(href, "./"),
		strings.TrimPrefix(href, "../"),
		strings.TrimPrefix(strings.TrimPrefix(href, "../"), "Styles/"),
		strings.TrimPrefix(href, "Styles/"),
	}
	for _, c := range candidates {
		if final, ok := r.byPath[c]; ok {
			return final, true
		}
	}
	return "", false
}

func styleFileName(idx int) string {
	return fmt.Sprintf("style%d.css", idx)
}

// styleHref is the href of an indexed stylesheet as referenced from Text/.
func styleHref(idx int) string {
	return stylesHrefPrefix + styleFileName(idx)
}
