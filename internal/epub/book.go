// Package epub is an e-book packaging engine: it accepts a structured
// in-memory document (metadata, volumes and chapters, stylesheets, a cover
// and embedded remote images) and emits a single EPUB archive whose internal
// files stay mutually consistent.
package epub

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/yuanying/novel2epub/internal/fetch"
)

// BookOptions configures engine construction. The zero value gets sane
// defaults: an HTTP fetcher, the goquery-backed normalizer, English, and a
// generated urn:uuid identifier.
type BookOptions struct {
	Fetcher    fetch.Client
	Normalizer MarkupNormalizer
	Language   string
	Now        func() time.Time // current-timestamp source
	NewID      func() string    // unique-identifier generator
}

// Book accumulates the document model and packages it on Save. Chapter
// insertion is serialized internally, so concurrent registrations still
// produce deterministic asset names.
type Book struct {
	mu         sync.Mutex
	meta       *MetadataStore
	styles     *StylesheetRegistry
	assets     *AssetPipeline
	content    *ContentModel
	normalizer MarkupNormalizer
	created    time.Time
	frozen     bool

	diagMu sync.Mutex
	diags  []Diagnostic
}

// NewBook creates an empty book with default metadata: a generated unique
// identifier, the current timestamp, the given (or English) language and
// placeholder title and author.
func NewBook(opts BookOptions) *Book {
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewHTTPClient()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = goqueryNormalizer{}
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string {
			return "urn:uuid:" + uuid.Must(uuid.NewV4()).String()
		}
	}

	b := &Book{
		meta:       NewMetadataStore(),
		content:    newContentModel(),
		normalizer: opts.Normalizer,
		created:    opts.Now(),
	}
	b.styles = newStylesheetRegistry(opts.Fetcher, b.diag)
	b.assets = newAssetPipeline(opts.Fetcher, b.diag)

	b.meta.Set("identifier", opts.NewID(), nil)
	b.meta.Set("title", "Untitled", nil)
	b.meta.Set("creator", "Unknown", nil)
	b.meta.Set("language", opts.Language, nil)
	b.meta.Set("date", b.created.UTC().Format("2006-01-02"), nil)
	return b
}

// SetInfo upserts a metadata field; last write wins.
func (b *Book) SetInfo(key, value string, attrs map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}
	b.meta.Set(key, value, attrs)
	return nil
}

// Metadata exposes the metadata store for inspection.
func (b *Book) Metadata() *MetadataStore { return b.meta }

// Translate resolves a localized label through the document's current
// language table.
func (b *Book) Translate(key string) string {
	return Translate(b.meta.Value("language"), key)
}

// SetCoverURL fetches and registers the cover image. Fatal on fetch failure.
func (b *Book) SetCoverURL(rawURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}
	return b.assets.SetCoverURL(rawURL)
}

// SetCoverBytes registers a raw cover buffer.
func (b *Book) SetCoverBytes(data []byte, ext string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}
	b.assets.SetCoverBytes(data, ext)
	return nil
}

// AddStylesheet registers an indexed stylesheet. Index 0 is the global
// sheet linked into chapters that opt into it.
func (b *Book) AddStylesheet(idx int, content, pathHint string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}
	return b.styles.Add(idx, content, pathHint)
}

// ImportStylesheetMap registers a batch of path-keyed stylesheets used for
// reference rewriting inside chapter markup.
func (b *Book) ImportStylesheetMap(entries []MapEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}
	return b.styles.ImportMap(entries)
}

// AddVolume registers a volume; a later call with the same index replaces
// it.
func (b *Book) AddVolume(idx int, title string, opts VolumeOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}
	b.content.AddVolume(idx, title, opts)
	return nil
}

// ChapterParams carries a chapter registration.
type ChapterParams struct {
	Volume       int
	Index        int
	Title        string
	Content      string
	Kind         ContentKind
	UseGlobalCSS bool
	Stylesheets  []int
	TitleMode    TitleMode
}

// AddChapter normalizes and stores a chapter. Html/Xhtml content passes
// through stylesheet reference rewriting and then remote image extraction
// before it is stored; plain text is stored verbatim.
func (b *Book) AddChapter(p ChapterParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrModelFrozen
	}

	content := p.Content
	if p.Kind != KindText {
		content = b.styles.RewriteReferences(content)
		content = b.assets.ExtractImages(content)
	}

	b.content.addChapter(&Chapter{
		Volume:       p.Volume,
		Index:        p.Index,
		Title:        p.Title,
		Content:      content,
		Kind:         p.Kind,
		UseGlobalCSS: p.UseGlobalCSS,
		Stylesheets:  p.Stylesheets,
		TitleMode:    p.TitleMode,
	})
	return nil
}

// Diagnostics returns the non-fatal conditions recorded so far.
func (b *Book) Diagnostics() []Diagnostic {
	b.diagMu.Lock()
	defer b.diagMu.Unlock()
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	return out
}

func (b *Book) diag(d Diagnostic) {
	b.diagMu.Lock()
	b.diags = append(b.diags, d)
	b.diagMu.Unlock()
}

// Save renders the accumulated model and writes the archive. The model is
// frozen once rendering starts; registration calls made afterwards fail
// with ErrModelFrozen.
func (b *Book) Save(w io.Writer) error {
	b.mu.Lock()
	b.frozen = true
	b.mu.Unlock()

	pw := NewPackageWriter(w)
	if err := pw.WriteMimetype(); err != nil {
		return err
	}
	if err := pw.WriteFile(containerFile, []byte(renderContainer())); err != nil {
		return err
	}
	if err := pw.WriteFile(rootDir+"/"+packageFile, []byte(b.renderOPF())); err != nil {
		return err
	}

	entries := b.buildTOC()
	if err := pw.WriteFile(rootDir+"/"+ncxFile, []byte(b.renderNCX(entries))); err != nil {
		return err
	}
	if err := pw.WriteFile(rootDir+"/"+navFile, []byte(b.renderNav(entries))); err != nil {
		return err
	}

	for _, s := range b.styles.Indexed() {
		name := rootDir + "/" + stylesDir + "/" + styleFileName(s.Index)
		if err := pw.WriteFile(name, []byte(s.Content)); err != nil {
			return err
		}
	}
	for _, m := range b.styles.Mapped() {
		name := rootDir + "/" + stylesDir + "/" + m.OutputName
		if err := pw.WriteFile(name, []byte(m.Content)); err != nil {
			return err
		}
	}

	for _, img := range b.assets.Images() {
		if err := pw.WriteFile(rootDir+"/"+imagesDir+"/"+img.Name, img.Data); err != nil {
			return err
		}
	}
	if cover := b.assets.Cover(); cover != nil {
		if err := pw.WriteFile(rootDir+"/"+imagesDir+"/cover."+cover.Ext, cover.Data); err != nil {
			return err
		}
		if err := pw.WriteFile(rootDir+"/"+textPath(coverPageFile), []byte(b.renderCoverPage(cover))); err != nil {
			return err
		}
	}

	for _, v := range b.content.Volumes() {
		if v.Options.CreatePage {
			name := rootDir + "/" + textPath(volumePageFileName(v.Index))
			if err := pw.WriteFile(name, []byte(b.renderVolumePage(v))); err != nil {
				return err
			}
		}
		for _, c := range v.Chapters() {
			var doc string
			if c.Kind == KindText {
				doc = b.renderTextChapter(c)
			} else {
				doc = b.renderChapterMarkup(c)
			}
			name := rootDir + "/" + textPath(chapterFileName(c.Volume, c.Index))
			if err := pw.WriteFile(name, []byte(doc)); err != nil {
				return err
			}
		}
	}

	return pw.Close()
}

// SaveFile writes the archive to a file path.
func (b *Book) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := b.Save(f); err != nil {
		return err
	}
	return f.Sync()
}
