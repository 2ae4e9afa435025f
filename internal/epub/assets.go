package epub

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"net/url"
	"path"
	"strings"
	"sync"

	_ "image/gif"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"

	"github.com/yuanying/novel2epub/internal/fetch"
)

const (
	defaultImageExt  = "jpg"
	maxCoverWidth    = 1600
	coverJPEGQuality = 90
)

// ImageAsset is a fetched chapter-embedded image. Name is assigned from the
// shared counter and stays stable for the lifetime of the build.
type ImageAsset struct {
	Name string // file name under Images/
	Data []byte
	Ext  string
	URL  string
}

// Cover is the book cover image. At most one per document.
type Cover struct {
	Data []byte
	Ext  string
}

// AssetPipeline fetches and registers the cover and chapter-embedded remote
// images. The name counter and registration tables are guarded by a mutex so
// concurrent chapter insertions still yield deterministic state.
type AssetPipeline struct {
	mu      sync.Mutex
	fetcher fetch.Client
	counter int
	images  []*ImageAsset
	byURL   map[string]*ImageAsset
	cover   *Cover
	report  func(Diagnostic)
}

func newAssetPipeline(fetcher fetch.Client, report func(Diagnostic)) *AssetPipeline {
	return &AssetPipeline{
		fetcher: fetcher,
		byURL:   make(map[string]*ImageAsset),
		report:  report,
	}
}

// SetCoverURL fetches the cover from a remote URL. A failed fetch is fatal.
func (p *AssetPipeline) SetCoverURL(rawURL string) error {
	res, err := p.fetcher.Fetch(rawURL)
	if err != nil {
		return &ResourceFetchError{URL: rawURL, Err: err}
	}
	if !res.OK() {
		return &ResourceFetchError{URL: rawURL, StatusCode: res.StatusCode}
	}
	data, ext := normalizeCover(res.Body, inferExtension(res.ContentType, rawURL))

	p.mu.Lock()
	p.cover = &Cover{Data: data, Ext: ext}
	p.mu.Unlock()
	return nil
}

// SetCoverBytes stores a raw cover buffer as-is, with a default extension
// when none is given.
func (p *AssetPipeline) SetCoverBytes(data []byte, ext string) {
	if ext == "" {
		ext = defaultImageExt
	}
	data, ext = normalizeCover(data, strings.ToLower(strings.TrimPrefix(ext, ".")))

	p.mu.Lock()
	p.cover = &Cover{Data: data, Ext: ext}
	p.mu.Unlock()
}

// Cover returns the registered cover, or nil.
func (p *AssetPipeline) Cover() *Cover {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cover
}

// Images returns the registered image assets in registration order.
func (p *AssetPipeline) Images() []*ImageAsset {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*ImageAsset, len(p.images))
	copy(out, p.images)
	return out
}

// ExtractImages fetches every absolute http/https img reference in the
// markup, registers it as an asset and rewrites the src to the asset's final
// relative path. Images that cannot be fetched are removed; embedded images
// are decorative and must never abort the build.
func (p *AssetPipeline) ExtractImages(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	changed := false
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if !isRemoteURL(src) {
			return
		}
		asset, err := p.fetchImage(src)
		if err != nil {
			s.Remove()
			changed = true
			p.report(Diagnostic{Kind: DiagAssetDegradation, Detail: src})
			log.Printf("warning: removing unreachable image %q: %v", src, err)
			return
		}
		s.SetAttr("src", imagesHrefPrefix+asset.Name)
		changed = true
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

// fetchImage resolves one remote image. Plain-http URLs get a single https
// upgrade attempt first; on upgrade failure the original URL is used. This is
// an alternate, not a retry loop.
func (p *AssetPipeline) fetchImage(rawURL string) (*ImageAsset, error) {
	if strings.HasPrefix(rawURL, "http://") {
		upgraded := "https://" + strings.TrimPrefix(rawURL, "http://")
		if asset := p.lookup(upgraded); asset != nil {
			return asset, nil
		}
		if res, err := p.fetcher.Fetch(upgraded); err == nil && res.OK() {
			return p.register(upgraded, res), nil
		}
	}

	if asset := p.lookup(rawURL); asset != nil {
		return asset, nil
	}
	res, err := p.fetcher.Fetch(rawURL)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return p.register(rawURL, res), nil
}

func (p *AssetPipeline) lookup(rawURL string) *ImageAsset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byURL[rawURL]
}

// register assigns the next counter value and records the asset. Counter
// values are never reused and never reset per chapter.
func (p *AssetPipeline) register(rawURL string, res *fetch.Result) *ImageAsset {
	ext := inferExtension(res.ContentType, rawURL)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.counter++
	asset := &ImageAsset{
		Name: fmt.Sprintf("image%04d.%s", p.counter, ext),
		Data: res.Body,
		Ext:  ext,
		URL:  rawURL,
	}
	p.images = append(p.images, asset)
	p.byURL[rawURL] = asset
	return asset
}

// inferExtension resolves a file extension from the response content type,
// falling back to the URL's file suffix, falling back to "jpg".
func inferExtension(contentType, rawURL string) string {
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/svg+xml":
		return "svg"
	case "image/webp":
		return "webp"
	}

	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.TrimPrefix(path.Ext(u.Path), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}
	return defaultImageExt
}

// normalizeCover downscales oversize covers and re-encodes them. Data that
// cannot be decoded is kept untouched; cover optimization is best-effort.
func normalizeCover(data []byte, ext string) ([]byte, string) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, ext
	}
	if src.Bounds().Dx() <= maxCoverWidth {
		return data, ext
	}

	resized := imaging.Resize(src, maxCoverWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if ext == "png" {
		if err := png.Encode(&buf, resized); err != nil {
			return data, ext
		}
		return buf.Bytes(), "png"
	}
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: coverJPEGQuality}); err != nil {
		return data, ext
	}
	return buf.Bytes(), "jpg"
}

// mediaTypeForExt maps a file extension to its manifest media type.
func mediaTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "svg":
		return "image/svg+xml"
	case "webp":
		return "image/webp"
	default:
		return "image/" + strings.ToLower(ext)
	}
}
