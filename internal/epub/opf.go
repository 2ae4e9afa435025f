package epub

import (
	"fmt"
	htmlutil "html"
	"strings"
)

const (
	xhtmlMediaType = "application/xhtml+xml"
	ncxMediaType   = "application/x-dtbncx+xml"
	cssMediaType   = "text/css"
)

// manifestItem is one entry of the package manifest.
type manifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}

// buildManifest collects every archive resource in the fixed category order:
// navigation files, cover, image assets, indexed stylesheets, mapped
// stylesheets, then volume pages and chapters in ascending index order.
func (b *Book) buildManifest() []manifestItem {
	items := []manifestItem{
		{ID: "ncx", Href: ncxFile, MediaType: ncxMediaType},
		{ID: "nav", Href: navFile, MediaType: xhtmlMediaType, Properties: "nav"},
	}

	if cover := b.assets.Cover(); cover != nil {
		items = append(items,
			manifestItem{
				ID:         "cover-image",
				Href:       imagesDir + "/cover." + cover.Ext,
				MediaType:  mediaTypeForExt(cover.Ext),
				Properties: "cover-image",
			},
			manifestItem{ID: "cover-page", Href: textPath(coverPageFile), MediaType: xhtmlMediaType},
		)
	}

	for _, img := range b.assets.Images() {
		items = append(items, manifestItem{
			ID:        strings.TrimSuffix(img.Name, "."+img.Ext),
			Href:      imagesDir + "/" + img.Name,
			MediaType: mediaTypeForExt(img.Ext),
		})
	}

	for _, s := range b.styles.Indexed() {
		items = append(items, manifestItem{
			ID:        fmt.Sprintf("style%d", s.Index),
			Href:      stylesDir + "/" + styleFileName(s.Index),
			MediaType: cssMediaType,
		})
	}
	for i, m := range b.styles.Mapped() {
		items = append(items, manifestItem{
			ID:        fmt.Sprintf("style-map-%d", i),
			Href:      stylesDir + "/" + m.OutputName,
			MediaType: cssMediaType,
		})
	}

	for _, v := range b.content.Volumes() {
		if v.Options.CreatePage {
			items = append(items, manifestItem{
				ID:        fmt.Sprintf("volume-%d", v.Index),
				Href:      textPath(volumePageFileName(v.Index)),
				MediaType: xhtmlMediaType,
			})
		}
		for _, c := range v.Chapters() {
			items = append(items, manifestItem{
				ID:        fmt.Sprintf("chapter-%d-%d", c.Volume, c.Index),
				Href:      textPath(chapterFileName(c.Volume, c.Index)),
				MediaType: xhtmlMediaType,
			})
		}
	}

	return items
}

// buildSpine lists the linear reading order: the cover page first, then for
// each volume its page (when enabled) followed by its chapters. Stylesheets
// and images never appear in the spine.
func (b *Book) buildSpine() []string {
	var refs []string
	if b.assets.Cover() != nil {
		refs = append(refs, "cover-page")
	}
	for _, v := range b.content.Volumes() {
		if v.Options.CreatePage {
			refs = append(refs, fmt.Sprintf("volume-%d", v.Index))
		}
		for _, c := range v.Chapters() {
			refs = append(refs, fmt.Sprintf("chapter-%d-%d", c.Volume, c.Index))
		}
	}
	return refs
}

// renderOPF emits the package document: metadata, manifest and spine.
func (b *Book) renderOPF() string {
	var doc strings.Builder
	doc.WriteString(xmlDeclaration + "\n")
	fmt.Fprintf(&doc, "<package xmlns=\"http://www.idpf.org/2007/opf\" version=\"3.0\" unique-identifier=\"%s\">\n", uniqueIDRef)

	doc.WriteString("  <metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\">\n")
	b.meta.render(&doc, "    ")
	fmt.Fprintf(&doc, "    <meta property=\"dcterms:modified\">%s</meta>\n", b.created.UTC().Format("2006-01-02T15:04:05Z"))
	if b.assets.Cover() != nil {
		doc.WriteString("    <meta name=\"cover\" content=\"cover-image\"/>\n")
	}
	doc.WriteString("  </metadata>\n")

	doc.WriteString("  <manifest>\n")
	for _, item := range b.buildManifest() {
		fmt.Fprintf(&doc, "    <item id=\"%s\" href=\"%s\" media-type=\"%s\"",
			htmlutil.EscapeString(item.ID), htmlutil.EscapeString(item.Href), item.MediaType)
		if item.Properties != "" {
			fmt.Fprintf(&doc, " properties=\"%s\"", item.Properties)
		}
		doc.WriteString("/>\n")
	}
	doc.WriteString("  </manifest>\n")

	doc.WriteString("  <spine toc=\"ncx\">\n")
	for _, ref := range b.buildSpine() {
		fmt.Fprintf(&doc, "    <itemref idref=\"%s\"/>\n", htmlutil.EscapeString(ref))
	}
	doc.WriteString("  </spine>\n</package>\n")
	return doc.String()
}
