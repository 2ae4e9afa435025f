package epub

import (
	"fmt"
	htmlutil "html"
	"strings"
)

// renderCoverPage wraps the cover image in a minimal content document so the
// cover participates in the spine.
func (b *Book) renderCoverPage(cover *Cover) string {
	label := b.Translate("cover")
	var body strings.Builder
	fmt.Fprintf(&body, "    <div class=\"cover\"><img src=\"%scover.%s\" alt=\"%s\"/></div>\n",
		imagesHrefPrefix, cover.Ext, htmlutil.EscapeString(label))
	return b.wrapDocument(label, nil, body.String())
}

// renderVolumePage builds the generated page for a volume. Navigator pages
// list the volume's chapters; blank pages carry only the title.
func (b *Book) renderVolumePage(v *Volume) string {
	var body strings.Builder
	fmt.Fprintf(&body, "    <h1>%s</h1>\n", htmlutil.EscapeString(v.Title))

	if v.Options.PageType == PageNavigator {
		chapters := v.Chapters()
		if len(chapters) > 0 {
			fmt.Fprintf(&body, "    <h2>%s</h2>\n", htmlutil.EscapeString(b.Translate("contents")))
			body.WriteString("    <ul class=\"volume-contents\">\n")
			for _, c := range chapters {
				// Volume pages live in Text/ next to the chapters.
				fmt.Fprintf(&body, "      <li><a href=\"%s\">%s</a></li>\n",
					htmlutil.EscapeString(chapterFileName(c.Volume, c.Index)),
					htmlutil.EscapeString(c.Title))
			}
			body.WriteString("    </ul>\n")
		}
	}

	var links []string
	if b.styles.Has(GlobalStylesheet) {
		links = append(links, stylesheetLink(styleHref(GlobalStylesheet)))
	}
	return b.wrapDocument(v.Title, links, body.String())
}
