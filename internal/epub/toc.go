package epub

import (
	"fmt"
	htmlutil "html"
	"strings"
)

// tocEntry is one node of the logical table-of-contents hierarchy. Both
// navigation documents are rendered from the same tree so they always
// describe an identical structure.
type tocEntry struct {
	Label    string
	Href     string // relative to OEBPS/
	Children []tocEntry
}

// buildTOC derives the logical hierarchy from the content model. A volume
// becomes a parent entry with nested chapters when it has more than one
// chapter, always shows its title, or owns a volume page; a volume with a
// single chapter and none of those renders as one flat entry carrying the
// volume's title and linking straight to the chapter.
func (b *Book) buildTOC() []tocEntry {
	var entries []tocEntry
	for _, v := range b.content.Volumes() {
		chapters := v.Chapters()
		if len(chapters) == 0 && !v.Options.CreatePage {
			continue
		}

		label := v.Title
		if label == "" && len(chapters) > 0 {
			label = chapters[0].Title
		}

		switch {
		case v.Options.CreatePage:
			parent := tocEntry{Label: label, Href: textPath(volumePageFileName(v.Index))}
			for _, c := range chapters {
				parent.Children = append(parent.Children, chapterTOCEntry(c))
			}
			entries = append(entries, parent)
		case len(chapters) > 1 || v.Options.AlwaysShowTitle:
			parent := tocEntry{Label: label, Href: textPath(chapterFileName(chapters[0].Volume, chapters[0].Index))}
			for _, c := range chapters {
				parent.Children = append(parent.Children, chapterTOCEntry(c))
			}
			entries = append(entries, parent)
		default:
			flat := chapterTOCEntry(chapters[0])
			flat.Label = label
			entries = append(entries, flat)
		}
	}
	return entries
}

func chapterTOCEntry(c *Chapter) tocEntry {
	return tocEntry{
		Label: c.Title,
		Href:  textPath(chapterFileName(c.Volume, c.Index)),
	}
}

// renderNCX emits the legacy navigation map.
func (b *Book) renderNCX(entries []tocEntry) string {
	var doc strings.Builder
	doc.WriteString(xmlDeclaration + "\n")
	doc.WriteString(`<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">` + "\n")
	doc.WriteString("  <head>\n")
	fmt.Fprintf(&doc, "    <meta name=\"dtb:uid\" content=\"%s\"/>\n", htmlutil.EscapeString(b.meta.Value("identifier")))
	fmt.Fprintf(&doc, "    <meta name=\"dtb:depth\" content=\"%d\"/>\n", tocDepth(entries))
	doc.WriteString("    <meta name=\"dtb:totalPageCount\" content=\"0\"/>\n")
	doc.WriteString("    <meta name=\"dtb:maxPageNumber\" content=\"0\"/>\n")
	doc.WriteString("  </head>\n")
	fmt.Fprintf(&doc, "  <docTitle><text>%s</text></docTitle>\n", htmlutil.EscapeString(b.meta.Value("title")))
	doc.WriteString("  <navMap>\n")
	order := 0
	writeNavPoints(&doc, entries, "    ", &order)
	doc.WriteString("  </navMap>\n</ncx>\n")
	return doc.String()
}

func writeNavPoints(doc *strings.Builder, entries []tocEntry, indent string, order *int) {
	for _, e := range entries {
		*order++
		fmt.Fprintf(doc, "%s<navPoint id=\"navpoint-%d\" playOrder=\"%d\">\n", indent, *order, *order)
		fmt.Fprintf(doc, "%s  <navLabel><text>%s</text></navLabel>\n", indent, htmlutil.EscapeString(e.Label))
		fmt.Fprintf(doc, "%s  <content src=\"%s\"/>\n", indent, htmlutil.EscapeString(e.Href))
		writeNavPoints(doc, e.Children, indent+"  ", order)
		fmt.Fprintf(doc, "%s</navPoint>\n", indent)
	}
}

func tocDepth(entries []tocEntry) int {
	depth := 0
	for _, e := range entries {
		d := 1 + tocDepth(e.Children)
		if d > depth {
			depth = d
		}
	}
	return depth
}

// renderNav emits the content-document-based navigation page.
func (b *Book) renderNav(entries []tocEntry) string {
	label := b.Translate("toc")

	var doc strings.Builder
	doc.WriteString(xmlDeclaration + "\n" + htmlDoctype + "\n")
	fmt.Fprintf(&doc, "<html xmlns=\"%s\" xmlns:epub=\"http://www.idpf.org/2007/ops\">\n", xhtmlNamespace)
	fmt.Fprintf(&doc, "  <head>\n    <title>%s</title>\n  </head>\n  <body>\n", htmlutil.EscapeString(label))
	fmt.Fprintf(&doc, "    <nav epub:type=\"toc\" id=\"toc\">\n      <h1>%s</h1>\n", htmlutil.EscapeString(label))
	writeNavList(&doc, entries, "      ")
	doc.WriteString("    </nav>\n  </body>\n</html>\n")
	return doc.String()
}

func writeNavList(doc *strings.Builder, entries []tocEntry, indent string) {
	doc.WriteString(indent + "<ol>\n")
	for _, e := range entries {
		fmt.Fprintf(doc, "%s  <li><a href=\"%s\">%s</a>", indent, htmlutil.EscapeString(e.Href), htmlutil.EscapeString(e.Label))
		if len(e.Children) > 0 {
			doc.WriteString("\n")
			writeNavList(doc, e.Children, indent+"    ")
			doc.WriteString(indent + "  </li>\n")
			continue
		}
		doc.WriteString("</li>\n")
	}
	doc.WriteString(indent + "</ol>\n")
}
