package epub

import (
	"fmt"
	"strings"
)

// Fixed directory skeleton of the package. All generated content lives under
// OEBPS/ with text, stylesheets and images in their own subdirectories.
const (
	metaInfDir = "META-INF"
	rootDir    = "OEBPS"
	textDir    = "Text"
	stylesDir  = "Styles"
	imagesDir  = "Images"

	containerFile = metaInfDir + "/container.xml"
	packageFile   = "content.opf"
	ncxFile       = "toc.ncx"
	navFile       = "nav.xhtml"
	coverPageFile = "cover.xhtml"

	// Relative prefixes as seen from documents inside Text/.
	stylesHrefPrefix = "../Styles/"
	imagesHrefPrefix = "../Images/"
)

func chapterFileName(volumeIdx, chapterIdx int) string {
	return fmt.Sprintf("chapter-%d-%d.xhtml", volumeIdx, chapterIdx)
}

func volumePageFileName(volumeIdx int) string {
	return fmt.Sprintf("volume-%d.xhtml", volumeIdx)
}

// textPath returns the archive path of a Text/ file relative to OEBPS/.
func textPath(name string) string {
	return textDir + "/" + name
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
