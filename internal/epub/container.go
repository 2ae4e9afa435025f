package epub

// renderContainer emits the fixed container descriptor pointing readers at
// the package document.
func renderContainer() string {
	return xmlDeclaration + "\n" +
		`<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`
}
