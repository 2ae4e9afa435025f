package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

const (
	// MimetypeEntry is the mandatory first archive entry.
	MimetypeEntry = "mimetype"
	// MediaType is the literal package media-type string.
	MediaType = "application/epub+zip"
)

var errMimetypeFirst = errors.New("mimetype must be the first archive entry")

// PackageWriter assembles generated and binary files into the final archive.
// The mimetype marker is always the first entry and is stored uncompressed;
// every later entry uses deflate. The writer performs no validation beyond
// ordering and compression mode.
type PackageWriter struct {
	zw            *zip.Writer
	wroteMimetype bool
}

func NewPackageWriter(w io.Writer) *PackageWriter {
	return &PackageWriter{zw: zip.NewWriter(w)}
}

// WriteMimetype writes the uncompressed mimetype marker. It must be called
// before any other entry.
func (p *PackageWriter) WriteMimetype() error {
	if p.wroteMimetype {
		return errors.New("mimetype already written")
	}
	fw, err := p.zw.CreateHeader(&zip.FileHeader{Name: MimetypeEntry, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to create mimetype entry: %w", err)
	}
	if _, err := fw.Write([]byte(MediaType)); err != nil {
		return fmt.Errorf("failed to write mimetype entry: %w", err)
	}
	p.wroteMimetype = true
	return nil
}

// WriteFile adds a compressed entry under the given archive path.
func (p *PackageWriter) WriteFile(name string, data []byte) error {
	if !p.wroteMimetype {
		return errMimetypeFirst
	}
	fw, err := p.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// Close finalizes the archive.
func (p *PackageWriter) Close() error {
	return p.zw.Close()
}
