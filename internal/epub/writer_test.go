package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPackageWriter_MimetypeFirstAndStored(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPackageWriter(&buf)
	if err := pw.WriteMimetype(); err != nil {
		t.Fatalf("WriteMimetype failed: %v", err)
	}
	if err := pw.WriteFile("META-INF/container.xml", []byte(renderContainer())); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := pw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entry count = %d, want 2", len(zr.File))
	}

	first := zr.File[0]
	if first.Name != MimetypeEntry {
		t.Errorf("first entry = %q, want %q", first.Name, MimetypeEntry)
	}
	if first.Method != zip.Store {
		t.Errorf("mimetype method = %d, want uncompressed (Store)", first.Method)
	}
	rc, err := first.Open()
	if err != nil {
		t.Fatalf("failed to open mimetype entry: %v", err)
	}
	content, _ := io.ReadAll(rc)
	rc.Close()
	if string(content) != MediaType {
		t.Errorf("mimetype content = %q, want %q", content, MediaType)
	}

	if zr.File[1].Method != zip.Deflate {
		t.Errorf("second entry method = %d, want Deflate", zr.File[1].Method)
	}
}

func TestPackageWriter_RejectsEntriesBeforeMimetype(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPackageWriter(&buf)
	if err := pw.WriteFile("OEBPS/content.opf", []byte("x")); err == nil {
		t.Error("WriteFile before mimetype succeeded, want error")
	}
}

func TestPackageWriter_RejectsDuplicateMimetype(t *testing.T) {
	var buf bytes.Buffer
	pw := NewPackageWriter(&buf)
	if err := pw.WriteMimetype(); err != nil {
		t.Fatalf("WriteMimetype failed: %v", err)
	}
	if err := pw.WriteMimetype(); err == nil {
		t.Error("second WriteMimetype succeeded, want error")
	}
}

func TestBookSave_ArchiveLayout(t *testing.T) {
	b := buildOPFTestBook(t)

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}

	if zr.File[0].Name != MimetypeEntry || zr.File[0].Method != zip.Store {
		t.Errorf("first entry = %q method %d, want uncompressed mimetype", zr.File[0].Name, zr.File[0].Method)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	want := []string{
		"mimetype",
		"META-INF/container.xml",
		"OEBPS/content.opf",
		"OEBPS/toc.ncx",
		"OEBPS/nav.xhtml",
		"OEBPS/Styles/style0.css",
		"OEBPS/Styles/extra.css",
		"OEBPS/Images/image0001.png",
		"OEBPS/Images/cover.jpg",
		"OEBPS/Text/cover.xhtml",
		"OEBPS/Text/volume-1.xhtml",
		"OEBPS/Text/chapter-1-1.xhtml",
		"OEBPS/Text/chapter-1-2.xhtml",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("archive missing %s (has %v)", name, keys(names))
		}
	}
}

func TestBookSave_FreezesModel(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	addChapter(t, b, 1, 1, "C1")

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	err := b.AddChapter(ChapterParams{Volume: 1, Index: 2, Title: "Late", Content: "x", Kind: KindText})
	if !errors.Is(err, ErrModelFrozen) {
		t.Errorf("AddChapter after Save = %v, want ErrModelFrozen", err)
	}
	if err := b.AddVolume(9, "Late", VolumeOptions{}); !errors.Is(err, ErrModelFrozen) {
		t.Errorf("AddVolume after Save = %v, want ErrModelFrozen", err)
	}
}

func TestBookSave_OmitsCoverEntriesWithoutCover(t *testing.T) {
	b := newTestBook(newFakeFetcher())
	addChapter(t, b, 1, 1, "C1")

	var buf bytes.Buffer
	if err := b.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	for _, f := range zr.File {
		if strings.Contains(f.Name, "cover") {
			t.Errorf("archive has cover entry %q although no cover was set", f.Name)
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
