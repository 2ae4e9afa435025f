// Package bookfile loads a JSON book description and drives the packaging
// engine with it.
package bookfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuanying/novel2epub/internal/epub"
)

// Document is the on-disk book description.
type Document struct {
	Language    string       `json:"language"`
	Metadata    []Field      `json:"metadata"`
	Cover       string       `json:"cover"` // remote URL or local file path
	Stylesheets []Stylesheet `json:"stylesheets"`
	StyleMap    []MapEntry   `json:"styleMap"`
	Volumes     []Volume     `json:"volumes"`
}

// Field is a single metadata entry.
type Field struct {
	Key   string            `json:"key"`
	Value string            `json:"value"`
	Attrs map[string]string `json:"attrs"`
}

// Stylesheet registers an indexed stylesheet from inline content or a file.
type Stylesheet struct {
	Index    int    `json:"index"`
	File     string `json:"file"`
	Content  string `json:"content"`
	PathHint string `json:"pathHint"`
}

// MapEntry is one path-keyed stylesheet import.
type MapEntry struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

// Volume describes a volume and its chapters.
type Volume struct {
	Index           int       `json:"index"`
	Title           string    `json:"title"`
	AlwaysShowTitle bool      `json:"alwaysShowTitle"`
	CreatePage      bool      `json:"createPage"`
	PageType        string    `json:"pageType"` // "navigator" or "blank"
	Chapters        []Chapter `json:"chapters"`
}

// Chapter describes a chapter whose content comes inline or from a file.
type Chapter struct {
	Index        int    `json:"index"`
	Title        string `json:"title"`
	File         string `json:"file"`
	Content      string `json:"content"`
	Kind         string `json:"kind"`      // "text", "html" or "xhtml"
	UseGlobalCSS bool   `json:"useGlobalCss"`
	Stylesheets  []int  `json:"stylesheets"`
	TitleMode    string `json:"titleMode"` // "auto", "always" or "never"
}

// Load reads and parses a book description file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse book file: %w", err)
	}
	return &doc, nil
}

// Build registers the document's contents on the book. Relative file
// references are resolved against baseDir.
func (d *Document) Build(b *epub.Book, baseDir string) error {
	for _, f := range d.Metadata {
		if err := b.SetInfo(f.Key, f.Value, f.Attrs); err != nil {
			return err
		}
	}
	if d.Language != "" {
		if err := b.SetInfo("language", d.Language, nil); err != nil {
			return err
		}
	}

	for _, s := range d.Stylesheets {
		content := s.Content
		if s.File != "" {
			data, err := os.ReadFile(resolve(baseDir, s.File))
			if err != nil {
				return fmt.Errorf("failed to read stylesheet %d: %w", s.Index, err)
			}
			content = string(data)
		}
		if err := b.AddStylesheet(s.Index, content, s.PathHint); err != nil {
			return err
		}
	}

	if len(d.StyleMap) > 0 {
		entries := make([]epub.MapEntry, 0, len(d.StyleMap))
		for _, e := range d.StyleMap {
			entries = append(entries, epub.MapEntry{Path: e.Path, Source: e.Source})
		}
		if err := b.ImportStylesheetMap(entries); err != nil {
			return err
		}
	}

	if d.Cover != "" {
		if strings.HasPrefix(d.Cover, "http://") || strings.HasPrefix(d.Cover, "https://") {
			if err := b.SetCoverURL(d.Cover); err != nil {
				return err
			}
		} else {
			data, err := os.ReadFile(resolve(baseDir, d.Cover))
			if err != nil {
				return fmt.Errorf("failed to read cover: %w", err)
			}
			ext := strings.TrimPrefix(filepath.Ext(d.Cover), ".")
			if err := b.SetCoverBytes(data, ext); err != nil {
				return err
			}
		}
	}

	for _, v := range d.Volumes {
		pageType, err := parsePageType(v.PageType)
		if err != nil {
			return err
		}
		if err := b.AddVolume(v.Index, v.Title, epub.VolumeOptions{
			AlwaysShowTitle: v.AlwaysShowTitle,
			CreatePage:      v.CreatePage,
			PageType:        pageType,
		}); err != nil {
			return err
		}

		for _, c := range v.Chapters {
			content := c.Content
			if c.File != "" {
				data, err := os.ReadFile(resolve(baseDir, c.File))
				if err != nil {
					return fmt.Errorf("failed to read chapter %d.%d: %w", v.Index, c.Index, err)
				}
				content = string(data)
			}
			kind, err := parseKind(c.Kind)
			if err != nil {
				return err
			}
			titleMode, err := parseTitleMode(c.TitleMode)
			if err != nil {
				return err
			}
			if err := b.AddChapter(epub.ChapterParams{
				Volume:       v.Index,
				Index:        c.Index,
				Title:        c.Title,
				Content:      content,
				Kind:         kind,
				UseGlobalCSS: c.UseGlobalCSS,
				Stylesheets:  c.Stylesheets,
				TitleMode:    titleMode,
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func parseKind(s string) (epub.ContentKind, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return epub.KindText, nil
	case "html":
		return epub.KindHTML, nil
	case "xhtml":
		return epub.KindXHTML, nil
	}
	return 0, fmt.Errorf("unknown content kind %q", s)
}

func parseTitleMode(s string) (epub.TitleMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return epub.TitleAuto, nil
	case "always":
		return epub.TitleAlways, nil
	case "never":
		return epub.TitleNever, nil
	}
	return 0, fmt.Errorf("unknown title mode %q", s)
}

func parsePageType(s string) (epub.VolumePageType, error) {
	switch strings.ToLower(s) {
	case "", "navigator":
		return epub.PageNavigator, nil
	case "blank":
		return epub.PageBlank, nil
	}
	return 0, fmt.Errorf("unknown volume page type %q", s)
}
