package epub

import (
	"sort"
)

// ContentKind describes how chapter content is interpreted.
type ContentKind int

const (
	// KindText is plain prose; paragraphs are derived from blank lines.
	KindText ContentKind = iota
	// KindHTML is loosely-specified HTML markup.
	KindHTML
	// KindXHTML is markup expected to already be well-formed XML.
	KindXHTML
)

// TitleMode controls insertion of a generated chapter heading.
type TitleMode int

const (
	// TitleAuto inserts a heading only when the body has none.
	TitleAuto TitleMode = iota
	// TitleAlways inserts a heading unconditionally.
	TitleAlways
	// TitleNever never inserts a heading.
	TitleNever
)

// VolumePageType selects the content of a generated volume page.
type VolumePageType int

const (
	// PageNavigator lists the volume's chapters as links.
	PageNavigator VolumePageType = iota
	// PageBlank carries only the volume title.
	PageBlank
)

// VolumeOptions configures how a volume is rendered.
type VolumeOptions struct {
	AlwaysShowTitle bool
	CreatePage      bool
	PageType        VolumePageType
}

// Volume is an ordered collection of chapters. Ordering is by index value,
// not insertion time.
type Volume struct {
	Index    int
	Title    string
	Options  VolumeOptions
	chapters map[int]*Chapter
}

// Chapter is a single content document within a volume.
type Chapter struct {
	Volume       int
	Index        int
	Title        string
	Content      string
	Kind         ContentKind
	UseGlobalCSS bool
	Stylesheets  []int
	TitleMode    TitleMode
}

// ContentModel holds volumes keyed by integer index; render order is always
// ascending index regardless of insertion order.
type ContentModel struct {
	volumes map[int]*Volume
}

func newContentModel() *ContentModel {
	return &ContentModel{volumes: make(map[int]*Volume)}
}

// AddVolume creates or replaces a volume. Last write wins; no merge.
func (m *ContentModel) AddVolume(idx int, title string, opts VolumeOptions) {
	m.volumes[idx] = &Volume{
		Index:    idx,
		Title:    title,
		Options:  opts,
		chapters: make(map[int]*Chapter),
	}
}

// addChapter stores a chapter, implicitly creating its volume when it was
// never registered. The chapter index is unique within its volume; last
// write wins.
func (m *ContentModel) addChapter(ch *Chapter) {
	v, ok := m.volumes[ch.Volume]
	if !ok {
		v = &Volume{Index: ch.Volume, chapters: make(map[int]*Chapter)}
		m.volumes[ch.Volume] = v
	}
	v.chapters[ch.Index] = ch
}

// Volumes returns the volumes sorted by index.
func (m *ContentModel) Volumes() []*Volume {
	keys := make([]int, 0, len(m.volumes))
	for k := range m.volumes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]*Volume, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.volumes[k])
	}
	return out
}

// Chapters returns the volume's chapters sorted by index.
func (v *Volume) Chapters() []*Chapter {
	keys := make([]int, 0, len(v.chapters))
	for k := range v.chapters {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]*Chapter, 0, len(keys))
	for _, k := range keys {
		out = append(out, v.chapters[k])
	}
	return out
}
