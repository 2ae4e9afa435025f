package epub

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// uniqueIDRef is the element id carried by the identifier metadata entry and
// referenced by the package element's unique-identifier attribute.
const uniqueIDRef = "BookID"

// dcElements lists the bare Dublin Core element names accepted by Set.
// Bare keys in this set are normalized to their dc: prefixed form.
var dcElements = map[string]bool{
	"title": true, "creator": true, "contributor": true, "language": true,
	"identifier": true, "date": true, "publisher": true, "description": true,
	"subject": true, "rights": true, "source": true, "type": true,
	"format": true, "relation": true, "coverage": true,
}

// MetadataEntry is a single book-level descriptive field.
type MetadataEntry struct {
	Key   string
	Value string
	Attrs map[string]string
}

// MetadataStore is an ordered key registry for book metadata. Keys are
// logically unique: re-setting a key overwrites value and attributes while
// keeping the original registration position.
type MetadataStore struct {
	entries []MetadataEntry
	index   map[string]int
}

func NewMetadataStore() *MetadataStore {
	return &MetadataStore{index: make(map[string]int)}
}

// Set inserts or overwrites a metadata entry; last write wins. Attempts to
// blank the identifier are ignored so the identifier field is never empty.
func (m *MetadataStore) Set(key, value string, attrs map[string]string) {
	key = canonicalKey(key)
	if key == "dc:identifier" {
		if value == "" {
			return
		}
		if attrs == nil {
			attrs = map[string]string{}
		}
		if _, ok := attrs["id"]; !ok {
			attrs["id"] = uniqueIDRef
		}
	}

	entry := MetadataEntry{Key: key, Value: value, Attrs: attrs}
	if i, ok := m.index[key]; ok {
		m.entries[i] = entry
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, entry)
}

// Get returns the entry for a key, if registered.
func (m *MetadataStore) Get(key string) (MetadataEntry, bool) {
	if i, ok := m.index[canonicalKey(key)]; ok {
		return m.entries[i], true
	}
	return MetadataEntry{}, false
}

// Value returns the value for a key, or "" if unset.
func (m *MetadataStore) Value(key string) string {
	e, _ := m.Get(key)
	return e.Value
}

// Entries returns the entries in registration order.
func (m *MetadataStore) Entries() []MetadataEntry {
	out := make([]MetadataEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// render emits one element per entry in registration order. Dublin Core
// keys become dc: elements; anything else becomes a meta name/content pair.
func (m *MetadataStore) render(b *strings.Builder, indent string) {
	for _, e := range m.entries {
		if strings.HasPrefix(e.Key, "dc:") {
			fmt.Fprintf(b, "%s<%s%s>%s</%s>\n",
				indent, e.Key, renderAttrs(e.Attrs), html.EscapeString(e.Value), e.Key)
			continue
		}
		fmt.Fprintf(b, "%s<meta name=\"%s\" content=\"%s\"%s/>\n",
			indent, html.EscapeString(e.Key), html.EscapeString(e.Value), renderAttrs(e.Attrs))
	}
}

// canonicalKey lowercases the key and prefixes known Dublin Core names.
func canonicalKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if strings.HasPrefix(k, "dc:") {
		return k
	}
	if dcElements[k] {
		return "dc:" + k
	}
	return k
}

// renderAttrs serializes an attribute set as key="value" pairs, sorted by
// name for deterministic output.
func renderAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=\"%s\"", k, html.EscapeString(attrs[k]))
	}
	return b.String()
}
