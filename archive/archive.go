// Package archive builds the in-memory ZIP offered to the user at the
// end of a batch lyrics download.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type entry struct {
	name    string
	content []byte
}

// Builder accumulates named text entries and serializes them into a
// single ZIP blob. Entries keep insertion order; adding an existing
// name replaces its content in place (callers avoid collisions through
// track numbering).
type Builder struct {
	entries []entry
	index   map[string]int
}

// NewBuilder returns an empty archive builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Add stores content under name. Last write wins for duplicate names.
func (b *Builder) Add(name string, content []byte) {
	if i, ok := b.index[name]; ok {
		b.entries[i].content = content
		return
	}
	b.index[name] = len(b.entries)
	b.entries = append(b.entries, entry{name: name, content: content})
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Names returns entry names in insertion order.
func (b *Builder) Names() []string {
	names := make([]string, len(b.entries))
	for i, e := range b.entries {
		names[i] = e.name
	}
	return names
}

// Serialize writes all entries into a ZIP archive and returns its bytes.
// An empty builder yields a valid, empty archive.
func (b *Builder) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range b.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create archive entry %q: %w", e.name, err)
		}
		if _, err := w.Write(e.content); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write archive entry %q: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
