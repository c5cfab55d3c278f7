package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("serialized bytes are not a valid zip: %v", err)
	}

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open entry %q: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read entry %q: %v", f.Name, err)
		}
		out[f.Name] = string(content)
	}
	return out
}

func TestSerializeEmptyArchive(t *testing.T) {
	b := NewBuilder()

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed on empty builder: %v", err)
	}

	entries := readZip(t, data)
	if len(entries) != 0 {
		t.Errorf("empty builder produced %d entries, want 0", len(entries))
	}
}

func TestAddAndSerialize(t *testing.T) {
	b := NewBuilder()
	b.Add("01. First Track.lrc", []byte("[00:01.00]hello"))
	b.Add("02. Second Track.lrc", []byte("[00:02.00]world"))

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	entries := readZip(t, data)
	if got := entries["01. First Track.lrc"]; got != "[00:01.00]hello" {
		t.Errorf("first entry = %q", got)
	}
	if got := entries["02. Second Track.lrc"]; got != "[00:02.00]world" {
		t.Errorf("second entry = %q", got)
	}
}

func TestDuplicateNameLastWriteWins(t *testing.T) {
	b := NewBuilder()
	b.Add("track.lrc", []byte("old"))
	b.Add("track.lrc", []byte("new"))

	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after duplicate add", b.Len())
	}

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	entries := readZip(t, data)
	if entries["track.lrc"] != "new" {
		t.Errorf("entry = %q, want %q", entries["track.lrc"], "new")
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	b := NewBuilder()
	b.Add("c.txt", []byte("3"))
	b.Add("a.txt", []byte("1"))
	b.Add("b.txt", []byte("2"))

	names := b.Names()
	want := []string{"c.txt", "a.txt", "b.txt"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}
}
