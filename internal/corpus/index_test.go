package corpus

import (
	"path/filepath"
	"testing"

	"github.com/zcline91/spam-filter/internal/record"
)

func TestReadTrecIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	writeFile(t, path, "spam ../data/inmail.1\nham ../data/inmail.2\n\n")

	entries, err := readTrecIndex(path)
	if err != nil {
		t.Fatalf("readTrecIndex: %v", err)
	}
	want := []IndexEntry{
		{Label: record.Spam, Path: "data/inmail.1"},
		{Label: record.Ham, Path: "data/inmail.2"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestReadTrecIndexBadLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	writeFile(t, path, "junk ../data/inmail.1\n")
	if _, err := readTrecIndex(path); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestReadIndexCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ling_index.csv")
	writeFile(t, path, "spam,path\n1,bare/part1/spmsga1.txt\n0,bare/part1/3-1msg1.txt\n")

	entries, err := readIndexCSV(path)
	if err != nil {
		t.Fatalf("readIndexCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Label != record.Spam || entries[1].Label != record.Ham {
		t.Errorf("labels = %v, %v", entries[0].Label, entries[1].Label)
	}
	if entries[1].Path != "bare/part1/3-1msg1.txt" {
		t.Errorf("path = %q", entries[1].Path)
	}
}

func TestReadIndexCSVMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.csv")
	writeFile(t, path, "file,class\na,1\n")
	if _, err := readIndexCSV(path); err == nil {
		t.Fatal("expected header error")
	}
}
