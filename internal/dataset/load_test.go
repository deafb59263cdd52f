package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/record"
)

func TestLoadCorpora(t *testing.T) {
	dir := t.TempDir()
	if err := corpus.WriteCSV(filepath.Join(dir, "enron.csv"), []corpus.Row{
		{Path: "raw/BG/1.txt", Label: record.Spam, Subject: "buy", Body: ""},
		{Path: "raw/GP/2.txt", Label: record.Ham, Subject: "", Body: "hello,\n\"world\""},
	}); err != nil {
		t.Fatal(err)
	}
	if err := corpus.WriteCSV(filepath.Join(dir, "trec06p.csv"), []corpus.Row{
		{Path: "raw/BG/1.txt", Label: record.Ham, Subject: "same path", Body: "different corpus"},
	}); err != nil {
		t.Fatal(err)
	}

	sources, err := KnownSources(dir, []string{"trec06", "enron"})
	if err != nil {
		t.Fatalf("KnownSources: %v", err)
	}
	if len(sources) != 2 || sources[0].Name != "enron" || sources[1].Name != "trec06" {
		t.Fatalf("sources = %+v", sources)
	}

	set, err := LoadCorpora(sources)
	if err != nil {
		t.Fatalf("LoadCorpora: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("got %d records", len(set))
	}
	if set[0].ID != (record.ID{Corpus: "enron", Path: "raw/BG/1.txt"}) || set[0].Label != record.Spam {
		t.Errorf("record 0 = %+v", set[0])
	}
	if set[0].Body.Valid {
		t.Error("empty body should load as null")
	}
	if set[1].Subject.Valid || set[1].Body.String != "hello,\n\"world\"" {
		t.Errorf("record 1 = %+v", set[1])
	}
	if set[2].ID.Corpus != "trec06" {
		t.Errorf("record 2 corpus = %q", set[2].ID.Corpus)
	}
}

func TestLoadCorporaDuplicateID(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "enron.csv")
	if err := corpus.WriteCSV(p, []corpus.Row{{Path: "a"}, {Path: "a"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpora([]Source{{Name: "enron", Path: p}}); err == nil {
		t.Fatal("expected duplicate identifier error")
	}
}

func TestKnownSourcesMissing(t *testing.T) {
	dir := t.TempDir()
	if err := corpus.WriteCSV(filepath.Join(dir, "enron.csv"), nil); err != nil {
		t.Fatal(err)
	}

	_, err := KnownSources(dir, nil)
	var mc *MissingCorpusError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingCorpusError, got %v", err)
	}
	if want := []string{"ling", "trec05", "trec06", "trec07"}; !equalStrings(mc.Missing, want) {
		t.Errorf("Missing = %v, want %v", mc.Missing, want)
	}

	if _, err := KnownSources(dir, []string{"enron", "trec07"}); !IsMissingCorpus(err) {
		t.Errorf("named subset with a missing file: got %v", err)
	}
	if _, err := KnownSources(dir, []string{"spamassassin"}); err == nil || IsMissingCorpus(err) {
		t.Errorf("unknown corpus name: got %v", err)
	}

	sources, err := KnownSources(dir, []string{"enron"})
	if err != nil || len(sources) != 1 || sources[0].Name != "enron" {
		t.Errorf("subset = %+v, %v", sources, err)
	}
}

func TestLoadCorpusKeepsCarriageReturns(t *testing.T) {
	p := filepath.Join(t.TempDir(), "trec07p.csv")
	rows := []corpus.Row{
		{Path: "data/inmail.1", Label: record.Spam, Subject: `C:\temp\r`, Body: "a\r\nb\r"},
		{Path: "data/inmail.2", Label: record.Ham, Subject: "x", Body: "line one\r\nline two\r\n"},
	}
	if err := corpus.WriteCSV(p, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	set, err := LoadCorpus(Source{Name: "trec07", Path: p})
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(set) != len(rows) {
		t.Fatalf("got %d records", len(set))
	}
	for i, r := range rows {
		if set[i].Subject.String != r.Subject || set[i].Body.String != r.Body {
			t.Errorf("record %d = %q / %q, want %q / %q", i, set[i].Subject.String, set[i].Body.String, r.Subject, r.Body)
		}
	}
}

func TestLoadCorpusBadHeader(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.csv")
	if err := os.WriteFile(p, []byte("a,b,c,d\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpus(Source{Name: "x", Path: p}); err == nil {
		t.Fatal("expected header error")
	}
}

func TestClassesRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), TrainClassesFile)
	set := record.Set{
		{ID: record.ID{Corpus: "ling", Path: "bare/part1/a.txt"}, Label: record.Spam, Body: record.Valid("ignored")},
		{ID: record.ID{Corpus: "trec07", Path: "data/inmail.9"}, Label: record.Ham},
	}
	if err := WriteClasses(p, set); err != nil {
		t.Fatalf("WriteClasses: %v", err)
	}
	got, err := ReadClasses(p)
	if err != nil {
		t.Fatalf("ReadClasses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d", len(got))
	}
	for i := range set {
		if got[i].ID != set[i].ID || got[i].Label != set[i].Label {
			t.Errorf("record %d = %+v", i, got[i])
		}
		if got[i].Body.Valid {
			t.Errorf("record %d carries text", i)
		}
	}
}
