package langdetect

import (
	"fmt"
	"testing"

	"github.com/zcline91/spam-filter/internal/dataset"
	"github.com/zcline91/spam-filter/internal/record"
)

func TestDetect(t *testing.T) {
	d, err := New(Options{Languages: []string{"en", "bn", "de", "es"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"This is a perfectly ordinary sentence written in the English language.", "en", true},
		{"ওহে বিশ্ব! আপনি কেমন আছেন?", "bn", true},
		{"Dies ist ein ganz gewöhnlicher Satz in deutscher Sprache.", "de", true},
		{"", "", false},
		{"12345 !!! ???", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Detect(tt.text)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Detect(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNewRejectsUnknownCode(t *testing.T) {
	if _, err := New(Options{Languages: []string{"en", "xx"}}); err == nil {
		t.Fatal("expected error for unknown code")
	}
	if _, err := New(Options{Languages: []string{"en"}}); err == nil {
		t.Fatal("expected error for a single language")
	}
}

func TestKnown(t *testing.T) {
	if !Known("EN") || !Known("bn") {
		t.Error("expected en and bn to be known")
	}
	if Known("zz") {
		t.Error("zz should be unknown")
	}
}

func TestLanguageFilterKeepsOnlyEnglish(t *testing.T) {
	d, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bodies := []*string{ptr("Hello World!"), ptr("ওহে বিশ্ব!"), ptr(" "), nil}
	var set record.Set
	for i, b := range bodies {
		r := record.Record{ID: record.ID{Corpus: "enron", Path: fmt.Sprintf("raw/%d.txt", i)}}
		if b != nil {
			r.Subject = record.Valid(*b)
			r.Body = record.Valid(*b)
		}
		set = append(set, r)
	}

	out := dataset.CorpusPrep(d, "en").Run(set)
	if len(out) != 1 || out[0].Body.String != "Hello World!" {
		t.Fatalf("kept %+v, want only Hello World!", out)
	}
}

func ptr(s string) *string { return &s }
