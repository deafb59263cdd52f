// Package dataset loads extracted corpora into one record set, cleans it and
// partitions it into train and test subsets.
package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/record"
)

// Source is one corpus artifact and the corpus name its rows are tagged with.
type Source struct {
	Name string
	Path string
}

// MissingCorpusError reports requested corpus artifacts absent from Dir.
type MissingCorpusError struct {
	Dir     string
	Missing []string // corpus names
}

func (e *MissingCorpusError) Error() string {
	return fmt.Sprintf("corpus files missing from %s: %s", e.Dir, strings.Join(e.Missing, ", "))
}

// IsMissingCorpus reports whether err is a MissingCorpusError.
func IsMissingCorpus(err error) bool {
	var mc *MissingCorpusError
	return errors.As(err, &mc)
}

// KnownSources returns, in load order, the artifacts in dir of the named
// corpora, or of every known corpus when names is empty. A requested
// artifact that is absent is an error: loading a different set of corpora
// changes every record identifier downstream.
func KnownSources(dir string, names []string) ([]Source, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := knownCorpus(n); !ok {
			return nil, fmt.Errorf("unknown corpus %q", n)
		}
		want[n] = true
	}

	var sources []Source
	var missing []string
	for _, c := range corpus.KnownCorpora {
		if len(want) > 0 && !want[c.Name] {
			continue
		}
		p := filepath.Join(dir, c.File)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, c.Name)
				continue
			}
			return nil, err
		}
		sources = append(sources, Source{Name: c.Name, Path: p})
	}
	if len(missing) > 0 {
		return nil, &MissingCorpusError{Dir: dir, Missing: missing}
	}
	return sources, nil
}

func knownCorpus(name string) (corpus.NamedCorpus, bool) {
	for _, c := range corpus.KnownCorpora {
		if c.Name == name {
			return c, true
		}
	}
	return corpus.NamedCorpus{}, false
}

// LoadCorpora reads every source and concatenates the rows in order. Record
// identifiers must be unique across the whole set.
func LoadCorpora(sources []Source) (record.Set, error) {
	var all record.Set
	seen := make(map[record.ID]struct{})
	for _, src := range sources {
		set, err := LoadCorpus(src)
		if err != nil {
			return nil, err
		}
		for _, r := range set {
			if _, dup := seen[r.ID]; dup {
				return nil, fmt.Errorf("duplicate record %s", r.ID)
			}
			seen[r.ID] = struct{}{}
		}
		all = append(all, set...)
	}
	return all, nil
}

// LoadCorpus reads one artifact written by corpus.WriteCSV, unescaping
// subject and body. Empty subject and body fields load as null.
func LoadCorpus(src Source) (record.Set, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", src.Name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(corpus.Columns)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", src.Path, err)
	}
	for i, col := range corpus.Columns {
		if header[i] != col {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", src.Path, i+1, header[i], col)
		}
	}

	var set record.Set
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Path, err)
		}
		label, err := record.ParseLabel(row[1])
		if err != nil {
			line, _ := r.FieldPos(1)
			return nil, fmt.Errorf("%s line %d: %w", src.Path, line, err)
		}
		set = append(set, record.Record{
			ID:      record.ID{Corpus: src.Name, Path: row[0]},
			Label:   label,
			Subject: nullable(corpus.UnescapeField(row[2])),
			Body:    nullable(corpus.UnescapeField(row[3])),
		})
	}
	return set, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return record.Valid(s)
}
