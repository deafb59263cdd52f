// Package corpus reads the public spam corpora. A Provider verifies a corpus
// root against its declared layout and lists the labelled emails in it; the
// Extractor turns that list into rows of subject and body text.
package corpus

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zcline91/spam-filter/internal/email"
	"github.com/zcline91/spam-filter/internal/record"
)

// Kind tags a corpus layout family.
type Kind string

const (
	Enron Kind = "enron"
	Ling  Kind = "ling"
	Trec  Kind = "trec"
)

// Kinds lists the known layouts in the order discovery tries them.
func Kinds() []Kind {
	return []Kind{Enron, Ling, Trec}
}

// IndexEntry is one email of a corpus, relative to its root.
type IndexEntry struct {
	Label record.Label
	Path  string
}

// Provider is implemented by one type per corpus layout.
type Provider interface {
	Kind() Kind
	Root() string
	Schema() Schema
	// Charsets is the allow-list used when extracting this corpus.
	Charsets() email.Charsets
	// Index reads the corpus' pre-built index.
	Index() ([]IndexEntry, error)
}

// Options configures provider construction.
type Options struct {
	// IndexDir holds the pre-built index files of corpora that do not ship
	// one (enron_index.csv, ling_index.csv).
	IndexDir string
}

// UnknownTypeError reports a corpus type tag with no provider.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	names := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return fmt.Sprintf("unknown corpus type %q (known: %s)", e.Type, strings.Join(names, ", "))
}

// New selects the provider for kind and verifies root against its schema.
// A root that does not match fails with a *StructureError before anything
// is read.
func New(kind Kind, root string, opts Options) (Provider, error) {
	var p Provider
	switch kind {
	case Enron:
		p = newEnron(root, opts)
	case Ling:
		p = newLing(root, opts)
	case Trec:
		p = newTrec(root)
	default:
		return nil, &UnknownTypeError{Type: string(kind)}
	}
	if err := p.Schema().Verify(root); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseKind validates a type tag.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &UnknownTypeError{Type: s}
}

// IsUnknownType reports whether err is an UnknownTypeError.
func IsUnknownType(err error) bool {
	var ut *UnknownTypeError
	return errors.As(err, &ut)
}
