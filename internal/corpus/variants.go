package corpus

import (
	"path/filepath"

	"github.com/zcline91/spam-filter/internal/email"
)

type enronProvider struct {
	root     string
	indexDir string
	schema   Schema
}

func newEnron(root string, opts Options) *enronProvider {
	return &enronProvider{root: root, indexDir: opts.IndexDir, schema: builtinSchema(Enron)}
}

func (p *enronProvider) Kind() Kind     { return Enron }
func (p *enronProvider) Root() string   { return p.root }
func (p *enronProvider) Schema() Schema { return p.schema }

// The Enron mailboxes carry a noticeable amount of Greek mail.
func (p *enronProvider) Charsets() email.Charsets {
	return email.DefaultCharsets.With("iso-8859-7")
}

func (p *enronProvider) Index() ([]IndexEntry, error) {
	return readIndexCSV(filepath.Join(p.indexDir, "enron_index.csv"))
}

type lingProvider struct {
	root     string
	indexDir string
	schema   Schema
}

func newLing(root string, opts Options) *lingProvider {
	return &lingProvider{root: root, indexDir: opts.IndexDir, schema: builtinSchema(Ling)}
}

func (p *lingProvider) Kind() Kind               { return Ling }
func (p *lingProvider) Root() string             { return p.root }
func (p *lingProvider) Schema() Schema           { return p.schema }
func (p *lingProvider) Charsets() email.Charsets { return email.DefaultCharsets }

func (p *lingProvider) Index() ([]IndexEntry, error) {
	return readIndexCSV(filepath.Join(p.indexDir, "ling_index.csv"))
}

// trecProvider reads the index shipped inside the corpus itself.
type trecProvider struct {
	root   string
	schema Schema
}

func newTrec(root string) *trecProvider {
	return &trecProvider{root: root, schema: builtinSchema(Trec)}
}

func (p *trecProvider) Kind() Kind               { return Trec }
func (p *trecProvider) Root() string             { return p.root }
func (p *trecProvider) Schema() Schema           { return p.schema }
func (p *trecProvider) Charsets() email.Charsets { return email.DefaultCharsets }

func (p *trecProvider) Index() ([]IndexEntry, error) {
	return readTrecIndex(filepath.Join(p.root, "full", "index"))
}
