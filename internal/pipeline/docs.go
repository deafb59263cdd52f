package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zcline91/spam-filter/internal/dataset"
	"github.com/zcline91/spam-filter/internal/doccache"
	"github.com/zcline91/spam-filter/internal/record"
	"github.com/zcline91/spam-filter/internal/storage"
)

// Partitions and Fields list every value in the order caches are built.
var (
	Partitions = []dataset.Partition{dataset.Train, dataset.Test}
	Fields     = []record.Field{record.Body, record.Subject}
)

// CachePath returns the location of the document cache of one partition
// and field, such as <docsDir>/trainbody.
func CachePath(docsDir string, p dataset.Partition, f record.Field) string {
	return filepath.Join(docsDir, p.String()+string(f))
}

// DocsOptions configures BuildDocs.
type DocsOptions struct {
	OutDir     string
	Partitions []dataset.Partition
	Fields     []record.Field
	// Force rebuilds caches that already exist.
	Force bool
}

// BuildDocs builds, or loads and verifies, the document cache of every
// requested partition and field.
func (e *Env) BuildDocs(ctx context.Context, splits Splits, opts DocsOptions) error {
	for _, p := range opts.Partitions {
		set := splits.Set(p)
		for _, f := range opts.Fields {
			ix := doccache.At(CachePath(opts.OutDir, p, f))
			inputs := make([]doccache.Input, len(set))
			for i, r := range set {
				inputs[i] = doccache.Input{ID: r.ID, Text: r.Text(f)}
			}
			err := e.track(ctx, storage.KindDocs, "", p.String()+" "+string(f), ix.Path, func() (outcome, error) {
				docs, err := doccache.BuildOrLoad(ctx, ix, inputs, e.Engine, opts.Force, doccache.StoreOptions{
					MaxChunk: e.Config.Cache.MaxChunkSize,
				})
				n := len(docs)
				return outcome{counts: storage.Counts{Total: len(inputs), Extracted: n}}, err
			})
			if err != nil {
				return fmt.Errorf("%s %s documents: %w", p, f, err)
			}
		}
	}
	return nil
}

// Table is what the classifier consumes for one partition: per record, the
// subject and body documents and the label, all aligned by index.
type Table struct {
	IDs         []record.ID
	Labels      []record.Label
	SubjectDocs [][]byte
	BodyDocs    [][]byte
}

// Len is the number of records in t.
func (t Table) Len() int { return len(t.IDs) }

// LoadTrainTest reads the class files in classesDir and the four caches in
// docsDir. Each cache is verified against the identifiers of its class file.
func LoadTrainTest(ctx context.Context, classesDir, docsDir string) (train, test Table, err error) {
	train, err = loadTable(ctx, classesDir, docsDir, dataset.Train)
	if err != nil {
		return Table{}, Table{}, err
	}
	test, err = loadTable(ctx, classesDir, docsDir, dataset.Test)
	if err != nil {
		return Table{}, Table{}, err
	}
	return train, test, nil
}

func loadTable(ctx context.Context, classesDir, docsDir string, p dataset.Partition) (Table, error) {
	set, err := dataset.ReadClasses(filepath.Join(classesDir, dataset.ClassesFile(p)))
	if err != nil {
		return Table{}, err
	}
	t := Table{IDs: set.IDs(), Labels: set.Labels()}
	t.SubjectDocs, err = doccache.Load(ctx, doccache.At(CachePath(docsDir, p, record.Subject)), t.IDs)
	if err != nil {
		return Table{}, fmt.Errorf("%s subject documents: %w", p, err)
	}
	t.BodyDocs, err = doccache.Load(ctx, doccache.At(CachePath(docsDir, p, record.Body)), t.IDs)
	if err != nil {
		return Table{}, fmt.Errorf("%s body documents: %w", p, err)
	}
	return t, nil
}
