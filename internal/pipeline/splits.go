package pipeline

import (
	"context"
	"path/filepath"

	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/dataset"
	"github.com/zcline91/spam-filter/internal/record"
	"github.com/zcline91/spam-filter/internal/storage"
)

// Splits is a cleaned record set partitioned into train and test.
type Splits struct {
	Train record.Set
	Test  record.Set
}

// Set returns the records of p.
func (s Splits) Set(p dataset.Partition) record.Set {
	if p == dataset.Test {
		return s.Test
	}
	return s.Train
}

// LoadSplits loads the named corpus CSVs in corpusDir (every known corpus
// when corpora is empty), cleans the result and partitions it with ratio.
func (e *Env) LoadSplits(ctx context.Context, corpusDir string, corpora []string, ratio float64) (Splits, error) {
	if err := dataset.ValidateRatio(ratio); err != nil {
		return Splits{}, err
	}
	sources, err := dataset.KnownSources(corpusDir, corpora)
	if err != nil {
		return Splits{}, err
	}
	all, err := dataset.LoadCorpora(sources)
	if err != nil {
		return Splits{}, err
	}
	e.logger().Info("loaded corpora", "corpora", len(sources), "records", len(all))
	if err := ctx.Err(); err != nil {
		return Splits{}, err
	}

	cleaned := dataset.CorpusPrep(e.Detector, e.Config.Language.Target).Run(all)
	train, test, err := dataset.Split(cleaned, ratio)
	if err != nil {
		return Splits{}, err
	}
	e.logger().Info("split records", "train", len(train), "test", len(test), "ratio", ratio)
	return Splits{Train: train, Test: test}, nil
}

// ClassesOptions configures WriteClasses.
type ClassesOptions struct {
	CorpusDir string
	// Corpora restricts loading to these corpus names; empty means all.
	Corpora []string
	OutDir  string
	Ratio   float64
	Force   bool
}

// WriteClasses writes train_classes.csv and test_classes.csv.
func (e *Env) WriteClasses(ctx context.Context, opts ClassesOptions) (Splits, error) {
	trainPath := filepath.Join(opts.OutDir, dataset.TrainClassesFile)
	testPath := filepath.Join(opts.OutDir, dataset.TestClassesFile)
	if err := corpus.CheckOutputs([]string{trainPath, testPath}, opts.Force); err != nil {
		return Splits{}, err
	}

	var splits Splits
	err := e.track(ctx, storage.KindClasses, "", opts.CorpusDir, opts.OutDir, func() (outcome, error) {
		var err error
		splits, err = e.LoadSplits(ctx, opts.CorpusDir, opts.Corpora, opts.Ratio)
		if err != nil {
			return outcome{}, err
		}
		n := len(splits.Train) + len(splits.Test)
		out := outcome{counts: storage.Counts{Total: n, Extracted: n}}
		if err := dataset.WriteClasses(trainPath, splits.Train); err != nil {
			return out, err
		}
		if err := dataset.WriteClasses(testPath, splits.Test); err != nil {
			return out, err
		}
		return out, nil
	})
	return splits, err
}
