// Package pipeline wires the corpus, dataset and document cache packages
// into the batch operations exposed by the CLI.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zcline91/spam-filter/internal/config"
	"github.com/zcline91/spam-filter/internal/dataset"
	"github.com/zcline91/spam-filter/internal/doccache"
	"github.com/zcline91/spam-filter/internal/features"
	"github.com/zcline91/spam-filter/internal/langdetect"
	"github.com/zcline91/spam-filter/internal/storage"
)

// RunRecorder records pipeline runs. *storage.Store implements it.
type RunRecorder interface {
	StartRun(ctx context.Context, kind, corpus, source, output string) (storage.Run, error)
	FinishRun(ctx context.Context, id string, counts storage.Counts, charsets []storage.CharsetCount, runErr error) error
}

// Env holds the long-lived collaborators shared by every operation. Build
// it once per process.
type Env struct {
	Config   config.Config
	Detector dataset.LanguageDetector
	Engine   doccache.Engine
	Runs     RunRecorder // optional
	Logger   *slog.Logger
}

// NewEnv builds an Env with the lingua language detector and the
// bag-of-words document engine.
func NewEnv(cfg config.Config, runs RunRecorder) (*Env, error) {
	if !langdetect.Known(cfg.Language.Target) {
		return nil, fmt.Errorf("language.target: unknown language code %q", cfg.Language.Target)
	}
	det, err := langdetect.New(langdetect.Options{})
	if err != nil {
		return nil, fmt.Errorf("building language detector: %w", err)
	}
	return &Env{
		Config:   cfg,
		Detector: det,
		Engine: features.NewBagOfWords(features.Options{
			BatchSize: cfg.Features.BatchSize,
			Workers:   cfg.Features.Workers,
		}),
		Runs:   runs,
		Logger: slog.Default(),
	}, nil
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// outcome is what a tracked operation reports to the run ledger.
type outcome struct {
	counts   storage.Counts
	charsets []storage.CharsetCount
}

// track runs fn and records it in the ledger. Ledger failures are logged
// and never fail the operation itself.
func (e *Env) track(ctx context.Context, kind, corpusName, source, output string, fn func() (outcome, error)) error {
	if e.Runs == nil {
		_, err := fn()
		return err
	}
	run, err := e.Runs.StartRun(ctx, kind, corpusName, source, output)
	if err != nil {
		e.logger().Warn("could not record run", "kind", kind, "error", err)
		_, err := fn()
		return err
	}
	out, runErr := fn()
	if err := e.Runs.FinishRun(context.WithoutCancel(ctx), run.ID, out.counts, out.charsets, runErr); err != nil {
		e.logger().Warn("could not record run outcome", "run", run.ID, "error", err)
	}
	return runErr
}
