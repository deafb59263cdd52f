package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/storage"
)

// ExtractOptions configures ExtractCorpora.
type ExtractOptions struct {
	IndexDir string
	Force    bool
}

// ExtractCorpora extracts every job into its output CSV. All outputs are
// checked for conflicts before any corpus is read. A corpus that fails
// (for instance on a structure mismatch) does not stop the others; its
// error is returned together with the rest.
func (e *Env) ExtractCorpora(ctx context.Context, jobs []corpus.Job, opts ExtractOptions) ([]corpus.Report, error) {
	outputs := make([]string, len(jobs))
	for i, j := range jobs {
		outputs[i] = j.Output
	}
	if err := corpus.CheckOutputs(outputs, opts.Force); err != nil {
		return nil, err
	}

	x := corpus.NewExtractor(e.Config.Extract.Workers)
	var reports []corpus.Report
	var errs []error
	for _, job := range jobs {
		var report corpus.Report
		err := e.track(ctx, storage.KindExtract, corpusName(job), job.Root, job.Output, func() (outcome, error) {
			p, err := corpus.New(job.Kind, job.Root, corpus.Options{IndexDir: opts.IndexDir})
			if err != nil {
				return outcome{}, err
			}
			res, err := x.Run(ctx, p)
			if err != nil {
				return outcome{}, err
			}
			report = res.Report
			out := reportOutcome(res.Report)
			if err := corpus.WriteCSV(job.Output, res.Rows); err != nil {
				return out, err
			}
			e.logger().Info("wrote corpus", "output", job.Output, "rows", len(res.Rows))
			return out, nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return reports, err
			}
			e.logger().Error("corpus extraction failed", "root", job.Root, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", job.Root, err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

func corpusName(job corpus.Job) string {
	if c, ok := corpus.CorpusFor(job.Root); ok {
		return c.Name
	}
	return string(job.Kind)
}

func reportOutcome(r corpus.Report) outcome {
	out := outcome{counts: storage.Counts{
		Total:       r.Total,
		Extracted:   r.Extracted,
		Missing:     r.Missing,
		Encoding:    r.Encoding,
		Unsupported: r.Unsupported,
	}}
	for _, c := range r.RejectedCharsets {
		out.charsets = append(out.charsets, storage.CharsetCount{Charset: c.Charset, Count: c.Count})
	}
	return out
}
