package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zcline91/spam-filter/internal/email"
	"github.com/zcline91/spam-filter/internal/record"
)

// Row is one successfully extracted email.
type Row struct {
	Path    string
	Label   record.Label
	Subject string
	Body    string
}

// CharsetCount is the number of emails rejected for one charset.
type CharsetCount struct {
	Charset string
	Count   int
}

// Report summarises an extraction pass.
type Report struct {
	Root        string
	Total       int
	Extracted   int
	Missing     int
	Encoding    int
	Unsupported int
	// RejectedCharsets is ranked by count, most frequent first.
	RejectedCharsets []CharsetCount
}

// Rejected is the number of index entries that produced no row.
func (r Report) Rejected() int {
	return r.Missing + r.Encoding + r.Unsupported
}

// Result is the output of Extractor.Run.
type Result struct {
	Rows   []Row
	Report Report
}

// MissingFileError reports an indexed email that could not be read.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// Extractor reads every indexed email of a corpus. Records are processed
// concurrently; rows keep index order.
type Extractor struct {
	workers int
	logger  *slog.Logger
}

// NewExtractor creates an Extractor running up to workers records at once.
// If workers is <= 0, it defaults to 8.
func NewExtractor(workers int) *Extractor {
	if workers <= 0 {
		workers = 8
	}
	return &Extractor{workers: workers, logger: slog.Default()}
}

type outcome struct {
	row Row
	err error
}

// Run extracts every entry p lists. Failures of single records are counted
// in the report and never abort the pass; only ctx cancellation or an
// unreadable index does.
func (x *Extractor) Run(ctx context.Context, p Provider) (Result, error) {
	entries, err := p.Index()
	if err != nil {
		return Result{}, fmt.Errorf("reading %s index: %w", p.Kind(), err)
	}
	x.logger.Info("extracting corpus", "kind", p.Kind(), "root", p.Root(), "emails", len(entries))

	mx := email.NewExtractor(p.Charsets())
	outcomes := make([]outcome, len(entries))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)

	for i, entry := range entries {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = extractOne(mx, p.Root(), entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Report: Report{Root: p.Root(), Total: len(entries)}}
	rejected := make(map[string]int)
	for i, o := range outcomes {
		if o.err == nil {
			res.Rows = append(res.Rows, o.row)
			continue
		}
		x.logger.Debug("email not extracted", "path", entries[i].Path, "error", o.err)
		var missing *MissingFileError
		switch {
		case errors.As(o.err, &missing):
			res.Report.Missing++
		case email.IsEncodingError(o.err):
			res.Report.Encoding++
			if cs, ok := email.RejectedCharset(o.err); ok {
				rejected[cs]++
			}
		default:
			res.Report.Unsupported++
		}
	}
	res.Report.Extracted = len(res.Rows)
	res.Report.RejectedCharsets = rankCharsets(rejected)

	x.logSummary(res.Report)
	return res, nil
}

func extractOne(mx *email.Extractor, root string, entry IndexEntry) outcome {
	if !filepath.IsLocal(filepath.FromSlash(entry.Path)) {
		return outcome{err: &MissingFileError{Path: entry.Path, Err: errors.New("path escapes corpus root")}}
	}
	full := filepath.Join(root, filepath.FromSlash(entry.Path))
	raw, err := os.ReadFile(full)
	if err != nil {
		return outcome{err: &MissingFileError{Path: full, Err: err}}
	}
	msg, err := mx.ExtractBytes(raw)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{row: Row{
		Path:    entry.Path,
		Label:   entry.Label,
		Subject: msg.Subject,
		Body:    msg.Body,
	}}
}

func rankCharsets(counts map[string]int) []CharsetCount {
	ranked := make([]CharsetCount, 0, len(counts))
	for cs, n := range counts {
		ranked = append(ranked, CharsetCount{Charset: cs, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Charset < ranked[j].Charset
	})
	return ranked
}

func (x *Extractor) logSummary(r Report) {
	top := r.RejectedCharsets
	if len(top) > 10 {
		top = top[:10]
	}
	parts := make([]string, len(top))
	for i, c := range top {
		parts[i] = fmt.Sprintf("%s=%d", c.Charset, c.Count)
	}
	x.logger.Info("corpus extracted",
		"root", r.Root,
		"extracted", r.Extracted,
		"total", r.Total,
		"encoding", r.Encoding,
		"missing", r.Missing,
		"unsupported", r.Unsupported,
		"top_rejected_charsets", strings.Join(parts, ","),
	)
}
