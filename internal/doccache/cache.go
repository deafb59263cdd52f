package doccache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/record"
)

// DefaultMaxChunk is the largest number of documents written to one chunk.
const DefaultMaxChunk = 50000

// Document is one precomputed payload and the record it was produced from.
type Document struct {
	ID      record.ID
	Payload []byte
}

// Input is the text a document is produced from.
type Input struct {
	ID   record.ID
	Text string
}

// Engine produces documents. Every returned document must carry the
// identifier of the input it was produced from; order is not significant.
type Engine interface {
	Process(ctx context.Context, inputs []Input) ([]Document, error)
}

// StoreOptions configures Store.
type StoreOptions struct {
	// MaxChunk bounds the documents per chunk. Zero means DefaultMaxChunk.
	MaxChunk int
	// Overwrite replaces an existing cache instead of failing.
	Overwrite bool
}

// Store writes docs to ix.Path: a single chunk file when they fit in one
// chunk, otherwise a directory of numbered chunk files. Nothing is visible
// at ix.Path until every chunk has been written.
func Store(ctx context.Context, ix Index, docs []Document, opts StoreOptions) error {
	maxChunk := opts.MaxChunk
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}
	if !opts.Overwrite && Exists(ix) {
		return &corpus.OutputConflictError{Path: ix.Path}
	}
	seen := make(map[record.ID]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("storing %s: duplicate document %s", ix.Path, d.ID)
		}
		seen[d.ID] = struct{}{}
	}

	parent := filepath.Dir(ix.Path)
	total := (len(docs) + maxChunk - 1) / maxChunk
	if total <= 1 {
		tmp, err := tempPath(parent)
		if err != nil {
			return err
		}
		if err := writeChunk(ctx, tmp, ix, 1, 1, docs); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("writing %s: %w", ix.Path, err)
		}
		return replace(tmp, ix.Path)
	}

	slog.Warn("documents exceed one chunk, writing a chunk directory",
		"path", ix.Path, "documents", len(docs), "chunks", total)
	tmpDir, err := os.MkdirTemp(parent, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	for n := 1; n <= total; n++ {
		lo := (n - 1) * maxChunk
		hi := min(lo+maxChunk, len(docs))
		if err := writeChunk(ctx, filepath.Join(tmpDir, chunkFile(n)), ix, n, total, docs[lo:hi]); err != nil {
			os.RemoveAll(tmpDir)
			return fmt.Errorf("writing %s chunk %d: %w", ix.Path, n, err)
		}
	}
	return replace(tmpDir, ix.Path)
}

// Load reads the cache at ix.Path and returns its payloads in the order of
// ids. The cached identifiers must equal ids as a set; otherwise Load fails
// with an *IdentityMismatchError.
func Load(ctx context.Context, ix Index, ids []record.ID) ([][]byte, error) {
	layout, files, err := detectLayout(ix)
	if err != nil {
		return nil, err
	}

	stored := make(map[record.ID]int)
	var payloads [][]byte
	for _, f := range files {
		meta, rows, err := readChunk(ctx, f)
		if err != nil {
			return nil, err
		}
		if err := checkColumns(ix, meta.Names, meta.Types); err != nil {
			return nil, err
		}
		if meta.Total != len(files) {
			return nil, fmt.Errorf("cache %s: chunk %s expects %d chunks, found %d", ix.Path, f, meta.Total, len(files))
		}
		for _, r := range rows {
			id := r.id()
			if _, dup := stored[id]; dup {
				return nil, &IdentityMismatchError{Path: ix.Path, Reason: fmt.Sprintf("%s is stored more than once", id)}
			}
			stored[id] = len(payloads)
			payloads = append(payloads, r.Payload)
		}
	}
	slog.Debug("document cache read", "path", ix.Path, "layout", layout, "chunks", len(files), "documents", len(payloads))

	if err := checkIdentity(ix, stored, ids); err != nil {
		return nil, err
	}
	out := make([][]byte, len(ids))
	for i, id := range ids {
		out[i] = payloads[stored[id]]
	}
	return out, nil
}

// BuildOrLoad returns the documents for inputs, in input order. When a cache
// exists at ix.Path and rebuild is false it is loaded and checked; otherwise
// engine produces the documents and they are stored.
func BuildOrLoad(ctx context.Context, ix Index, inputs []Input, engine Engine, rebuild bool, opts StoreOptions) ([][]byte, error) {
	ids := make([]record.ID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}
	if !rebuild {
		payloads, err := Load(ctx, ix, ids)
		if err == nil {
			slog.Info("loaded document cache", "path", ix.Path, "documents", len(payloads))
			return payloads, nil
		}
		if !errors.Is(err, ErrNotExist) {
			return nil, err
		}
	}

	slog.Info("building documents", "path", ix.Path, "inputs", len(inputs))
	docs, err := engine.Process(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("processing documents: %w", err)
	}
	produced := make(map[record.ID]int, len(docs))
	for i, d := range docs {
		if _, dup := produced[d.ID]; dup {
			return nil, &IdentityMismatchError{Path: ix.Path, Reason: fmt.Sprintf("engine produced %s more than once", d.ID)}
		}
		produced[d.ID] = i
	}
	if err := checkIdentity(ix, produced, ids); err != nil {
		return nil, fmt.Errorf("engine output: %w", err)
	}

	ordered := make([]Document, len(ids))
	payloads := make([][]byte, len(ids))
	for i, id := range ids {
		ordered[i] = docs[produced[id]]
		payloads[i] = ordered[i].Payload
	}
	opts.Overwrite = opts.Overwrite || rebuild
	if err := Store(ctx, ix, ordered, opts); err != nil {
		return nil, err
	}
	return payloads, nil
}

func tempPath(dir string) (string, error) {
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// replace moves src to dst, removing whatever was at dst first.
func replace(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		os.RemoveAll(src)
		return fmt.Errorf("removing old cache %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		os.RemoveAll(src)
		return fmt.Errorf("replacing %s: %w", dst, err)
	}
	return nil
}
