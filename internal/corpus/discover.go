package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NamedCorpus ties a corpus name to the file its rows are written to.
type NamedCorpus struct {
	Name string
	File string
}

// KnownCorpora lists the corpora by name, in the order they are
// concatenated when loaded.
var KnownCorpora = []NamedCorpus{
	{Name: "enron", File: "enron.csv"},
	{Name: "ling", File: "lingspam_public.csv"},
	{Name: "trec05", File: "trec05p-1.csv"},
	{Name: "trec06", File: "trec06p.csv"},
	{Name: "trec07", File: "trec07p.csv"},
}

// Job is one corpus root to extract into one output file.
type Job struct {
	Kind   Kind
	Root   string
	Output string
}

// CorpusFor returns the known corpus whose name prefixes the base name of
// root.
func CorpusFor(root string) (NamedCorpus, bool) {
	base := filepath.Base(filepath.Clean(root))
	for _, c := range KnownCorpora {
		if strings.HasPrefix(base, c.Name) {
			return c, true
		}
	}
	return NamedCorpus{}, false
}

// NewJob builds the job for a single corpus. An empty filename is inferred
// from the root's name.
func NewJob(kind Kind, root, outDir, filename string) (Job, error) {
	if filename == "" {
		c, ok := CorpusFor(root)
		if !ok {
			return Job{}, fmt.Errorf("cannot infer output file name for %s; pass one explicitly", root)
		}
		filename = c.File
	}
	return Job{Kind: kind, Root: root, Output: filepath.Join(outDir, filename)}, nil
}

// Discover scans the immediate subdirectories of dataRoot for corpora. A
// directory is matched to a layout when its name starts with the layout's
// tag, and to an output file by CorpusFor.
func Discover(dataRoot, outDir string) ([]Job, error) {
	entries, err := os.ReadDir(dataRoot)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dataRoot, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var jobs []Job
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		kind, ok := kindFor(e.Name())
		if !ok {
			continue
		}
		root := filepath.Join(dataRoot, e.Name())
		c, ok := CorpusFor(root)
		if !ok {
			slog.Warn("skipping corpus directory with no known name", "dir", root)
			continue
		}
		jobs = append(jobs, Job{Kind: kind, Root: root, Output: filepath.Join(outDir, c.File)})
	}
	return jobs, nil
}

func kindFor(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if strings.HasPrefix(name, string(k)) {
			return k, true
		}
	}
	return "", false
}
