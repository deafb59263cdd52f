// Package doccache stores precomputed per-record documents in size-bounded
// chunk files and loads them back keyed by record identifier. Every load is
// checked against the identifiers of the record set it will serve.
package doccache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zcline91/spam-filter/internal/record"
)

// ErrNotExist is returned when no cache exists at a location.
var ErrNotExist = errors.New("document cache does not exist")

// Identifier column names and types stored with every chunk.
var (
	IDNames = []string{"corpus", "path"}
	IDTypes = []string{"string", "string"}
)

// Index describes where a cache lives and the identifier columns its
// documents are keyed by.
type Index struct {
	Path  string
	Names []string
	Types []string
}

// At returns the Index of a cache at path keyed by record identifiers.
func At(path string) Index {
	return Index{Path: path, Names: IDNames, Types: IDTypes}
}

// Layout is how a cache is laid out on disk.
type Layout int

const (
	// SingleFile is one chunk file at Index.Path.
	SingleFile Layout = iota
	// Chunked is a directory at Index.Path holding 1.docs, 2.docs, ...
	Chunked
)

func (l Layout) String() string {
	if l == Chunked {
		return "chunked"
	}
	return "single"
}

var chunkName = regexp.MustCompile(`^([1-9][0-9]*)\.docs$`)

func chunkFile(n int) string {
	return strconv.Itoa(n) + ".docs"
}

// Exists reports whether a cache is present at ix.Path.
func Exists(ix Index) bool {
	_, err := os.Stat(ix.Path)
	return err == nil
}

// detectLayout inspects ix.Path and lists its chunk files in order.
func detectLayout(ix Index) (Layout, []string, error) {
	info, err := os.Stat(ix.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil, fmt.Errorf("%w: %s", ErrNotExist, ix.Path)
		}
		return 0, nil, err
	}
	if !info.IsDir() {
		return SingleFile, []string{ix.Path}, nil
	}

	entries, err := os.ReadDir(ix.Path)
	if err != nil {
		return 0, nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var nums []int
	for _, e := range entries {
		m := chunkName.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return 0, nil, fmt.Errorf("%w: %s holds no chunk files", ErrNotExist, ix.Path)
	}
	sort.Ints(nums)
	files := make([]string, len(nums))
	for i, n := range nums {
		if n != i+1 {
			return 0, nil, fmt.Errorf("cache %s: chunk %s is missing", ix.Path, chunkFile(i+1))
		}
		files[i] = filepath.Join(ix.Path, chunkFile(n))
	}
	return Chunked, files, nil
}

// IdentityMismatchError reports a cache whose identifiers differ from the
// record set it was loaded for. The cache has to be rebuilt.
type IdentityMismatchError struct {
	Path          string
	Missing       int // expected identifiers absent from the cache
	Extra         int // cached identifiers not in the record set
	MissingSample []record.ID
	ExtraSample   []record.ID
	Reason        string
}

func (e *IdentityMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "document cache %s does not match its record set", e.Path)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Missing > 0 {
		fmt.Fprintf(&b, "; %d missing (e.g. %s)", e.Missing, sampleString(e.MissingSample))
	}
	if e.Extra > 0 {
		fmt.Fprintf(&b, "; %d extra (e.g. %s)", e.Extra, sampleString(e.ExtraSample))
	}
	return b.String()
}

// IsIdentityMismatch reports whether err (or any error in its chain) is an IdentityMismatchError.
func IsIdentityMismatch(err error) bool {
	var im *IdentityMismatchError
	return errors.As(err, &im)
}

const sampleSize = 5

func sampleString(ids []record.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// checkColumns verifies that a chunk was keyed by the same identifier
// columns as ix.
func checkColumns(ix Index, names, types []string) error {
	if strings.Join(names, ",") != strings.Join(ix.Names, ",") ||
		strings.Join(types, ",") != strings.Join(ix.Types, ",") {
		return &IdentityMismatchError{
			Path: ix.Path,
			Reason: fmt.Sprintf("identifier columns %v (%v), want %v (%v)",
				names, types, ix.Names, ix.Types),
		}
	}
	return nil
}

// checkIdentity compares stored and expected as sets.
func checkIdentity(ix Index, stored map[record.ID]int, expected []record.ID) error {
	want := make(map[record.ID]struct{}, len(expected))
	mm := &IdentityMismatchError{Path: ix.Path}
	for _, id := range expected {
		if _, dup := want[id]; dup {
			mm.Reason = fmt.Sprintf("record set lists %s more than once", id)
			return mm
		}
		want[id] = struct{}{}
		if _, ok := stored[id]; !ok {
			mm.Missing++
			if len(mm.MissingSample) < sampleSize {
				mm.MissingSample = append(mm.MissingSample, id)
			}
		}
	}
	if len(stored) != len(want)-mm.Missing {
		var extra []record.ID
		for id := range stored {
			if _, ok := want[id]; !ok {
				extra = append(extra, id)
			}
		}
		sort.Slice(extra, func(i, j int) bool { return extra[i].String() < extra[j].String() })
		mm.Extra = len(extra)
		if len(extra) > sampleSize {
			extra = extra[:sampleSize]
		}
		mm.ExtraSample = extra
	}
	if mm.Missing > 0 || mm.Extra > 0 {
		return mm
	}
	return nil
}
