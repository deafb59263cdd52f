package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zcline91/spam-filter/internal/record"
)

// readIndexCSV reads a pre-built "spam,path" index, the format written by
// the offline index builders.
func readIndexCSV(path string) ([]IndexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading index header %s: %w", path, err)
	}
	labelCol, pathCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "spam", "label":
			labelCol = i
		case "path":
			pathCol = i
		}
	}
	if labelCol < 0 || pathCol < 0 {
		return nil, fmt.Errorf("index %s: header %v lacks spam/label and path columns", path, header)
	}

	var entries []IndexEntry
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
		label, err := record.ParseLabel(strings.TrimSpace(row[labelCol]))
		if err != nil {
			return nil, fmt.Errorf("index %s line %d: %w", path, line, err)
		}
		entries = append(entries, IndexEntry{Label: label, Path: row[pathCol]})
	}
	return entries, nil
}

// readTrecIndex reads a TREC "full/index" file: one "<spam|ham> ../data/inmail.N"
// pair per line, paths relative to the full/ directory.
func readTrecIndex(path string) ([]IndexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	var entries []IndexEntry
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("index %s line %d: want 2 fields, got %d", path, line, len(fields))
		}
		var label record.Label
		switch strings.ToLower(fields[0]) {
		case "spam":
			label = record.Spam
		case "ham":
			label = record.Ham
		default:
			return nil, fmt.Errorf("index %s line %d: unknown label %q", path, line, fields[0])
		}
		entries = append(entries, IndexEntry{Label: label, Path: strings.TrimPrefix(fields[1], "../")})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	return entries, nil
}
