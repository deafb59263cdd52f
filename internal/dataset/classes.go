package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/zcline91/spam-filter/internal/corpus"
	"github.com/zcline91/spam-filter/internal/record"
)

// Class file names, one per partition.
const (
	TrainClassesFile = "train_classes.csv"
	TestClassesFile  = "test_classes.csv"
)

var classColumns = []string{"corpus", "path", "label"}

// ClassesFile returns the class file name of p.
func ClassesFile(p Partition) string {
	if p == Test {
		return TestClassesFile
	}
	return TrainClassesFile
}

// WriteClasses writes the identifiers and labels of s.
func WriteClasses(path string, s record.Set) error {
	return corpus.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(classColumns); err != nil {
			return err
		}
		for _, r := range s {
			if err := cw.Write([]string{r.ID.Corpus, r.ID.Path, strconv.Itoa(int(r.Label))}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// ReadClasses reads a class file. The returned records carry no text.
func ReadClasses(path string) (record.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening classes: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(classColumns)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	for i, col := range classColumns {
		if header[i] != col {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", path, i+1, header[i], col)
		}
	}

	var set record.Set
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		label, err := record.ParseLabel(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		set = append(set, record.Record{ID: record.ID{Corpus: row[0], Path: row[1]}, Label: label})
	}
	return set, nil
}
