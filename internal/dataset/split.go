package dataset

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/zcline91/spam-filter/internal/record"
)

// DefaultTestRatio is the fraction of records assigned to the test set.
const DefaultTestRatio = 0.2

// ErrInvalidRatio is returned for a test ratio outside (0, 1).
var ErrInvalidRatio = errors.New("test ratio must be strictly between 0 and 1")

// Partition is the subset a record is assigned to.
type Partition int

const (
	Train Partition = iota
	Test
)

func (p Partition) String() string {
	if p == Test {
		return "test"
	}
	return "train"
}

// ValidateRatio checks that ratio lies in (0, 1).
func ValidateRatio(ratio float64) error {
	if !(ratio > 0 && ratio < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}
	return nil
}

// InTestSet reports whether key belongs to the test set: the CRC-32 (IEEE)
// of its UTF-8 bytes is below ratio * 2^32. The result depends on nothing
// but key and ratio.
func InTestSet(key string, ratio float64) bool {
	return float64(crc32.ChecksumIEEE([]byte(key))) < ratio*(1<<32)
}

// Assign returns the partition of key.
func Assign(key string, ratio float64) Partition {
	if InTestSet(key, ratio) {
		return Test
	}
	return Train
}

// SplitKey is the identifier a record is partitioned by: its path within
// its corpus.
func SplitKey(id record.ID) string {
	return id.Path
}

// Split partitions s into train and test subsets, preserving order within
// each.
func Split(s record.Set, ratio float64) (train, test record.Set, err error) {
	if err := ValidateRatio(ratio); err != nil {
		return nil, nil, err
	}
	for _, r := range s {
		if InTestSet(SplitKey(r.ID), ratio) {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test, nil
}
