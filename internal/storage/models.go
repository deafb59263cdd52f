package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run kinds.
const (
	KindExtract = "extract"
	KindClasses = "classes"
	KindDocs    = "docs"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string
	Kind       string
	Corpus     string
	Source     string
	Output     string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Counts     Counts
	// RejectedCharsets is ranked, most frequent first.
	RejectedCharsets []CharsetCount
}

// Counts are the per-record tallies of a run.
type Counts struct {
	Total       int
	Extracted   int
	Missing     int
	Encoding    int
	Unsupported int
}

type CharsetCount struct {
	Charset string
	Count   int
}
