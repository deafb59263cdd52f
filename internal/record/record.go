// Package record holds the email record types shared by the extraction,
// dataset and cache packages.
package record

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Label classifies an email as ham or spam. The numeric values are the
// on-disk encoding used by every CSV artifact.
type Label int

const (
	Ham  Label = 0
	Spam Label = 1
)

func (l Label) String() string {
	switch l {
	case Ham:
		return "ham"
	case Spam:
		return "spam"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// ParseLabel reads the CSV encoding of a label ("0" or "1").
func ParseLabel(s string) (Label, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid label %q", s)
	}
	switch Label(n) {
	case Ham, Spam:
		return Label(n), nil
	}
	return 0, fmt.Errorf("invalid label %q", s)
}

// ID names one email within a loaded record set.
type ID struct {
	Corpus string
	Path   string
}

func (id ID) String() string {
	return id.Corpus + ":" + id.Path
}

// Field selects the subject or the body of a record.
type Field string

const (
	Subject Field = "subject"
	Body    Field = "body"
)

// ParseField accepts "subject" or "body".
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case Subject, Body:
		return Field(s), nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Record is one extracted email. Subject and Body are null when the
// cleaning pipeline found nothing worth keeping.
type Record struct {
	ID      ID
	Label   Label
	Subject sql.NullString
	Body    sql.NullString
}

// Text returns the value of field f, or "" when it is null.
func (r Record) Text(f Field) string {
	if f == Subject {
		return r.Subject.String
	}
	return r.Body.String
}

// Set is an ordered collection of records. Transformations return a new Set
// rather than editing one in place.
type Set []Record

// IDs returns the identifiers of s in order.
func (s Set) IDs() []ID {
	ids := make([]ID, len(s))
	for i, r := range s {
		ids[i] = r.ID
	}
	return ids
}

// Labels returns the labels of s in order.
func (s Set) Labels() []Label {
	labels := make([]Label, len(s))
	for i, r := range s {
		labels[i] = r.Label
	}
	return labels
}

// Clone returns a copy of s that shares no backing array with it.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Valid wraps s as a non-null string.
func Valid(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
