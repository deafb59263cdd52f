package dataset

import (
	"database/sql"
	"log/slog"
	"strings"
	"unicode"

	"github.com/zcline91/spam-filter/internal/record"
)

// Stage is one named, total transformation of a record set. Stages never
// modify their input.
type Stage struct {
	Name  string
	Apply func(record.Set) record.Set
}

// Pipeline runs its stages in order.
type Pipeline []Stage

// Run applies every stage, logging how many records each one kept.
func (p Pipeline) Run(s record.Set) record.Set {
	logger := slog.Default()
	for _, st := range p {
		before := len(s)
		s = st.Apply(s)
		logger.Info("cleaning stage", "stage", st.Name, "in", before, "out", len(s))
	}
	return s
}

// LanguageDetector names the language of a text. ok is false when no
// language could be determined.
type LanguageDetector interface {
	Detect(text string) (code string, ok bool)
}

// Marker substrings that reveal an unparsed multipart container in a body.
var bodyMarkers = []string{"multipart", "Multipart"}

// EmailCleaning normalizes the text of single emails.
func EmailCleaning() Pipeline {
	return Pipeline{NormalizeSpaces(), NullifyBlank()}
}

// CorpusPrep is the full cleaning applied to loaded corpora before they are
// split. The order matters: the duplicate and marker filters rely on text
// already being normalized.
func CorpusPrep(detector LanguageDetector, target string) Pipeline {
	return Pipeline{
		NormalizeSpaces(),
		NullifyBlank(),
		DropNonTarget(detector, target),
		DropBothNull(),
		DropDuplicates(),
		DropMarker(bodyMarkers...),
	}
}

// NormalizeSpaces collapses every run of whitespace in subject and body to a
// single space. Leading and trailing runs become a single space too.
func NormalizeSpaces() Stage {
	return Stage{Name: "normalize_spaces", Apply: func(s record.Set) record.Set {
		out := s.Clone()
		for i := range out {
			out[i].Subject = mapValid(out[i].Subject, collapseSpaces)
			out[i].Body = mapValid(out[i].Body, collapseSpaces)
		}
		return out
	}}
}

// NullifyBlank turns empty and all-whitespace fields into null.
func NullifyBlank() Stage {
	return Stage{Name: "nullify_blank", Apply: func(s record.Set) record.Set {
		out := s.Clone()
		for i := range out {
			out[i].Subject = nullIfBlank(out[i].Subject)
			out[i].Body = nullIfBlank(out[i].Body)
		}
		return out
	}}
}

// DropNonTarget keeps records whose body is detected as the target language.
// A null body, or one whose language cannot be determined, is dropped.
func DropNonTarget(detector LanguageDetector, target string) Stage {
	return Stage{Name: "drop_non_" + target, Apply: func(s record.Set) record.Set {
		return filter(s, func(r record.Record) bool {
			if !r.Body.Valid {
				return false
			}
			code, ok := detector.Detect(r.Body.String)
			return ok && strings.EqualFold(code, target)
		})
	}}
}

// DropBothNull drops records with neither subject nor body.
func DropBothNull() Stage {
	return Stage{Name: "drop_both_null", Apply: func(s record.Set) record.Set {
		return filter(s, func(r record.Record) bool {
			return r.Subject.Valid || r.Body.Valid
		})
	}}
}

// DropDuplicates keeps the first record of each distinct (subject, body)
// pair. Null matches null.
func DropDuplicates() Stage {
	return Stage{Name: "drop_duplicates", Apply: func(s record.Set) record.Set {
		type key struct{ subject, body sql.NullString }
		seen := make(map[key]struct{}, len(s))
		return filter(s, func(r record.Record) bool {
			k := key{subject: canonical(r.Subject), body: canonical(r.Body)}
			if _, dup := seen[k]; dup {
				return false
			}
			seen[k] = struct{}{}
			return true
		})
	}}
}

// DropMarker drops records whose body contains any of markers. Null bodies
// are kept.
func DropMarker(markers ...string) Stage {
	return Stage{Name: "drop_marker", Apply: func(s record.Set) record.Set {
		return filter(s, func(r record.Record) bool {
			if !r.Body.Valid {
				return true
			}
			for _, m := range markers {
				if strings.Contains(r.Body.String, m) {
					return false
				}
			}
			return true
		})
	}}
}

func filter(s record.Set, keep func(record.Record) bool) record.Set {
	out := make(record.Set, 0, len(s))
	for _, r := range s {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func mapValid(ns sql.NullString, f func(string) string) sql.NullString {
	if !ns.Valid {
		return ns
	}
	return record.Valid(f(ns.String))
}

func nullIfBlank(ns sql.NullString) sql.NullString {
	if ns.Valid && strings.TrimFunc(ns.String, isSpace) == "" {
		return sql.NullString{}
	}
	return ns
}

// canonical zeroes the string of a null value so map keys compare equal.
func canonical(ns sql.NullString) sql.NullString {
	if !ns.Valid {
		return sql.NullString{}
	}
	return ns
}

// isSpace is unicode.IsSpace plus the ASCII information separators
// (0x1c-0x1f), which show up as padding in some corpora.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
