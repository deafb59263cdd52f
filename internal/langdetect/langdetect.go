// Package langdetect adapts lingua-go to dataset.LanguageDetector.
package langdetect

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector names the language of a text as a lowercase ISO 639-1 code.
// Models are loaded lazily on first use; a Detector is safe for concurrent
// use and should be built once per process.
type Detector struct {
	detector lingua.LanguageDetector
}

// Options configures the detector.
type Options struct {
	// Languages restricts detection to these ISO 639-1 codes. Empty means
	// every language lingua knows.
	Languages []string
	// MinRelativeDistance makes detection answer "unknown" for texts whose
	// top candidates are too close. Zero disables it.
	MinRelativeDistance float64
}

// New builds a Detector.
func New(opts Options) (*Detector, error) {
	b := lingua.NewLanguageDetectorBuilder()
	var builder lingua.LanguageDetectorBuilder
	if len(opts.Languages) == 0 {
		builder = b.FromAllLanguages()
	} else {
		codes := make([]lingua.IsoCode639_1, 0, len(opts.Languages))
		for _, l := range opts.Languages {
			code, err := parseCode(l)
			if err != nil {
				return nil, err
			}
			codes = append(codes, code)
		}
		if len(codes) < 2 {
			return nil, fmt.Errorf("at least two languages are needed for detection, got %d", len(codes))
		}
		builder = b.FromIsoCodes639_1(codes...)
	}
	if opts.MinRelativeDistance > 0 {
		builder = builder.WithMinimumRelativeDistance(opts.MinRelativeDistance)
	}
	return &Detector{detector: builder.Build()}, nil
}

// Detect returns the code of the most likely language of text. ok is false
// when the text has no detectable language, such as an empty string or one
// made only of digits and punctuation.
func (d *Detector) Detect(text string) (string, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Known reports whether code names a language the detector supports.
func Known(code string) bool {
	_, err := parseCode(code)
	return err == nil
}

func parseCode(code string) (lingua.IsoCode639_1, error) {
	want := strings.ToUpper(strings.TrimSpace(code))
	for _, lang := range lingua.AllLanguages() {
		if iso := lang.IsoCode639_1(); iso.String() == want {
			return iso, nil
		}
	}
	return 0, fmt.Errorf("unknown language code %q", code)
}
