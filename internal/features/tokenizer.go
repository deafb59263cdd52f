package features

import (
	"strings"
	"unicode"
)

// englishStopwords is a compact list of high-frequency function words.
var englishStopwords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during", "each", "few", "for", "from", "further",
	"had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just", "me", "more", "most", "my", "myself",
	"no", "nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours", "ourselves",
	"out", "over", "own", "same", "she", "should", "so", "some", "such", "than", "that", "the", "their",
	"theirs", "them", "themselves", "then", "there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very", "was", "we", "were", "what", "when", "where", "which", "while", "who",
	"whom", "why", "will", "with", "would", "you", "your", "yours", "yourself", "yourselves",
}

// Tokenizer splits text into lowercase word tokens.
type Tokenizer struct {
	stopwords   map[string]struct{}
	keepNumbers bool
}

// TokenizerOptions configures a Tokenizer.
type TokenizerOptions struct {
	// KeepStopwords disables stopword removal.
	KeepStopwords bool
	// KeepNumbers keeps tokens made only of digits.
	KeepNumbers bool
}

// NewTokenizer creates a Tokenizer using the built-in English stopwords.
func NewTokenizer(opts TokenizerOptions) *Tokenizer {
	t := &Tokenizer{stopwords: map[string]struct{}{}, keepNumbers: opts.KeepNumbers}
	if !opts.KeepStopwords {
		for _, w := range englishStopwords {
			t.stopwords[w] = struct{}{}
		}
	}
	return t
}

// Tokenize returns the tokens of text in order. Words that look like email
// addresses or URLs are dropped whole.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, word := range strings.Fields(text) {
		if looksLikeAddress(word) {
			continue
		}
		var current strings.Builder
		flush := func() {
			if current.Len() == 0 {
				return
			}
			if tok := t.processToken(current.String()); tok != "" {
				tokens = append(tokens, tok)
			}
			current.Reset()
		}
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' {
				current.WriteRune(unicode.ToLower(r))
				continue
			}
			flush()
		}
		flush()
	}
	return tokens
}

func (t *Tokenizer) processToken(token string) string {
	token = strings.Trim(token, "'")
	if token == "" {
		return ""
	}
	if !t.keepNumbers && isNumericOnly(token) {
		return ""
	}
	if _, stop := t.stopwords[token]; stop {
		return ""
	}
	return token
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func looksLikeAddress(word string) bool {
	w := strings.ToLower(strings.Trim(word, "<>()[]\"',;."))
	if strings.Contains(w, "@") && strings.Contains(w, ".") {
		return true
	}
	return strings.HasPrefix(w, "http://") || strings.HasPrefix(w, "https://") || strings.HasPrefix(w, "www.")
}
