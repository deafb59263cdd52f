package email

import (
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/charmap"
)

// DefaultCharsets is the allow-list applied to text parts. The empty name
// stands for parts that declare no charset at all, which covers a large
// share of the public corpora.
var DefaultCharsets = NewCharsets(
	"",
	"iso-8859-1",
	"us-ascii",
	"iso-646-us",
	"utf-8",
	"windows-1252",
	"ansi_x3.4-1968",
)

// Charsets is a case-insensitive set of charset names.
type Charsets map[string]struct{}

// NewCharsets builds a set from names.
func NewCharsets(names ...string) Charsets {
	c := make(Charsets, len(names))
	for _, n := range names {
		c[normalizeCharset(n)] = struct{}{}
	}
	return c
}

// With returns a new set holding c plus names.
func (c Charsets) With(names ...string) Charsets {
	out := make(Charsets, len(c)+len(names))
	for n := range c {
		out[n] = struct{}{}
	}
	for _, n := range names {
		out[normalizeCharset(n)] = struct{}{}
	}
	return out
}

// Accepts reports whether name is in the set.
func (c Charsets) Accepts(name string) bool {
	_, ok := c[normalizeCharset(name)]
	return ok
}

func normalizeCharset(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func init() {
	message.CharsetReader = readCharset
}

// readCharset resolves the ASCII aliases that the WHATWG index does not
// know before handing off to go-message's charset table.
func readCharset(name string, input io.Reader) (io.Reader, error) {
	switch normalizeCharset(name) {
	case "iso-646-us", "ansi_x3.4-1968", "ascii", "us":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	}
	return charset.Reader(name, input)
}
