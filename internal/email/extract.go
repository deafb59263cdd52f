// Package email turns a raw RFC 5322 message into the subject line and the
// text of its text/plain and text/html parts.
package email

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// maxNesting bounds how deep attached message/rfc822 parts are followed.
const maxNesting = 8

// Message is the text extracted from one email. Either field may be empty.
type Message struct {
	Subject string
	Body    string
}

// Extractor parses raw emails, accepting text parts only in the configured
// charsets. It holds no per-message state and is safe for concurrent use.
type Extractor struct {
	charsets Charsets
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. A nil charsets uses DefaultCharsets.
func NewExtractor(charsets Charsets) *Extractor {
	if charsets == nil {
		charsets = DefaultCharsets
	}
	return &Extractor{charsets: charsets, logger: slog.Default()}
}

// Charsets returns the allow-list in use.
func (x *Extractor) Charsets() Charsets {
	return x.charsets
}

// ExtractBytes is Extract over an in-memory message.
func (x *Extractor) ExtractBytes(raw []byte) (Message, error) {
	return x.Extract(bytes.NewReader(raw))
}

// Extract parses one message. Bodies of every text/plain and text/html leaf
// part are concatenated in traversal order, HTML reduced to its text. Other
// parts are skipped. It fails with a *ContentTypeError when no text part is
// found, a *CharsetError when a text part declares a charset outside the
// allow-list, and a *DecodeError when the message, a text part or the
// subject cannot be decoded.
func (x *Extractor) Extract(r io.Reader) (Message, error) {
	entity, rootErr, err := readEntity(r)
	if err != nil {
		return Message{}, err
	}
	rootType, _ := contentType(&entity.Header)

	h := mail.Header{Header: entity.Header}
	subject, err := h.Subject()
	if err != nil {
		return Message{}, &DecodeError{Err: fmt.Errorf("decoding subject: %w", err)}
	}

	w := walker{x: x}
	if err := w.walk(entity, rootErr, 0); err != nil {
		if IsEncodingError(err) {
			return Message{}, err
		}
		return Message{}, &DecodeError{Err: err}
	}
	if w.parts == 0 {
		return Message{}, &ContentTypeError{ContentType: rootType}
	}

	return Message{Subject: subject, Body: w.body.String()}, nil
}

// readEntity parses a message header, tolerating an mbox "From " line and
// malformed header lines (see lenientHeader). Unknown charsets and transfer
// encodings are returned as soft errors to be judged per part.
func readEntity(r io.Reader) (entity *message.Entity, soft error, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, &DecodeError{Err: err}
	}
	entity, err = message.Read(bytes.NewReader(lenientHeader(raw)))
	if entity == nil {
		return nil, nil, &DecodeError{Err: err}
	}
	if err != nil {
		if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
			return entity, err, nil
		}
		return nil, nil, &DecodeError{Err: err}
	}
	return entity, nil, nil
}

type walker struct {
	x     *Extractor
	body  strings.Builder
	parts int
}

func (w *walker) walk(entity *message.Entity, rootErr error, depth int) error {
	return entity.Walk(func(path []int, part *message.Entity, err error) error {
		if len(path) == 0 && err == nil {
			err = rootErr
		}
		t, params := contentType(&part.Header)
		switch {
		case strings.HasPrefix(t, "multipart/"):
			return nil
		case t == "message/rfc822" && depth < maxNesting:
			inner, soft, rerr := readEntity(part.Body)
			if rerr != nil {
				w.x.logger.Debug("skipping unreadable attached message", "error", rerr)
				return nil
			}
			return w.walk(inner, soft, depth+1)
		case t != "text/plain" && t != "text/html":
			w.x.logger.Debug("skipping email part", "content_type", t)
			return nil
		}

		text, terr := w.x.partText(part, t, params, err)
		if terr != nil {
			return terr
		}
		w.parts++
		w.body.WriteString(text)
		return nil
	})
}

func (x *Extractor) partText(part *message.Entity, t string, params map[string]string, perr error) (string, error) {
	cs := normalizeCharset(params["charset"])
	if !x.charsets.Accepts(cs) {
		return "", &CharsetError{Charset: cs}
	}
	// Unknown transfer encodings leave the body as-is, which is still text.
	if perr != nil && !message.IsUnknownEncoding(perr) {
		return "", &DecodeError{Err: perr}
	}

	raw, err := io.ReadAll(part.Body)
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	text := strings.ToValidUTF8(string(raw), "\uFFFD")
	if t == "text/html" {
		return htmlText(text), nil
	}
	return text, nil
}

// contentType returns the lower-cased media type and its parameters,
// falling back to text/plain for absent or unparseable headers as RFC 2045
// prescribes.
func contentType(h *message.Header) (string, map[string]string) {
	if h.Get("Content-Type") == "" {
		return "text/plain", map[string]string{}
	}
	t, params, err := h.ContentType()
	if err != nil && t == "" {
		return "text/plain", map[string]string{}
	}
	if params == nil {
		params = map[string]string{}
	}
	return strings.ToLower(t), params
}
