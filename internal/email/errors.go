package email

import (
	"errors"
	"fmt"
)

// ContentTypeError reports a message with no text/plain or text/html part.
type ContentTypeError struct {
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q: no text/plain or text/html part", e.ContentType)
}

// CharsetError reports a text part whose declared charset is not accepted.
type CharsetError struct {
	Charset string
}

func (e *CharsetError) Error() string {
	return fmt.Sprintf("unacceptable charset %q", e.Charset)
}

// DecodeError reports a message, part or header that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failure: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsContentTypeError reports whether err (or any error in its chain) is a ContentTypeError.
func IsContentTypeError(err error) bool {
	var ct *ContentTypeError
	return errors.As(err, &ct)
}

// RejectedCharset returns the charset named by a CharsetError in err's chain.
func RejectedCharset(err error) (string, bool) {
	var ce *CharsetError
	if errors.As(err, &ce) {
		return ce.Charset, true
	}
	return "", false
}

// IsEncodingError reports whether err is a charset or decode failure.
func IsEncodingError(err error) bool {
	var ce *CharsetError
	var de *DecodeError
	return errors.As(err, &ce) || errors.As(err, &de)
}
