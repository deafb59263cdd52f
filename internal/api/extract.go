package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/zcline91/spam-filter/internal/dataset"
	"github.com/zcline91/spam-filter/internal/email"
	"github.com/zcline91/spam-filter/internal/record"
)

const maxMessageSize = 10 << 20 // 10MB

// ExtractResponse is the cleaned text of one email. Blank fields are null.
type ExtractResponse struct {
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
}

func handleExtract(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxMessageSize)
		defer r.Body.Close()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "message exceeds %d bytes", tooLarge.Limit)
				return
			}
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading message: %v", err)
			return
		}
		if len(raw) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "request body must be a raw RFC 5322 message")
			return
		}

		msg, err := deps.Extractor.ExtractBytes(raw)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, extractErrorType(err), "%v", err)
			return
		}

		cleaned := dataset.EmailCleaning().Run(record.Set{{
			Subject: record.Valid(msg.Subject),
			Body:    record.Valid(msg.Body),
		}})[0]

		var resp ExtractResponse
		if cleaned.Subject.Valid {
			resp.Subject = &cleaned.Subject.String
		}
		if cleaned.Body.Valid {
			resp.Body = &cleaned.Body.String
		}
		writeJSON(w, resp)
	}
}

func extractErrorType(err error) string {
	if email.IsContentTypeError(err) {
		return "content_type_error"
	}
	if _, ok := email.RejectedCharset(err); ok {
		return "charset_error"
	}
	return "decode_error"
}
