package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zcline91/spam-filter/internal/storage"
)

type runJSON struct {
	ID               string        `json:"id"`
	Kind             string        `json:"kind"`
	Corpus           string        `json:"corpus,omitempty"`
	Source           string        `json:"source,omitempty"`
	Output           string        `json:"output,omitempty"`
	Status           string        `json:"status"`
	Error            string        `json:"error,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
	Total            int           `json:"total"`
	Extracted        int           `json:"extracted"`
	Missing          int           `json:"missing"`
	Encoding         int           `json:"encoding"`
	Unsupported      int           `json:"unsupported"`
	RejectedCharsets []charsetJSON `json:"rejected_charsets,omitempty"`
}

type charsetJSON struct {
	Charset string `json:"charset"`
	Count   int    `json:"count"`
}

func toRunJSON(r storage.Run) runJSON {
	out := runJSON{
		ID: r.ID, Kind: r.Kind, Corpus: r.Corpus, Source: r.Source, Output: r.Output,
		Status: r.Status, Error: r.Error, StartedAt: r.StartedAt,
		Total: r.Counts.Total, Extracted: r.Counts.Extracted, Missing: r.Counts.Missing,
		Encoding: r.Counts.Encoding, Unsupported: r.Counts.Unsupported,
	}
	if !r.FinishedAt.IsZero() {
		t := r.FinishedAt
		out.FinishedAt = &t
	}
	for _, c := range r.RejectedCharsets {
		out.RejectedCharsets = append(out.RejectedCharsets, charsetJSON{Charset: c.Charset, Count: c.Count})
	}
	return out
}

func handleListRuns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		runs, err := deps.Runs.ListRuns(r.Context(), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list runs: %v", err)
			return
		}

		out := make([]runJSON, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunJSON(run))
		}
		writeJSON(w, out)
	}
}

func handleGetRun(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		run, err := deps.Runs.GetRun(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get run: %v", err)
			return
		}
		writeJSON(w, toRunJSON(run))
	}
}
