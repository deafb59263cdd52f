package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type runRow struct {
	ID          string `db:"id"`
	Kind        string `db:"kind"`
	Corpus      string `db:"corpus"`
	Source      string `db:"source"`
	Output      string `db:"output"`
	Status      string `db:"status"`
	Error       string `db:"error"`
	StartedAt   string `db:"started_at"`
	FinishedAt  string `db:"finished_at"`
	Total       int    `db:"total"`
	Extracted   int    `db:"extracted"`
	Missing     int    `db:"missing"`
	Encoding    int    `db:"encoding"`
	Unsupported int    `db:"unsupported"`
}

const runColumns = `id, kind, corpus, source, output, status, error, started_at, finished_at,
	total, extracted, missing, encoding, unsupported`

func (r runRow) toRun() (Run, error) {
	run := Run{
		ID: r.ID, Kind: r.Kind, Corpus: r.Corpus, Source: r.Source, Output: r.Output,
		Status: r.Status, Error: r.Error,
		Counts: Counts{Total: r.Total, Extracted: r.Extracted, Missing: r.Missing, Encoding: r.Encoding, Unsupported: r.Unsupported},
	}
	t, err := time.Parse(timeFormat, r.StartedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at: %w", err)
	}
	run.StartedAt = t
	if r.FinishedAt != "" {
		t, err := time.Parse(timeFormat, r.FinishedAt)
		if err != nil {
			return Run{}, fmt.Errorf("parsing finished_at: %w", err)
		}
		run.FinishedAt = t
	}
	return run, nil
}

// StartRun records a new running run and returns it with its ID assigned.
func (s *Store) StartRun(ctx context.Context, kind, corpus, source, output string) (Run, error) {
	run := Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Corpus:    corpus,
		Source:    source,
		Output:    output,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, corpus, source, output, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Corpus, run.Source, run.Output, run.Status,
		run.StartedAt.Format(timeFormat),
	)
	if err != nil {
		return Run{}, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// FinishRun stores the outcome of a run. A nil runErr marks it completed.
func (s *Store) FinishRun(ctx context.Context, id string, counts Counts, charsets []CharsetCount, runErr error) error {
	status, msg := StatusCompleted, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, finished_at = ?,
			total = ?, extracted = ?, missing = ?, encoding = ?, unsupported = ?
		WHERE id = ?`,
		status, msg, time.Now().UTC().Format(timeFormat),
		counts.Total, counts.Extracted, counts.Missing, counts.Encoding, counts.Unsupported,
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rejected_charsets WHERE run_id = ?", id); err != nil {
		return err
	}
	stmt, err := tx.PreparexContext(ctx, "INSERT INTO rejected_charsets (run_id, rank, charset, count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range charsets {
		if _, err := stmt.ExecContext(ctx, id, i+1, c.Charset, c.Count); err != nil {
			return fmt.Errorf("recording charset %s: %w", c.Charset, err)
		}
	}
	return tx.Commit()
}

// GetRun returns one run with its rejected charsets.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run, err := row.toRun()
	if err != nil {
		return Run{}, err
	}
	if err := s.db.SelectContext(ctx, &run.RejectedCharsets,
		"SELECT charset, count FROM rejected_charsets WHERE run_id = ? ORDER BY rank", id); err != nil {
		return Run{}, fmt.Errorf("reading rejected charsets: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, without their
// rejected charsets.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT ?", limit); err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
