package doccache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/zcline91/spam-filter/internal/record"
)

// formatVersion is bumped whenever the chunk schema changes.
const formatVersion = 1

const chunkSchema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE documents (
	seq     INTEGER PRIMARY KEY,
	corpus  TEXT NOT NULL,
	path    TEXT NOT NULL,
	payload BLOB NOT NULL,
	UNIQUE (corpus, path)
);`

type chunkMeta struct {
	Names   []string
	Types   []string
	Number  int
	Total   int
	Version int
}

type docRow struct {
	Corpus  string `db:"corpus"`
	Path    string `db:"path"`
	Payload []byte `db:"payload"`
}

// writeChunk creates a chunk database at path holding docs.
func writeChunk(ctx context.Context, path string, ix Index, number, total int, docs []Document) error {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening chunk: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	// The file is not visible under its final name until it is complete.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=OFF"); err != nil {
		return fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, chunkSchema); err != nil {
		return fmt.Errorf("creating chunk schema: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	meta := map[string]string{
		"index_names":    strings.Join(ix.Names, ","),
		"index_types":    strings.Join(ix.Types, ","),
		"chunk":          strconv.Itoa(number),
		"chunks":         strconv.Itoa(total),
		"format_version": strconv.Itoa(formatVersion),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing chunk meta: %w", err)
		}
	}

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO documents (corpus, path, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, d := range docs {
		payload := d.Payload
		if payload == nil {
			payload = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, d.ID.Corpus, d.ID.Path, payload); err != nil {
			return fmt.Errorf("inserting %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// readChunk loads the metadata and documents of one chunk file.
func readChunk(ctx context.Context, path string) (chunkMeta, []docRow, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return chunkMeta{}, nil, fmt.Errorf("opening chunk %s: %w", path, err)
	}
	defer db.Close()

	var kv []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.SelectContext(ctx, &kv, "SELECT key, value FROM meta"); err != nil {
		return chunkMeta{}, nil, fmt.Errorf("reading chunk %s meta: %w", path, err)
	}
	values := make(map[string]string, len(kv))
	for _, e := range kv {
		values[e.Key] = e.Value
	}

	var meta chunkMeta
	meta.Names = strings.Split(values["index_names"], ",")
	meta.Types = strings.Split(values["index_types"], ",")
	for key, dst := range map[string]*int{"chunk": &meta.Number, "chunks": &meta.Total, "format_version": &meta.Version} {
		n, err := strconv.Atoi(values[key])
		if err != nil {
			return chunkMeta{}, nil, fmt.Errorf("chunk %s: invalid %s %q", path, key, values[key])
		}
		*dst = n
	}
	if meta.Version != formatVersion {
		return chunkMeta{}, nil, fmt.Errorf("chunk %s: unsupported format version %d", path, meta.Version)
	}

	var rows []docRow
	if err := db.SelectContext(ctx, &rows, "SELECT corpus, path, payload FROM documents ORDER BY seq"); err != nil {
		return chunkMeta{}, nil, fmt.Errorf("reading chunk %s documents: %w", path, err)
	}
	return meta, rows, nil
}

func (r docRow) id() record.ID {
	return record.ID{Corpus: r.Corpus, Path: r.Path}
}
