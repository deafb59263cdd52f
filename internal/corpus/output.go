package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Columns is the fixed header of a corpus artifact.
var Columns = []string{"path", "label", "subject", "body"}

// OutputConflictError reports an artifact that already exists when
// overwriting was not requested.
type OutputConflictError struct {
	Path string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("%s already exists; use --force to overwrite it", e.Path)
}

// IsOutputConflict reports whether err (or any error in its chain) is an OutputConflictError.
func IsOutputConflict(err error) bool {
	var oc *OutputConflictError
	return errors.As(err, &oc)
}

// CheckOutputs fails on the first path that already exists unless force is
// set, and on any path whose parent directory is missing. Call it before
// starting work.
func CheckOutputs(paths []string, force bool) error {
	for _, p := range paths {
		dir := filepath.Dir(p)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("output directory %s does not exist", dir)
		}
		if force {
			continue
		}
		if _, err := os.Lstat(p); err == nil {
			return &OutputConflictError{Path: p}
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", p, err)
		}
	}
	return nil
}

// WriteCSV writes rows under the fixed header. Fields holding delimiters,
// quotes or newlines are quoted with embedded quotes doubled. Subject and
// body are also passed through EscapeField, since a CSV reader folds \r\n
// inside quoted fields into \n; read them back with UnescapeField.
func WriteCSV(path string, rows []Row) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(Columns); err != nil {
			return err
		}
		rec := make([]string, len(Columns))
		for _, r := range rows {
			rec[0] = r.Path
			rec[1] = strconv.Itoa(int(r.Label))
			rec[2] = EscapeField(r.Subject)
			rec[3] = EscapeField(r.Body)
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// EscapeChar is the escape character of subject and body fields.
const EscapeChar = '\\'

// EscapeField escapes EscapeChar as \\ and carriage returns as \r.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\\\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case EscapeChar:
			b.WriteString(`\\`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// UnescapeField reverses EscapeField. An escape followed by anything else
// is kept as written.
func UnescapeField(s string) string {
	if strings.IndexByte(s, EscapeChar) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != EscapeChar || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case EscapeChar:
			b.WriteByte(EscapeChar)
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// WriteFileAtomic writes to a temporary file next to path and renames it
// into place once write succeeds.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := write(bw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
