// Package skiplog records rows dropped by the index builders and the join.
//
// Each source gets its own CSV file with the header
// reason,line_number,raw_line. A nil *Log counts nothing and writes nothing,
// so callers never need to check whether skip logging is enabled.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Header is the first row of every skip file.
var Header = []string{"reason", "line_number", "raw_line"}

// Log appends skipped rows to a CSV file. Not safe for concurrent use; each
// stage owns its Log.
type Log struct {
	f       *os.File
	w       *csv.Writer
	path    string
	written int64
}

// Create opens <dir>/<source>.csv, creating dir as needed. An empty dir
// returns a nil *Log.
func Create(dir, source string) (*Log, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("skiplog: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, source+".csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("skiplog: create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("skiplog: write header: %w", err)
	}
	return &Log{f: f, w: w, path: path}, nil
}

// Path returns the file path, or "" for a nil Log.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Add appends one skipped row.
func (l *Log) Add(reason string, line int, raw string) {
	if l == nil {
		return
	}
	_ = l.w.Write([]string{reason, strconv.Itoa(line), raw})
	l.written++
}

// Written returns the number of rows appended.
func (l *Log) Written() int64 {
	if l == nil {
		return 0
	}
	return l.written
}

// Close flushes buffered rows and closes the file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.w.Flush()
	werr := l.w.Error()
	cerr := l.f.Close()
	if werr != nil {
		return fmt.Errorf("skiplog: flush %s: %w", l.path, werr)
	}
	return cerr
}
