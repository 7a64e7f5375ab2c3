// Package tsv reads the tab-separated dataset extracts line by line.
//
// Each extract starts with a header line, which Reader discards. Fields are
// split on '\t' without quoting rules; the literal `\N` marks an absent value.
//
// A stream that fails part-way (corrupt or cut-off gzip, I/O error) is
// reported as a *TruncatedError, distinct from io.EOF and from any row-level
// defect. Rows returned before the failure remain valid; the partial line
// that was being read is discarded.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Absent is the sentinel the extracts use for a missing value.
const Absent = `\N`

// IsAbsent reports whether s is the absent sentinel.
func IsAbsent(s string) bool { return s == Absent }

// Field returns s, or "" when s is the absent sentinel.
func Field(s string) string {
	if s == Absent {
		return ""
	}
	return s
}

// ErrTruncated matches any *TruncatedError via errors.Is.
var ErrTruncated = errors.New("tsv: stream truncated")

// TruncatedError reports a stream that ended before a clean EOF.
type TruncatedError struct {
	Source string
	// Line is the number of the last complete physical line read (the
	// header is line 1).
	Line  int
	Cause error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s: stream truncated after line %d: %v", e.Source, e.Line, e.Cause)
}

func (e *TruncatedError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrTruncated) true.
func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }

// Reader yields the data rows of one extract.
type Reader struct {
	source     string
	br         *bufio.Reader
	line       int
	headerDone bool
	err        error
}

// NewReader wraps r. bufSize <= 0 uses 1 MiB.
func NewReader(r io.Reader, source string, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = 1 << 20
	}
	return &Reader{source: source, br: bufio.NewReaderSize(r, bufSize)}
}

// Line returns the physical line number of the row last returned by Next.
func (r *Reader) Line() int { return r.line }

// Next returns the fields of the next data row. It returns io.EOF at a clean
// end of stream and a *TruncatedError if the underlying reader fails; once
// either is returned, every later call returns the same error.
func (r *Reader) Next() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if !r.headerDone {
		if _, err := r.readLine(); err != nil {
			return nil, err
		}
		r.headerDone = true
	}
	raw, err := r.readLine()
	if err != nil {
		return nil, err
	}
	return strings.Split(raw, "\t"), nil
}

func (r *Reader) readLine() (string, error) {
	s, err := r.br.ReadString('\n')
	switch {
	case err == nil:
		r.line++
		return trimEOL(s), nil
	case errors.Is(err, io.EOF):
		if s == "" {
			r.err = io.EOF
			return "", io.EOF
		}
		// final line without a trailing newline
		r.line++
		r.err = io.EOF
		return trimEOL(s), nil
	default:
		r.err = &TruncatedError{Source: r.source, Line: r.line, Cause: err}
		return "", r.err
	}
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
