package merge

import (
	"bufio"
	"io"
)

// Writer serializes records to an underlying stream. Each record is encoded
// into a reused scratch buffer and handed to the buffered writer at once;
// nothing beyond the current record is retained.
type Writer struct {
	bw      *bufio.Writer
	scratch []byte
	records int64
	bytes   int64
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 256<<10), scratch: make([]byte, 0, 512)}
}

// Write validates and appends r. ErrUnsafeText is returned without writing
// anything; other errors come from the underlying writer and are sticky.
func (w *Writer) Write(r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	w.scratch = r.AppendTSV(w.scratch[:0])
	n, err := w.bw.Write(w.scratch)
	w.bytes += int64(n)
	if err != nil {
		return err
	}
	w.records++
	return nil
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.bw.Flush() }

// Records returns the number of records written.
func (w *Writer) Records() int64 { return w.records }

// Bytes returns the number of bytes accepted so far.
func (w *Writer) Bytes() int64 { return w.bytes }
