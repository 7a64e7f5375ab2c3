// Package file implements a local filesystem data source with transparent
// gzip decompression.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Local opens an extract from the local disk. Files starting with the gzip
// magic bytes are decompressed on the fly; anything else is returned as-is,
// which keeps plain-text fixtures usable in tests.
type Local struct {
	name string
	path string
}

// NewLocal returns a Local source called name, reading path.
func NewLocal(name, path string) *Local { return &Local{name: name, path: path} }

// Name implements datasource.Source.
func (l *Local) Name() string { return l.name }

// Path returns the configured filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading.
//
// A canceled context is reported without touching the filesystem. Errors keep
// their cause for errors.Is checks (e.g. os.ErrNotExist). A file with a
// corrupt gzip header fails here; corruption later in the stream surfaces as
// a read error from the returned reader.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}

	br := bufio.NewReaderSize(f, 64<<10)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		_ = f.Close()
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return &readCloser{Reader: br, closers: []io.Closer{f}}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gzip %s: %w", l.path, err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
