// Package datasource defines how the pipeline obtains raw extract bytes.
package datasource

import (
	"context"
	"io"
)

// Source yields a decompressed byte stream for one extract.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs, metrics and skip files.
	Name() string
}
