package httpds

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moviemerge/internal/logging"

	"github.com/rs/zerolog"
)

// FetchResult describes one Fetch call.
type FetchResult struct {
	Path     string
	Skipped  bool // destination already existed
	Bytes    int64
	Duration time.Duration
}

// Fetcher downloads extracts into a directory.
type Fetcher struct {
	client *Client
	log    zerolog.Logger
	// progressEvery controls how often (in bytes) progress is logged.
	progressEvery int64
}

// NewFetcher returns a Fetcher using c.
func NewFetcher(c *Client) *Fetcher {
	return &Fetcher{
		client:        c,
		log:           logging.Component("fetch"),
		progressEvery: 64 << 20,
	}
}

// Fetch downloads url to dest unless dest already exists. The body is
// streamed into a temp file in dest's directory which is renamed into place
// once the copy completes, so an interrupted download never leaves a partial
// file at dest.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (FetchResult, error) {
	start := time.Now()
	res := FetchResult{Path: dest}

	if st, err := os.Stat(dest); err == nil && st.Mode().IsRegular() {
		res.Skipped = true
		res.Bytes = st.Size()
		f.log.Info().Str("path", dest).Str("size", logging.Bytes(st.Size())).Msg("already present, skipping download")
		return res, nil
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("fetch: mkdir %s: %w", dir, err)
	}

	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return res, fmt.Errorf("fetch: create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	f.log.Info().Str("url", url).Str("size", logging.Bytes(resp.ContentLength)).Msg("downloading")

	pw := &progressWriter{w: tmp, every: f.progressEvery, total: resp.ContentLength, log: f.log, name: filepath.Base(dest)}
	n, err := io.Copy(pw, resp.Body)
	if err != nil {
		return res, fmt.Errorf("fetch %s: copy: %w", url, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return res, fmt.Errorf("fetch %s: short body: got %d of %d bytes", url, n, resp.ContentLength)
	}
	if err := tmp.Sync(); err != nil {
		return res, fmt.Errorf("fetch: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("fetch: close: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return res, fmt.Errorf("fetch: rename: %w", err)
	}
	committed = true

	res.Bytes = n
	res.Duration = time.Since(start)
	f.log.Info().Str("path", dest).Str("size", logging.Bytes(n)).Dur("took", res.Duration).Msg("download complete")
	return res, nil
}

// FetchAll downloads each named file from baseURL into dir, stopping at the
// first failure.
func (f *Fetcher) FetchAll(ctx context.Context, baseURL, dir string, files []string) ([]FetchResult, error) {
	base := strings.TrimRight(baseURL, "/")
	out := make([]FetchResult, 0, len(files))
	for _, name := range files {
		r, err := f.Fetch(ctx, base+"/"+name, filepath.Join(dir, name))
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

type progressWriter struct {
	w       io.Writer
	every   int64
	total   int64
	written int64
	next    int64
	log     zerolog.Logger
	name    string
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.every > 0 && p.written >= p.next+p.every {
		p.next = p.written - p.written%p.every
		ev := p.log.Debug().Str("file", p.name).Str("written", logging.Bytes(p.written))
		if p.total > 0 {
			ev = ev.Float64("pct", float64(p.written)*100/float64(p.total))
		}
		ev.Msg("download progress")
	}
	return n, err
}
