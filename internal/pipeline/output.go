package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/zeebo/xxh3"
)

// ErrLocked is returned when another run holds the output lock.
var ErrLocked = errors.New("pipeline: output is locked by another run")

// output writes to <path>.tmp-<runid> and renames it over path on commit.
// The bytes written are hashed as they pass through.
type output struct {
	path string
	tmp  string
	f    *os.File
	h    *xxh3.Hasher
	w    io.Writer
	lock *flock.Flock
	done bool
}

func createOutput(path, runID string) (*output, error) {
	if path == "" {
		return nil, errors.New("pipeline: output path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pipeline: create output dir: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("pipeline: lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}

	tmp := path + ".tmp-" + runID
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("pipeline: create temp output: %w", err)
	}
	h := xxh3.New()
	return &output{path: path, tmp: tmp, f: f, h: h, w: io.MultiWriter(f, h), lock: lock}, nil
}

func (o *output) Write(p []byte) (int, error) { return o.w.Write(p) }

// commit syncs the temp file and renames it into place.
func (o *output) commit() error {
	if err := o.f.Sync(); err != nil {
		return fmt.Errorf("pipeline: sync output: %w", err)
	}
	if err := o.f.Close(); err != nil {
		return fmt.Errorf("pipeline: close output: %w", err)
	}
	if err := os.Rename(o.tmp, o.path); err != nil {
		return fmt.Errorf("pipeline: rename output: %w", err)
	}
	o.done = true
	return o.lock.Unlock()
}

// abort removes the temp file unless commit succeeded, and releases the lock.
func (o *output) abort() {
	if !o.done {
		_ = o.f.Close()
		_ = os.Remove(o.tmp)
	}
	_ = o.lock.Unlock()
}

func (o *output) digest() string {
	return fmt.Sprintf("%016x", o.h.Sum64())
}

// fileDigest hashes an existing file the same way a run hashes its output.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

