package index

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// memSource serves data as an extract; when failAfter is set, reading past
// data returns that error instead of EOF.
type memSource struct {
	name      string
	data      string
	failAfter error
	openErr   error
}

func (m memSource) Name() string { return m.name }

func (m memSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	var r io.Reader = strings.NewReader(m.data)
	if m.failAfter != nil {
		r = io.MultiReader(r, iotest.ErrReader(m.failAfter))
	}
	return io.NopCloser(r), nil
}

func src(name string, lines ...string) memSource {
	return memSource{name: name, data: strings.Join(lines, "\n") + "\n"}
}

var errCut = errors.New("unexpected EOF in gzip stream")

func mustNames(t *testing.T, pairs ...string) *Names {
	t.Helper()
	lines := []string{"nconst\tprimaryName"}
	for i := 0; i+1 < len(pairs); i += 2 {
		lines = append(lines, pairs[i]+"\t"+pairs[i+1])
	}
	n, _, err := BuildNames(context.Background(), src("names", lines...), Options{})
	if err != nil {
		t.Fatalf("BuildNames: %v", err)
	}
	return n
}
