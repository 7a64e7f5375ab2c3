package report

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"moviemerge/internal/index"
	"moviemerge/internal/pipeline"
	"moviemerge/internal/tsv"
)

func TestStageStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stage pipeline.Stage
		want  string
	}{
		{"ok", pipeline.Stage{}, StatusOK},
		{"truncated", pipeline.Stage{Stats: index.Stats{Truncated: &tsv.TruncatedError{Line: 42, Cause: io.ErrUnexpectedEOF}}}, "truncated @42"},
		{"unavailable wins", pipeline.Stage{
			Stats: index.Stats{Truncated: &tsv.TruncatedError{Line: 1}},
			Err:   errors.New("missing"),
		}, StatusUnavailable},
	}
	for _, tt := range tests {
		if got := StageStatus(tt.stage); got != tt.want {
			t.Errorf("%s: StageStatus = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMerge_RendersStagesInOrder(t *testing.T) {
	t.Parallel()

	res := &pipeline.Result{
		Stages: map[string]pipeline.Stage{
			pipeline.StageBasics:  {Stats: index.Stats{Rows: 1234567, Retained: 250000, Duration: 2 * time.Second}},
			pipeline.StageRatings: {Stats: index.Stats{Rows: 10, Retained: 9, Skipped: 1}},
			pipeline.StageNames:   {Err: errors.New("open: no such file")},
		},
		Records: 250000,
		Bytes:   42_000_000,
		Digest:  "00000000deadbeef",
	}
	out := Merge(res)

	for _, want := range []string{"1,234,567", "250,000", "unavailable", "xxh3 00000000deadbeef", "42 MB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	r, n, b := strings.Index(out, "ratings"), strings.Index(out, "names"), strings.Index(out, "basics")
	if r < 0 || n < 0 || b < 0 || !(r < n && n < b) {
		t.Fatalf("stages out of order:\n%s", out)
	}
	if strings.Contains(out, "principals") {
		t.Fatalf("absent stage rendered:\n%s", out)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Fprint(&buf, Load(LoadSummary{Table: "movies", Lines: 3000, Inserted: 2990, Malformed: 10, Batches: 1})); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"MOVIES", "3,000", "2,990", "malformed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("load summary missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected trailing newline")
	}
}
