package index

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moviemerge/internal/skiplog"
)

func TestScan_WritesRejectsToSkipLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sl, err := skiplog.Create(dir, "ratings")
	if err != nil {
		t.Fatal(err)
	}
	s := src("ratings",
		"tconst\taverageRating\tnumVotes",
		"tt1\tx\t1",
		"tt2\t5.0\t2",
		"tt3",
	)
	if _, _, err := BuildRatings(context.Background(), s, Options{SkipLog: sl}); err != nil {
		t.Fatal(err)
	}
	if err := sl.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "ratings.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %q, want header + 2", rows)
	}
	if rows[1][0] != ReasonBadRating || rows[1][1] != "2" || rows[1][2] != "tt1\tx\t1" {
		t.Fatalf("row 1 = %q", rows[1])
	}
	if rows[2][0] != ReasonShortRow || rows[2][1] != "4" {
		t.Fatalf("row 2 = %q", rows[2])
	}
}

func TestScan_FilteredRowsAreNotSkipLogged(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sl, _ := skiplog.Create(dir, "p")
	st, err := Scan(context.Background(), src("p", "h", "a", "b"), Options{SkipLog: sl}, 1,
		func([]string) (Verdict, string) { return Filter, "policy" })
	if err != nil {
		t.Fatal(err)
	}
	_ = sl.Close()
	if st.Filtered != 2 || sl.Written() != 0 {
		t.Fatalf("Filtered = %d, Written = %d", st.Filtered, sl.Written())
	}
}

func TestScan_Cancellation(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("h\n")
	for i := 0; i < 10000; i++ {
		b.WriteString("x\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, memSource{name: "big", data: b.String()}, Options{}, 1,
		func([]string) (Verdict, string) { return Keep, "" })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
