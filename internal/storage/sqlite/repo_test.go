package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"moviemerge/internal/storage"
)

func newMemRepo(tb testing.TB, table string) *Repository {
	tb.Helper()
	db, err := Open(":memory:")
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return New(db, table)
}

func mustExecAll(tb testing.TB, r *Repository, stmts []string) {
	tb.Helper()
	if err := storage.ExecAll(context.Background(), r, stmts); err != nil {
		tb.Fatal(err)
	}
}

func TestCopyFrom_InsertsMovieRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newMemRepo(t, "movies")
	mustExecAll(t, r, createStatements("movies"))

	rows := [][]any{
		{"tt1", "Foo", nil, 1999, 8.5, int64(1000), 90, "90 mins.", "Drama|Comedy", "Ada, Bob", nil, "Cy", "en", "US", 0},
		{"tt2", "Bar", "Barre", 2001, 6.0, int64(20), 100, "100 mins.", "Horror", nil, nil, nil, nil, nil, 1},
	}
	n, err := r.CopyFrom(ctx, storage.MovieColumns, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}

	var (
		title   string
		orig    sql.NullString
		cast    sql.NullString
		adult   int
		rating  float64
		runtime int
	)
	err = r.DB().QueryRowContext(ctx,
		`SELECT title, original_title, "cast", isAdult, rating, duration_mins FROM movies WHERE imdb_id = ?`, "tt1").
		Scan(&title, &orig, &cast, &adult, &rating, &runtime)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if title != "Foo" || orig.Valid || cast.String != "Cy" || adult != 0 || rating != 8.5 || runtime != 90 {
		t.Fatalf("row = %q %v %v %d %v %d", title, orig, cast, adult, rating, runtime)
	}
}

func TestCopyFrom_RowLengthMismatchRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newMemRepo(t, "t")
	if err := r.Exec(ctx, `CREATE TABLE "t" (a TEXT, b TEXT)`); err != nil {
		t.Fatal(err)
	}

	_, err := r.CopyFrom(ctx, []string{"a", "b"}, [][]any{{"1", "2"}, {"only"}})
	if err == nil {
		t.Fatal("expected row length error")
	}
	var n int
	if err := r.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "t"`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback = %d, want 0", n)
	}
}

func TestCopyFrom_DuplicateImdbIDFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newMemRepo(t, "movies")
	mustExecAll(t, r, createStatements("movies"))

	row := []any{"tt1", "Foo", nil, 1999, 8.5, int64(1), 90, "90 mins.", "Drama", nil, nil, nil, nil, nil, 0}
	if _, err := r.CopyFrom(ctx, storage.MovieColumns, [][]any{row, row}); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestIndexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newMemRepo(t, "movies")
	mustExecAll(t, r, createStatements("movies"))
	mustExecAll(t, r, indexStatements("movies"))
	// Idempotent.
	mustExecAll(t, r, indexStatements("movies"))
	mustExecAll(t, r, optimizeStatements("movies"))

	rows, err := r.DB().QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_movies_%' ORDER BY name`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatal(err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if len(names) != len(storage.IndexedColumns) {
		t.Fatalf("indexes = %v", names)
	}
	if !strings.Contains(indexStatements("movies")[0], "COLLATE NOCASE") {
		t.Fatalf("title index should be case-insensitive: %s", indexStatements("movies")[0])
	}
}

func TestLoadFile_ThroughRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()

	merged := "tt1\tFoo\t\t1999\t8.5\t1000\t90 mins.\tDrama|Comedy\tAda, Bob\t\tCy\ten\tUS\t0\n" +
		"tt2\tBar\tBarre\t2001\t6.0\t20\t100 mins.\tHorror\n" +
		"tt3\tOld\t1950\t7.0\t5\t75 mins.\tNoir\n"
	st, err := storage.LoadFile(ctx, repo, strings.NewReader(merged), storage.LoadOptions{
		Kind:          "sqlite",
		BatchSize:     2,
		Replace:       true,
		CreateIndexes: true,
	})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if st.Inserted != 2 || st.Malformed != 1 {
		t.Fatalf("stats = %+v", st)
	}

	db := repo.(*wrappedRepo).DB()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies WHERE title = 'foo' COLLATE NOCASE`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("case-insensitive title match = %d", n)
	}
	var orig sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT original_title FROM movies WHERE imdb_id = 'tt3'`).Scan(&orig); err != nil {
		t.Fatal(err)
	}
	if orig.Valid {
		t.Fatalf("legacy 7-field row should have NULL original_title, got %q", orig.String)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()
	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
