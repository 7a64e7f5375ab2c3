package sqlite

import (
	"fmt"
	"strings"

	"moviemerge/internal/storage"
)

func dropStatements(table string) []string {
	return []string{"DROP TABLE IF EXISTS " + quoteIdent(table)}
}

func createStatements(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	imdb_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	original_title TEXT,
	year INTEGER NOT NULL,
	rating REAL NOT NULL,
	votes INTEGER NOT NULL,
	duration_mins INTEGER NOT NULL,
	duration_text TEXT NOT NULL,
	genres TEXT NOT NULL,
	directors TEXT,
	writers TEXT,
	"cast" TEXT,
	language TEXT,
	country TEXT,
	isAdult INTEGER NOT NULL DEFAULT 0
)`, quoteIdent(table))}
}

func indexStatements(table string) []string {
	out := make([]string, 0, len(storage.IndexedColumns))
	for _, col := range storage.IndexedColumns {
		expr := quoteIdent(col)
		if col == "title" {
			expr += " COLLATE NOCASE"
		}
		name := fmt.Sprintf("idx_%s_%s", table, strings.ToLower(col))
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", quoteIdent(name), quoteIdent(table), expr))
	}
	return out
}

func optimizeStatements(string) []string {
	return []string{"ANALYZE"}
}
