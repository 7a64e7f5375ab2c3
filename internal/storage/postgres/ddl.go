package postgres

import (
	"fmt"
	"strings"

	"moviemerge/internal/storage"
)

func dropStatements(table string) []string {
	return []string{"DROP TABLE IF EXISTS " + pgFQN(table)}
}

// Column names are quoted so that "cast" and "isAdult" survive as written.
func createStatements(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"id" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	"imdb_id" TEXT NOT NULL UNIQUE,
	"title" TEXT NOT NULL,
	"original_title" TEXT,
	"year" INTEGER NOT NULL,
	"rating" DOUBLE PRECISION NOT NULL,
	"votes" BIGINT NOT NULL,
	"duration_mins" INTEGER NOT NULL,
	"duration_text" TEXT NOT NULL,
	"genres" TEXT NOT NULL,
	"directors" TEXT,
	"writers" TEXT,
	"cast" TEXT,
	"language" TEXT,
	"country" TEXT,
	"isAdult" INTEGER NOT NULL DEFAULT 0
)`, pgFQN(table))}
}

func indexStatements(table string) []string {
	base := splitFQN(table)
	short := base[len(base)-1]
	out := make([]string, 0, len(storage.IndexedColumns))
	for _, col := range storage.IndexedColumns {
		expr := pgIdent(col)
		if col == "title" {
			expr = "lower(" + expr + ")"
		}
		name := fmt.Sprintf("idx_%s_%s", short, strings.ToLower(col))
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", pgIdent(name), pgFQN(table), expr))
	}
	return out
}

func optimizeStatements(table string) []string {
	return []string{"ANALYZE " + pgFQN(table)}
}
