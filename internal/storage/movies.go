package storage

import (
	"strings"

	"moviemerge/internal/merge"
)

// MovieColumns is the insert column order of the movies table. The surrogate
// id column is generated by the store.
var MovieColumns = []string{
	"imdb_id",
	"title",
	"original_title",
	"year",
	"rating",
	"votes",
	"duration_mins",
	"duration_text",
	"genres",
	"directors",
	"writers",
	"cast",
	"language",
	"country",
	"isAdult",
}

// IndexedColumns are the columns that get a lookup index.
var IndexedColumns = []string{"title", "year", "rating", "votes", "genres", "language", "country", "isAdult"}

// MovieRow converts r to values aligned with MovieColumns. Empty optional
// text becomes NULL.
func MovieRow(r *merge.Record) []any {
	adult := 0
	if r.IsAdult {
		adult = 1
	}
	runtime := r.RuntimeText
	if runtime == "" {
		runtime = merge.RuntimeLabel(r.RuntimeMins)
	}
	return []any{
		r.TitleID,
		r.PrimaryTitle,
		nullable(r.OriginalTitle),
		r.Year,
		r.Rating,
		r.Votes,
		r.RuntimeMins,
		runtime,
		strings.Join(r.Genres, merge.GenreSep),
		nullable(strings.Join(r.Directors, merge.PersonSep)),
		nullable(strings.Join(r.Writers, merge.PersonSep)),
		nullable(strings.Join(r.Cast, merge.PersonSep)),
		nullable(r.Language),
		nullable(r.Country),
		adult,
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
