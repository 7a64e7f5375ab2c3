package merge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"moviemerge/internal/datasource"
	"moviemerge/internal/index"
	"moviemerge/internal/tsv"
)

// Indexes bundles the completed lookup tables. Any of them may be nil, which
// behaves like an empty index.
type Indexes struct {
	Ratings    *index.Ratings
	Crew       *index.Crew
	Names      *index.Names
	Principals *index.Principals
	Locale     *index.Locale
}

// Options tunes the join.
type Options struct {
	index.Options
	// CrewLimit caps directors and writers per title (default 3). The cap
	// applies to ids before name resolution.
	CrewLimit int
}

func (o Options) crewLimit() int {
	if o.CrewLimit <= 0 {
		return 3
	}
	return o.CrewLimit
}

// Join streams the title attributes source and writes one record per
// qualifying movie to w. A title qualifies when its type is "movie", it has
// a rating, and its year, runtime and genres are present.
//
// Rejected rows are counted in the returned Stats; a truncated source ends the
// pass with the records written so far. An error is returned only if src
// cannot be opened, ctx is canceled, or w fails.
func Join(ctx context.Context, src datasource.Source, idx Indexes, w *Writer, opts Options) (index.Stats, error) {
	crewLimit := opts.crewLimit()
	var (
		rec      Record
		writeErr error
	)

	st, err := index.Scan(ctx, src, opts.Options, 9, func(f []string) (index.Verdict, string) {
		if f[1] != "movie" {
			return index.Filter, index.ReasonNotMovie
		}
		id := tsv.Field(f[0])
		if id == "" {
			return index.Reject, index.ReasonEmptyKey
		}
		rating, ok := idx.Ratings.Get(id)
		if !ok {
			return index.Filter, index.ReasonNoRating
		}
		if tsv.IsAbsent(f[5]) || tsv.IsAbsent(f[7]) || tsv.IsAbsent(f[8]) {
			return index.Filter, index.ReasonMissingAttr
		}
		year, err := strconv.Atoi(f[5])
		if err != nil {
			return index.Reject, index.ReasonBadYear
		}
		runtime, err := strconv.Atoi(f[7])
		if err != nil || runtime < 0 {
			return index.Reject, index.ReasonBadRuntime
		}

		primary := opts.Text(f[2])
		original := tsv.Field(f[3])
		if original != "" {
			original = opts.Text(original)
		}
		if original == primary {
			original = ""
		}

		rec = Record{
			TitleID:       id,
			PrimaryTitle:  primary,
			OriginalTitle: original,
			Year:          year,
			Rating:        rating.Average,
			Votes:         rating.Votes,
			RuntimeMins:   runtime,
			RuntimeText:   f[7] + " mins.",
			Genres:        strings.Split(f[8], ","),
			Cast:          idx.Principals.Cast(id),
			Language:      idx.Locale.Language(id),
			Country:       idx.Locale.Country(id),
			IsAdult:       f[4] == "1",
		}
		if crew, ok := idx.Crew.Get(id); ok {
			rec.Directors = resolveNames(idx.Names, crew.Directors, crewLimit)
			rec.Writers = resolveNames(idx.Names, crew.Writers, crewLimit)
		}

		if err := w.Write(&rec); err != nil {
			if errors.Is(err, ErrUnsafeText) {
				return index.Reject, index.ReasonUnsafeText
			}
			writeErr = err
			return index.Stop, ""
		}
		return index.Keep, ""
	})
	if err != nil {
		return st, err
	}
	if writeErr != nil {
		return st, fmt.Errorf("merge: write output: %w", writeErr)
	}
	if err := w.Flush(); err != nil {
		return st, fmt.Errorf("merge: flush output: %w", err)
	}
	return st, nil
}

// resolveNames maps the first limit ids to names, omitting unnamed ids.
func resolveNames(names *index.Names, ids []string, limit int) []string {
	if len(ids) > limit {
		ids = ids[:limit]
	}
	var out []string
	for _, id := range ids {
		if n, ok := names.Lookup(id); ok {
			out = append(out, n)
		}
	}
	return out
}
