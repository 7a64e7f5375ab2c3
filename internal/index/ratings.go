package index

import (
	"context"
	"math"
	"strconv"

	"moviemerge/internal/datasource"
	"moviemerge/internal/tsv"
)

// Rating is the aggregate user rating of a title.
type Rating struct {
	Average float64
	Votes   int64
}

// FormatAverage renders Average with one fractional digit.
func (r Rating) FormatAverage() string {
	return strconv.FormatFloat(r.Average, 'f', 1, 64)
}

// Ratings maps title id to Rating.
type Ratings struct {
	m map[string]Rating
}

// Get returns the rating for id.
func (r *Ratings) Get(id string) (Rating, bool) {
	if r == nil {
		return Rating{}, false
	}
	v, ok := r.m[id]
	return v, ok
}

// Len returns the number of titles with a rating.
func (r *Ratings) Len() int {
	if r == nil {
		return 0
	}
	return len(r.m)
}

// BuildRatings reads titleId, averageRating, numVotes rows. A malformed row
// never replaces an earlier valid entry for the same title; a valid duplicate
// does (last write wins).
func BuildRatings(ctx context.Context, src datasource.Source, opts Options) (*Ratings, Stats, error) {
	idx := &Ratings{m: make(map[string]Rating, 1<<16)}
	st, err := Scan(ctx, src, opts, 3, func(f []string) (Verdict, string) {
		id := tsv.Field(f[0])
		if id == "" {
			return Reject, ReasonEmptyKey
		}
		avg, err := strconv.ParseFloat(f[1], 64)
		if err != nil || math.IsNaN(avg) || math.IsInf(avg, 0) {
			return Reject, ReasonBadRating
		}
		votes, err := strconv.ParseInt(f[2], 10, 64)
		if err != nil || votes < 0 {
			return Reject, ReasonBadVotes
		}
		idx.m[id] = Rating{Average: avg, Votes: votes}
		return Keep, ""
	})
	if err != nil {
		return nil, st, err
	}
	return idx, st, nil
}
