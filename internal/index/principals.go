package index

import (
	"context"

	"moviemerge/internal/datasource"
	"moviemerge/internal/tsv"
)

// Principals maps title id to the display names of its first performers.
type Principals struct {
	m     map[string][]string
	limit int
}

// Cast returns the performer names for id in source order.
func (p *Principals) Cast(id string) []string {
	if p == nil {
		return nil
	}
	return p.m[id]
}

// Len returns the number of titles with at least one performer.
func (p *Principals) Len() int {
	if p == nil {
		return 0
	}
	return len(p.m)
}

// BuildPrincipals reads titleId, ordering, personId, category rows. Only
// actor and actress rows count. The first CastLimit performers of a title in
// encounter order are kept; later ones are ignored, never swapped in. Person
// ids are resolved through names, which must be complete.
func BuildPrincipals(ctx context.Context, src datasource.Source, names *Names, opts Options) (*Principals, Stats, error) {
	limit := opts.castLimit()
	idx := &Principals{m: make(map[string][]string, 1<<16), limit: limit}
	st, err := Scan(ctx, src, opts, 4, func(f []string) (Verdict, string) {
		switch f[3] {
		case "actor", "actress":
		default:
			return Filter, ReasonNotCast
		}
		id := tsv.Field(f[0])
		if id == "" {
			return Reject, ReasonEmptyKey
		}
		cur := idx.m[id]
		if len(cur) >= limit {
			return Filter, ReasonCastFull
		}
		if cur == nil {
			cur = make([]string, 0, limit)
		}
		idx.m[id] = append(cur, names.CastName(tsv.Field(f[2])))
		return Keep, ""
	})
	if err != nil {
		return nil, st, err
	}
	return idx, st, nil
}
