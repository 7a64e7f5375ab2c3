package index

import (
	"context"

	"moviemerge/internal/datasource"
	"moviemerge/internal/tsv"
)

// UnknownName stands in for a cast member whose person id has no name.
const UnknownName = "Unknown"

// Names maps person id to display name.
type Names struct {
	m map[string]string
}

// Lookup returns the display name for id.
func (n *Names) Lookup(id string) (string, bool) {
	if n == nil {
		return "", false
	}
	v, ok := n.m[id]
	return v, ok
}

// CastName returns the display name for id, or UnknownName.
func (n *Names) CastName(id string) string {
	if v, ok := n.Lookup(id); ok {
		return v
	}
	return UnknownName
}

// Len returns the number of named persons.
func (n *Names) Len() int {
	if n == nil {
		return 0
	}
	return len(n.m)
}

// BuildNames reads personId, primaryName rows; further columns are ignored.
// Rows whose name is absent are filtered so that lookups treat the person as
// unnamed.
func BuildNames(ctx context.Context, src datasource.Source, opts Options) (*Names, Stats, error) {
	idx := &Names{m: make(map[string]string, 1<<16)}
	st, err := Scan(ctx, src, opts, 2, func(f []string) (Verdict, string) {
		id := tsv.Field(f[0])
		if id == "" {
			return Reject, ReasonEmptyKey
		}
		name := tsv.Field(f[1])
		if name == "" {
			return Filter, ReasonAbsentName
		}
		idx.m[id] = opts.Text(name)
		return Keep, ""
	})
	if err != nil {
		return nil, st, err
	}
	return idx, st, nil
}
