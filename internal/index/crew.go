package index

import (
	"context"
	"strings"

	"moviemerge/internal/datasource"
	"moviemerge/internal/tsv"
)

// CrewEntry holds the director and writer ids of a title in source order.
type CrewEntry struct {
	Directors []string
	Writers   []string
}

// Crew maps title id to CrewEntry.
type Crew struct {
	m map[string]CrewEntry
}

// Get returns the crew for id.
func (c *Crew) Get(id string) (CrewEntry, bool) {
	if c == nil {
		return CrewEntry{}, false
	}
	v, ok := c.m[id]
	return v, ok
}

// Len returns the number of titles with a crew row.
func (c *Crew) Len() int {
	if c == nil {
		return 0
	}
	return len(c.m)
}

// BuildCrew reads titleId, directors, writers rows where both lists are
// comma-separated person ids or `\N`.
func BuildCrew(ctx context.Context, src datasource.Source, opts Options) (*Crew, Stats, error) {
	idx := &Crew{m: make(map[string]CrewEntry, 1<<16)}
	st, err := Scan(ctx, src, opts, 3, func(f []string) (Verdict, string) {
		id := tsv.Field(f[0])
		if id == "" {
			return Reject, ReasonEmptyKey
		}
		idx.m[id] = CrewEntry{
			Directors: splitIDs(f[1]),
			Writers:   splitIDs(f[2]),
		}
		return Keep, ""
	})
	if err != nil {
		return nil, st, err
	}
	return idx, st, nil
}

// splitIDs splits a comma-separated id list, dropping empty elements.
func splitIDs(s string) []string {
	s = tsv.Field(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && !tsv.IsAbsent(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
