package index

import (
	"context"
	"reflect"
	"testing"
)

func TestBuildCrew(t *testing.T) {
	t.Parallel()

	s := src("crew",
		"tconst\tdirectors\twriters",
		"tt1\tnm01,nm02\t\\N",
		"tt2\t\\N\tnm05,nm04,nm03,nm09",
		"tt3\tnm07",
	)
	c, st, err := BuildCrew(context.Background(), s, Options{})
	if err != nil {
		t.Fatal(err)
	}

	e, ok := c.Get("tt1")
	if !ok || !reflect.DeepEqual(e.Directors, []string{"nm01", "nm02"}) || e.Writers != nil {
		t.Fatalf("tt1 = %+v", e)
	}
	e, _ = c.Get("tt2")
	if e.Directors != nil || !reflect.DeepEqual(e.Writers, []string{"nm05", "nm04", "nm03", "nm09"}) {
		t.Fatalf("tt2 = %+v; source order must be preserved", e)
	}
	if _, ok := c.Get("tt3"); ok || st.Skipped != 1 {
		t.Fatalf("short row should be skipped; stats = %+v", st)
	}
}

func TestSplitIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{`\N`, nil},
		{"", nil},
		{"nm1", []string{"nm1"}},
		{"nm1,,nm2,", []string{"nm1", "nm2"}},
	}
	for _, tt := range tests {
		if got := splitIDs(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitIDs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildNames(t *testing.T) {
	t.Parallel()

	s := src("names",
		"nconst\tprimaryName\tbirthYear",
		"nm01\tAda\t1815",
		"nm02\t\\N\t\\N",
		"nm03\tBob",
		"nm01\tAda Lovelace\t1815",
	)
	n, st, err := BuildNames(context.Background(), s, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := n.Lookup("nm01"); !ok || v != "Ada Lovelace" {
		t.Fatalf("nm01 = %q, %v", v, ok)
	}
	if _, ok := n.Lookup("nm02"); ok {
		t.Fatal("absent name must not be indexed")
	}
	if n.CastName("nm02") != UnknownName || n.CastName("nm99") != UnknownName {
		t.Fatal("CastName should fall back to Unknown")
	}
	if st.Filtered != 1 || st.Reasons[ReasonAbsentName] != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestBuildNames_Normalize(t *testing.T) {
	t.Parallel()

	decomposed := "Zoe\u0301"
	s := src("names", "nconst\tprimaryName", "nm1\t"+decomposed)

	raw, _, _ := BuildNames(context.Background(), s, Options{})
	if v, _ := raw.Lookup("nm1"); v != decomposed {
		t.Fatalf("without Normalize the name must be byte-identical, got %q", v)
	}
	nfc, _, _ := BuildNames(context.Background(), s, Options{Normalize: true})
	if v, _ := nfc.Lookup("nm1"); v != "Zo\u00e9" {
		t.Fatalf("normalized = %q, want %q", v, "Zo\u00e9")
	}
}

func TestNilIndexesAreEmpty(t *testing.T) {
	t.Parallel()

	var (
		r *Ratings
		c *Crew
		n *Names
		p *Principals
		l *Locale
	)
	if _, ok := r.Get("x"); ok || r.Len() != 0 {
		t.Fatal("nil Ratings")
	}
	if _, ok := c.Get("x"); ok || c.Len() != 0 {
		t.Fatal("nil Crew")
	}
	if n.CastName("x") != UnknownName || n.Len() != 0 {
		t.Fatal("nil Names")
	}
	if p.Cast("x") != nil || p.Len() != 0 {
		t.Fatal("nil Principals")
	}
	if l.Language("x") != "" || l.Country("x") != "" {
		t.Fatal("nil Locale")
	}
}
