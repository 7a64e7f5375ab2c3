package index

import (
	"context"
	"reflect"
	"testing"
)

func TestBuildPrincipals_FirstThreeByEncounterOrder(t *testing.T) {
	t.Parallel()

	names := mustNames(t, "nmA", "A", "nmB", "B", "nmC", "C", "nmD", "D", "nmE", "E")
	s := src("principals",
		"tconst\tordering\tnconst\tcategory\tjob\tcharacters",
		"tt1\t1\tnmA\tactor\t\\N\t\\N",
		"tt1\t2\tnmB\tdirector\t\\N\t\\N",
		"tt1\t3\tnmC\tactress\t\\N\t\\N",
		"tt1\t4\tnmD\tactor\t\\N\t\\N",
		"tt1\t5\tnmE\tactress\t\\N\t\\N",
	)
	p, st, err := BuildPrincipals(context.Background(), s, names, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Cast("tt1"), []string{"A", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Cast(tt1) = %q, want %q", got, want)
	}
	if st.Reasons[ReasonNotCast] != 1 || st.Reasons[ReasonCastFull] != 1 || st.Retained != 3 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestBuildPrincipals_UnknownAndPerTitle(t *testing.T) {
	t.Parallel()

	names := mustNames(t, "nm1", "Ada")
	s := src("principals",
		"tconst\tordering\tnconst\tcategory",
		"tt1\t1\tnm404\tactor",
		"tt2\t1\tnm1\tactress",
		"tt1\t2\tnm1\tself",
		"tt1\t3\tnm1\tactor",
		"tt3\t1",
	)
	p, st, err := BuildPrincipals(context.Background(), s, names, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Cast("tt1"); !reflect.DeepEqual(got, []string{UnknownName, "Ada"}) {
		t.Fatalf("Cast(tt1) = %q", got)
	}
	if got := p.Cast("tt2"); !reflect.DeepEqual(got, []string{"Ada"}) {
		t.Fatalf("Cast(tt2) = %q", got)
	}
	if p.Len() != 2 || st.Skipped != 1 {
		t.Fatalf("Len = %d, stats = %+v", p.Len(), st)
	}
}

func TestBuildPrincipals_CustomLimit(t *testing.T) {
	t.Parallel()

	names := mustNames(t, "nm1", "One", "nm2", "Two")
	s := src("principals",
		"tconst\tordering\tnconst\tcategory",
		"tt1\t1\tnm1\tactor",
		"tt1\t2\tnm2\tactor",
	)
	p, _, err := BuildPrincipals(context.Background(), s, names, Options{CastLimit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Cast("tt1"); !reflect.DeepEqual(got, []string{"One"}) {
		t.Fatalf("Cast(tt1) = %q", got)
	}
}
