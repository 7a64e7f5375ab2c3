package index

import (
	"context"

	"moviemerge/internal/datasource"
	"moviemerge/internal/tsv"
)

// tentativeKind records which non-canonical rule produced a held value.
type tentativeKind uint8

const (
	noTentative tentativeKind = iota
	fallbackTentative
	originalTentative
)

// localeState is the resolution state of one code family (language or
// country) for one title.
//
// Precedence is canonical > original-tentative > fallback-tentative. A
// canonical value is terminal and erases any tentative value. The first
// original-flagged value replaces a fallback but never another original. The
// first fallback is only held while nothing else is.
type localeState struct {
	canonical bool
	value     string
	kind      tentativeKind
}

func (s *localeState) observe(value, canonicalValue string, isOriginal bool) {
	switch {
	case value == "" || s.canonical:
	case value == canonicalValue:
		*s = localeState{canonical: true, value: value}
	case isOriginal:
		if s.kind != originalTentative {
			s.value, s.kind = value, originalTentative
		}
	case s.kind == noTentative:
		s.value, s.kind = value, fallbackTentative
	}
}

// resolved returns the final value, if any.
func (s localeState) resolved() (string, bool) {
	if s.canonical || s.kind != noTentative {
		return s.value, true
	}
	return "", false
}

type localePair struct {
	language localeState
	country  localeState
}

// localeResolver accumulates per-title state during the akas pass.
type localeResolver struct {
	canonicalLanguage string
	canonicalCountry  string
	titles            map[string]localePair
}

func newLocaleResolver(lang, country string) *localeResolver {
	return &localeResolver{
		canonicalLanguage: lang,
		canonicalCountry:  country,
		titles:            make(map[string]localePair, 1<<16),
	}
}

func (r *localeResolver) observe(titleID, language, region string, isOriginal bool) {
	p := r.titles[titleID]
	p.language.observe(language, r.canonicalLanguage, isOriginal)
	p.country.observe(region, r.canonicalCountry, isOriginal)
	r.titles[titleID] = p
}

// resolve collapses the state into final mappings.
func (r *localeResolver) resolve() *Locale {
	l := &Locale{
		languages: make(map[string]string, len(r.titles)),
		countries: make(map[string]string, len(r.titles)),
	}
	for id, p := range r.titles {
		if v, ok := p.language.resolved(); ok {
			l.languages[id] = v
		}
		if v, ok := p.country.resolved(); ok {
			l.countries[id] = v
		}
	}
	return l
}

// Locale holds the resolved language and country code of each title.
type Locale struct {
	languages map[string]string
	countries map[string]string
}

// Language returns the resolved language code for id, or "".
func (l *Locale) Language(id string) string {
	if l == nil {
		return ""
	}
	return l.languages[id]
}

// Country returns the resolved country code for id, or "".
func (l *Locale) Country(id string) string {
	if l == nil {
		return ""
	}
	return l.countries[id]
}

// Len returns the number of titles with a language and with a country.
func (l *Locale) Len() (languages, countries int) {
	if l == nil {
		return 0, 0
	}
	return len(l.languages), len(l.countries)
}

// BuildLocale reads alternate-title rows (region at index 3, language at 4,
// isOriginalTitle at 7) and resolves one language and one country per title.
func BuildLocale(ctx context.Context, src datasource.Source, opts Options) (*Locale, Stats, error) {
	lang, country := opts.canonical()
	res := newLocaleResolver(lang, country)
	st, err := Scan(ctx, src, opts, 8, func(f []string) (Verdict, string) {
		id := tsv.Field(f[0])
		if id == "" {
			return Reject, ReasonEmptyKey
		}
		region, language := tsv.Field(f[3]), tsv.Field(f[4])
		if region == "" && language == "" {
			return Filter, ReasonNoLocale
		}
		res.observe(id, language, region, f[7] == "1")
		return Keep, ""
	})
	if err != nil {
		return nil, st, err
	}
	return res.resolve(), st, nil
}
