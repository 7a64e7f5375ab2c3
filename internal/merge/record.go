// Package merge joins the title attributes extract against the prebuilt
// indexes and serializes one denormalized record per qualifying movie.
//
// Output lines have exactly fourteen tab-separated fields:
//
//	titleId primaryTitle originalTitle year rating votes "N mins." genres
//	directors writers cast language country isAdult
//
// genres are joined with "|", person lists with ", ". The layout is consumed
// positionally by the loader, so it must not change.
package merge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldCount is the number of fields in an output line.
const FieldCount = 14

// Output delimiters.
const (
	GenreSep  = "|"
	PersonSep = ", "
)

// ErrUnsafeText reports a text field containing a tab, CR or LF, which would
// corrupt the line-oriented output.
var ErrUnsafeText = errors.New("merge: field contains tab or newline")

// ErrMalformed reports an output line that cannot be decoded.
var ErrMalformed = errors.New("merge: malformed record")

// Record is one merged movie.
type Record struct {
	TitleID       string
	PrimaryTitle  string
	OriginalTitle string // empty unless different from PrimaryTitle
	Year          int
	Rating        float64
	Votes         int64
	RuntimeMins   int
	RuntimeText   string // e.g. "90 mins."
	Genres        []string
	Directors     []string
	Writers       []string
	Cast          []string
	Language      string
	Country       string
	IsAdult       bool
}

// RuntimeLabel renders minutes the way the output stores them.
func RuntimeLabel(mins int) string {
	return strconv.Itoa(mins) + " mins."
}

// Validate returns ErrUnsafeText if any text field contains a tab or newline.
func (r *Record) Validate() error {
	check := func(name, v string) error {
		if strings.ContainsAny(v, "\t\r\n") {
			return fmt.Errorf("%w: %s of %s", ErrUnsafeText, name, r.TitleID)
		}
		return nil
	}
	for _, f := range []struct{ name, v string }{
		{"titleId", r.TitleID},
		{"primaryTitle", r.PrimaryTitle},
		{"originalTitle", r.OriginalTitle},
		{"runtime", r.RuntimeText},
		{"language", r.Language},
		{"country", r.Country},
	} {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}
	for _, l := range []struct {
		name string
		vs   []string
	}{
		{"genres", r.Genres},
		{"directors", r.Directors},
		{"writers", r.Writers},
		{"cast", r.Cast},
	} {
		for _, v := range l.vs {
			if err := check(l.name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// AppendTSV appends the record as one output line, including the trailing
// newline. It does not validate.
func (r *Record) AppendTSV(dst []byte) []byte {
	dst = append(dst, r.TitleID...)
	dst = append(dst, '\t')
	dst = append(dst, r.PrimaryTitle...)
	dst = append(dst, '\t')
	dst = append(dst, r.OriginalTitle...)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, int64(r.Year), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.Rating, 'f', 1, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, r.Votes, 10)
	dst = append(dst, '\t')
	if r.RuntimeText != "" {
		dst = append(dst, r.RuntimeText...)
	} else {
		dst = append(dst, RuntimeLabel(r.RuntimeMins)...)
	}
	dst = append(dst, '\t')
	dst = appendJoined(dst, r.Genres, GenreSep)
	dst = append(dst, '\t')
	dst = appendJoined(dst, r.Directors, PersonSep)
	dst = append(dst, '\t')
	dst = appendJoined(dst, r.Writers, PersonSep)
	dst = append(dst, '\t')
	dst = appendJoined(dst, r.Cast, PersonSep)
	dst = append(dst, '\t')
	dst = append(dst, r.Language...)
	dst = append(dst, '\t')
	dst = append(dst, r.Country...)
	dst = append(dst, '\t')
	if r.IsAdult {
		dst = append(dst, '1')
	} else {
		dst = append(dst, '0')
	}
	return append(dst, '\n')
}

func appendJoined(dst []byte, vs []string, sep string) []byte {
	for i, v := range vs {
		if i > 0 {
			dst = append(dst, sep...)
		}
		dst = append(dst, v...)
	}
	return dst
}

// ParseRecord decodes one output line. Besides the current 14-field layout it
// accepts the older 13 (no isAdult), 12 (no country), 11 (no locale) and
// 7-field (id, title, year, rating, votes, runtime, genres) layouts.
// A trailing line terminator is ignored.
func ParseRecord(line string) (Record, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	n := len(parts)
	if n < 7 {
		return Record{}, fmt.Errorf("%w: %d fields", ErrMalformed, n)
	}

	var r Record
	var err error
	r.TitleID = parts[0]
	r.PrimaryTitle = parts[1]

	if n < 11 {
		if r.Year, err = strconv.Atoi(parts[2]); err != nil {
			return Record{}, fmt.Errorf("%w: year %q", ErrMalformed, parts[2])
		}
		if r.Rating, err = strconv.ParseFloat(parts[3], 64); err != nil {
			return Record{}, fmt.Errorf("%w: rating %q", ErrMalformed, parts[3])
		}
		if r.Votes, err = strconv.ParseInt(parts[4], 10, 64); err != nil {
			return Record{}, fmt.Errorf("%w: votes %q", ErrMalformed, parts[4])
		}
		r.RuntimeText = parts[5]
		r.RuntimeMins = leadingMinutes(parts[5])
		r.Genres = splitList(parts[6], GenreSep)
		return r, nil
	}

	r.OriginalTitle = parts[2]
	if r.Year, err = strconv.Atoi(parts[3]); err != nil {
		return Record{}, fmt.Errorf("%w: year %q", ErrMalformed, parts[3])
	}
	if r.Rating, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return Record{}, fmt.Errorf("%w: rating %q", ErrMalformed, parts[4])
	}
	if r.Votes, err = strconv.ParseInt(parts[5], 10, 64); err != nil {
		return Record{}, fmt.Errorf("%w: votes %q", ErrMalformed, parts[5])
	}
	r.RuntimeText = parts[6]
	r.RuntimeMins = leadingMinutes(parts[6])
	r.Genres = splitList(parts[7], GenreSep)
	r.Directors = splitList(parts[8], PersonSep)
	r.Writers = splitList(parts[9], PersonSep)
	r.Cast = splitList(parts[10], PersonSep)
	if n >= 12 {
		r.Language = parts[11]
	}
	if n >= 13 {
		r.Country = parts[12]
	}
	if n >= 14 {
		r.IsAdult = parts[13] == "1"
	}
	return r, nil
}

// leadingMinutes returns the integer in front of "N mins.", or 0.
func leadingMinutes(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	for _, c := range fields[0] {
		if c < '0' || c > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}
