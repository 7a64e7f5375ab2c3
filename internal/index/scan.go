// Package index builds the in-memory lookup tables the merge join reads:
// ratings, crew, person names, principal cast, and resolved locale.
//
// Every builder consumes one header-prefixed TSV extract in a single pass and
// returns an owned, fully populated structure together with Stats. Row-level
// defects are counted and skipped. A stream that fails part-way ends the build
// early: everything parsed so far is kept and the failure is recorded in
// Stats.Truncated rather than returned as an error. Only failures to open the
// source and context cancellation are returned as errors.
//
// Built indexes are never mutated again, so any number of goroutines may read
// them concurrently without locking.
package index

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"moviemerge/internal/datasource"
	"moviemerge/internal/logging"
	"moviemerge/internal/skiplog"
	"moviemerge/internal/tsv"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// Skip and filter reasons recorded in Stats.Reasons.
const (
	ReasonShortRow    = "short_row"
	ReasonEmptyKey    = "empty_key"
	ReasonBadRating   = "bad_rating"
	ReasonBadVotes    = "bad_votes"
	ReasonAbsentName  = "absent_name"
	ReasonNotCast     = "not_cast"
	ReasonCastFull    = "cast_full"
	ReasonNoLocale    = "no_locale"
	ReasonUnsafeText  = "unsafe_text"
	ReasonNotMovie    = "not_movie"
	ReasonNoRating    = "no_rating"
	ReasonMissingAttr = "missing_attribute"
	ReasonBadYear     = "bad_year"
	ReasonBadRuntime  = "bad_runtime"
)

// Stats describes one pass over a source.
type Stats struct {
	Source string
	// Rows is the number of data rows read (header excluded).
	Rows int64
	// Retained rows contributed to the result.
	Retained int64
	// Filtered rows were valid but excluded by policy (wrong category, cap
	// reached, not a movie).
	Filtered int64
	// Skipped rows were malformed.
	Skipped int64
	// Reasons counts filtered and skipped rows by reason.
	Reasons map[string]int64
	// Truncated is set when the stream failed before a clean EOF.
	Truncated *tsv.TruncatedError
	Duration  time.Duration
}

// Options tunes a build. The zero value is usable.
type Options struct {
	// BufferSize is the read buffer in bytes.
	BufferSize int
	// ProgressEvery logs a heartbeat every N rows; <= 0 disables it.
	ProgressEvery int64
	// SkipLog receives malformed rows. May be nil.
	SkipLog *skiplog.Log
	// Normalize applies Unicode NFC to display names.
	Normalize bool
	// CastLimit caps the principal cast per title (default 3).
	CastLimit int
	// CanonicalLanguage and CanonicalCountry are the dominant locale codes
	// (default "en" and "US").
	CanonicalLanguage string
	CanonicalCountry  string
	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

func (o Options) castLimit() int {
	if o.CastLimit <= 0 {
		return 3
	}
	return o.CastLimit
}

func (o Options) canonical() (lang, country string) {
	lang, country = o.CanonicalLanguage, o.CanonicalCountry
	if lang == "" {
		lang = "en"
	}
	if country == "" {
		country = "US"
	}
	return lang, country
}

func (o Options) logger(component string) zerolog.Logger {
	if o.Logger != nil {
		return o.Logger.With().Str("component", component).Logger()
	}
	return logging.Component(component)
}

// Text returns s, NFC-normalized when Normalize is set.
func (o Options) Text(s string) string {
	if o.Normalize {
		return norm.NFC.String(s)
	}
	return s
}

// Verdict classifies one row.
type Verdict uint8

const (
	// Keep counts the row as retained.
	Keep Verdict = iota
	// Filter counts a valid row excluded by policy.
	Filter
	// Reject counts a malformed row and writes it to the skip log.
	Reject
	// Stop ends the scan without counting the row. The caller keeps the
	// reason it stopped.
	Stop
)

// RowFunc inspects one row. The reason is ignored for Keep.
type RowFunc func(fields []string) (Verdict, string)

// Scan streams src through fn and accounts for every row in the returned
// Stats. Rows with fewer than minFields fields are rejected before fn sees
// them. The merge join uses Scan for its own input so that all stages share
// the same truncation and skip semantics.
func Scan(ctx context.Context, src datasource.Source, opts Options, minFields int, fn RowFunc) (Stats, error) {
	start := time.Now()
	st := Stats{Source: src.Name(), Reasons: make(map[string]int64)}
	log := opts.logger(src.Name())

	rc, err := src.Open(ctx)
	if err != nil {
		st.Duration = time.Since(start)
		return st, err
	}
	defer rc.Close()

	r := tsv.NewReader(rc, src.Name(), opts.BufferSize)
	for {
		fields, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var te *tsv.TruncatedError
			if errors.As(err, &te) {
				st.Truncated = te
				log.Warn().Err(te.Cause).
					Int("line", te.Line).
					Str("kept", logging.Count(st.Retained)).
					Msg("source truncated, using rows read so far")
				break
			}
			st.Duration = time.Since(start)
			return st, err
		}
		st.Rows++

		if st.Rows&4095 == 0 {
			if err := ctx.Err(); err != nil {
				st.Duration = time.Since(start)
				return st, err
			}
		}
		if opts.ProgressEvery > 0 && st.Rows%opts.ProgressEvery == 0 {
			log.Info().Str("rows", logging.Count(st.Rows)).Str("retained", logging.Count(st.Retained)).Msg("progress")
		}

		v, reason := Reject, ReasonShortRow
		if len(fields) >= minFields {
			v, reason = fn(fields)
		}
		if v == Stop {
			st.Rows--
			break
		}
		switch v {
		case Keep:
			st.Retained++
		case Filter:
			st.Filtered++
			st.Reasons[reason]++
		default:
			st.Skipped++
			st.Reasons[reason]++
			if opts.SkipLog != nil {
				opts.SkipLog.Add(reason, r.Line(), strings.Join(fields, "\t"))
			}
		}
	}

	st.Duration = time.Since(start)
	log.Info().
		Str("rows", logging.Count(st.Rows)).
		Str("retained", logging.Count(st.Retained)).
		Int64("filtered", st.Filtered).
		Int64("skipped", st.Skipped).
		Bool("truncated", st.Truncated != nil).
		Dur("took", st.Duration).
		Msg("source done")
	return st, nil
}
