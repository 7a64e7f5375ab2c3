// Package pipeline runs a complete merge: the five index builders, the
// barrier, and the join into an atomically replaced output file.
//
// Concurrency model:
//
//	ratings ─┐
//	crew    ─┤
//	names   ─┼─► principals (waits for names)
//	akas    ─┤
//	         └─────────────── barrier ─► join(basics) ─► output
//
// Builders own their index until the barrier; afterwards the join only reads
// them, so no locking is involved.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"moviemerge/internal/datasource"
	"moviemerge/internal/index"
	"moviemerge/internal/logging"
	"moviemerge/internal/merge"
	"moviemerge/internal/metrics"
	"moviemerge/internal/skiplog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrBasicsUnavailable is returned when the title attributes source cannot be
// opened. Every other source degrades to an empty index instead.
var ErrBasicsUnavailable = errors.New("pipeline: title attributes source unavailable")

// Stage names, also used as skip file names and metric labels.
const (
	StageRatings    = "ratings"
	StageCrew       = "crew"
	StageNames      = "names"
	StagePrincipals = "principals"
	StageAkas       = "akas"
	StageBasics     = "basics"
)

// StageOrder is the order stages are reported in.
var StageOrder = []string{StageRatings, StageCrew, StageNames, StagePrincipals, StageAkas, StageBasics}

// Sources are the six extracts of one run.
type Sources struct {
	Ratings    datasource.Source
	Crew       datasource.Source
	Names      datasource.Source
	Principals datasource.Source
	Akas       datasource.Source
	Basics     datasource.Source
}

// Options configures a run.
type Options struct {
	// Job labels metrics.
	Job string
	// RunID names the temp output file; a random one is used when empty.
	RunID string
	// OutputPath is the final merged TSV.
	OutputPath string
	// SkippedDir, when set, receives one CSV of skipped rows per source.
	SkippedDir string
	// Index is shared by every builder.
	Index index.Options
	// CrewLimit caps directors and writers per title.
	CrewLimit int
	// JoinProgressEvery overrides Index.ProgressEvery for the join.
	JoinProgressEvery int64
	// ReasonLimit caps the skip reasons listed per stage in the final log.
	ReasonLimit int
}

// Stage is the outcome of one source pass.
type Stage struct {
	index.Stats
	// Err is set when the source could not be opened.
	Err error
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Output   string
	Stages   map[string]Stage
	Records  int64
	Bytes    int64
	Digest   string
	Duration time.Duration
}

// Run executes the pipeline. The output file is replaced only when the join
// completes; on any error the previous output, if any, is left untouched.
func Run(ctx context.Context, src Sources, opts Options) (*Result, error) {
	start := time.Now()
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Job == "" {
		opts.Job = "moviemerge"
	}
	log := logging.Component("pipeline")

	res := &Result{RunID: opts.RunID, Output: opts.OutputPath, Stages: make(map[string]Stage, len(StageOrder))}
	var mu sync.Mutex
	record := func(name string, st index.Stats, err error) {
		st.Source = name
		metrics.RecordStage(opts.Job, name, err, st.Duration)
		metrics.RecordRow(opts.Job, name, metrics.KindRead, st.Rows)
		metrics.RecordRow(opts.Job, name, metrics.KindRetained, st.Retained)
		metrics.RecordRow(opts.Job, name, metrics.KindSkipped, st.Skipped)
		if st.Truncated != nil {
			metrics.RecordRow(opts.Job, name, metrics.KindTruncated, 1)
		}
		mu.Lock()
		res.Stages[name] = Stage{Stats: st, Err: err}
		mu.Unlock()
	}

	out, err := createOutput(opts.OutputPath, opts.RunID)
	if err != nil {
		return nil, err
	}
	defer out.abort()

	skips, err := openSkipLogs(opts.SkippedDir)
	if err != nil {
		return nil, err
	}
	defer skips.close()

	idx, err := buildIndexes(ctx, src, opts, skips, record)
	if err != nil {
		return nil, err
	}

	jopts := merge.Options{Options: opts.Index, CrewLimit: opts.CrewLimit}
	jopts.SkipLog = skips[StageBasics]
	if opts.JoinProgressEvery > 0 {
		jopts.ProgressEvery = opts.JoinProgressEvery
	}
	basics := &trackedSource{Source: src.Basics}
	w := merge.NewWriter(out)
	st, err := merge.Join(ctx, basics, idx, w, jopts)
	if basics.openErr != nil && ctx.Err() == nil {
		record(StageBasics, st, basics.openErr)
		return nil, fmt.Errorf("%w: %w", ErrBasicsUnavailable, basics.openErr)
	}
	record(StageBasics, st, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordRow(opts.Job, StageBasics, metrics.KindWritten, w.Records())

	if err := out.commit(); err != nil {
		return nil, err
	}
	res.Records = w.Records()
	res.Bytes = w.Bytes()
	res.Digest = out.digest()
	res.Duration = time.Since(start)

	logSummary(res, opts.ReasonLimit)
	log.Info().
		Str("output", res.Output).
		Str("records", logging.Count(res.Records)).
		Str("size", logging.Bytes(res.Bytes)).
		Str("xxh3", res.Digest).
		Dur("took", res.Duration).
		Msg("merge complete")
	return res, nil
}

type recordFunc func(name string, st index.Stats, err error)

// buildIndexes runs the five builders and returns once all have finished.
func buildIndexes(ctx context.Context, src Sources, opts Options, skips skipLogs, record recordFunc) (merge.Indexes, error) {
	var idx merge.Indexes
	g, gctx := errgroup.WithContext(ctx)
	namesReady := make(chan struct{})

	g.Go(func() error {
		var err error
		idx.Ratings, err = runBuilder(gctx, StageRatings, src.Ratings, opts.Index, skips, record, index.BuildRatings)
		return err
	})
	g.Go(func() error {
		var err error
		idx.Crew, err = runBuilder(gctx, StageCrew, src.Crew, opts.Index, skips, record, index.BuildCrew)
		return err
	})
	g.Go(func() error {
		defer close(namesReady)
		var err error
		idx.Names, err = runBuilder(gctx, StageNames, src.Names, opts.Index, skips, record, index.BuildNames)
		return err
	})
	g.Go(func() error {
		select {
		case <-namesReady:
		case <-gctx.Done():
			return gctx.Err()
		}
		names := idx.Names
		var err error
		idx.Principals, err = runBuilder(gctx, StagePrincipals, src.Principals, opts.Index, skips, record,
			func(ctx context.Context, s datasource.Source, o index.Options) (*index.Principals, index.Stats, error) {
				return index.BuildPrincipals(ctx, s, names, o)
			})
		return err
	})
	g.Go(func() error {
		var err error
		idx.Locale, err = runBuilder(gctx, StageAkas, src.Akas, opts.Index, skips, record, index.BuildLocale)
		return err
	})

	if err := g.Wait(); err != nil {
		return merge.Indexes{}, err
	}
	return idx, nil
}

// runBuilder runs one builder. A source that cannot be opened yields a nil
// index, which every consumer treats as empty; only cancellation is returned.
func runBuilder[T any](
	ctx context.Context,
	name string,
	src datasource.Source,
	opts index.Options,
	skips skipLogs,
	record recordFunc,
	build func(context.Context, datasource.Source, index.Options) (*T, index.Stats, error),
) (*T, error) {
	log := logging.Component(name)
	if src == nil {
		err := errors.New("no source configured")
		log.Error().Err(err).Msg("building with an empty index")
		record(name, index.Stats{Source: name}, err)
		return nil, nil
	}
	opts.SkipLog = skips[name]
	v, st, err := build(ctx, src, opts)
	if err != nil {
		if ctx.Err() != nil {
			record(name, st, ctx.Err())
			return nil, ctx.Err()
		}
		log.Error().Err(err).Msg("source unavailable, building with an empty index")
		record(name, st, err)
		return nil, nil
	}
	record(name, st, nil)
	return v, nil
}

// trackedSource remembers why Open failed so the caller can tell an
// unavailable source from a failure later in the pass.
type trackedSource struct {
	datasource.Source
	openErr error
}

func (s *trackedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Source == nil {
		s.openErr = errors.New("no source configured")
		return nil, s.openErr
	}
	rc, err := s.Source.Open(ctx)
	s.openErr = err
	return rc, err
}

func (s *trackedSource) Name() string {
	if s.Source == nil {
		return StageBasics
	}
	return s.Source.Name()
}

type skipLogs map[string]*skiplog.Log

func openSkipLogs(dir string) (skipLogs, error) {
	logs := make(skipLogs, len(StageOrder))
	if dir == "" {
		return logs, nil
	}
	for _, name := range StageOrder {
		l, err := skiplog.Create(dir, name)
		if err != nil {
			logs.close()
			return nil, err
		}
		logs[name] = l
	}
	return logs, nil
}

func (s skipLogs) close() {
	for name, l := range s {
		if err := l.Close(); err != nil {
			logging.Warn().Err(err).Str("source", name).Msg("closing skip log")
		}
	}
}

// logSummary logs one line per stage with the most frequent skip reasons and
// checks that every row read was accounted for.
func logSummary(res *Result, limit int) {
	if limit <= 0 {
		limit = 5
	}
	for _, name := range StageOrder {
		s, ok := res.Stages[name]
		if !ok {
			continue
		}
		log := logging.Component(name)
		if s.Err != nil {
			log.Warn().Err(s.Err).Msg("stage ran with an empty index")
			continue
		}
		if accounted := s.Retained + s.Filtered + s.Skipped; accounted != s.Rows {
			log.Warn().Int64("rows", s.Rows).Int64("accounted", accounted).Msg("row accounting mismatch")
		}
		reasons := topReasons(s.Reasons, limit)
		if len(reasons) == 0 {
			continue
		}
		ev := log.Info()
		for _, r := range reasons {
			ev = ev.Int64(r, s.Reasons[r])
		}
		ev.Msg("skip reasons")
	}
}

func topReasons(m map[string]int64, limit int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
