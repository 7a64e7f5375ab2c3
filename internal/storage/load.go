package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"moviemerge/internal/logging"
	"moviemerge/internal/merge"
	"moviemerge/internal/skiplog"

	"golang.org/x/sync/errgroup"
)

// LoadOptions tunes LoadFile.
type LoadOptions struct {
	Kind      string
	Table     string
	BatchSize int
	// Replace drops an existing table first.
	Replace bool
	// CreateIndexes builds the lookup indexes after the rows are in.
	CreateIndexes bool
	// SkipLog receives lines that cannot be decoded. May be nil.
	SkipLog *skiplog.Log
}

// LoadStats summarizes a load.
type LoadStats struct {
	Lines     int64
	Inserted  int64
	Malformed int64
	Batches   int64
	Duration  time.Duration
}

// ReasonMalformed is the skip reason for lines ParseRecord rejects.
const ReasonMalformed = "malformed"

// LoadFile creates the movies table, streams merged lines from r into repo in
// batches, and optionally indexes the table. Malformed lines are counted and
// skipped; blank lines are ignored.
func LoadFile(ctx context.Context, repo Repository, r io.Reader, opts LoadOptions) (LoadStats, error) {
	start := time.Now()
	var st LoadStats
	if opts.Table == "" {
		opts.Table = "movies"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10_000
	}
	d, err := DialectFor(opts.Kind)
	if err != nil {
		return st, err
	}
	log := logging.Component("load")

	if opts.Replace {
		if err := ExecAll(ctx, repo, d.Drop(opts.Table)); err != nil {
			return st, err
		}
	}
	if err := ExecAll(ctx, repo, d.Create(opts.Table)); err != nil {
		return st, err
	}

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan []any, opts.BatchSize)

	g.Go(func() error {
		defer close(rows)
		br := bufio.NewReaderSize(r, 1<<20)
		var line int
		for {
			s, err := br.ReadString('\n')
			if s != "" {
				line++
				if strings.TrimSpace(s) != "" {
					st.Lines++
					rec, perr := merge.ParseRecord(s)
					if perr != nil {
						st.Malformed++
						opts.SkipLog.Add(ReasonMalformed, line, strings.TrimRight(s, "\r\n"))
					} else {
						select {
						case rows <- MovieRow(&rec):
						case <-gctx.Done():
							return gctx.Err()
						}
					}
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("storage: read line %d: %w", line+1, err)
			}
		}
	})

	var bs BatchStats
	g.Go(func() error {
		var err error
		bs, err = LoadBatches(gctx, MovieColumns, rows, opts.BatchSize, repo.CopyFrom)
		return err
	})

	err = g.Wait()
	st.Inserted, st.Batches = bs.Rows, bs.Batches
	if err != nil {
		st.Duration = time.Since(start)
		return st, err
	}

	if opts.CreateIndexes {
		if err := ExecAll(ctx, repo, d.Indexes(opts.Table)); err != nil {
			return st, err
		}
		if d.Optimize != nil {
			if err := ExecAll(ctx, repo, d.Optimize(opts.Table)); err != nil {
				return st, err
			}
		}
	}
	st.Duration = time.Since(start)
	log.Info().
		Str("table", opts.Table).
		Str("inserted", logging.Count(st.Inserted)).
		Int64("malformed", st.Malformed).
		Int64("batches", st.Batches).
		Dur("took", st.Duration).
		Msg("load complete")
	return st, nil
}
