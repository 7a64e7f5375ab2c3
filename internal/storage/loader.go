package storage

import (
	"context"
	"errors"
	"time"

	"moviemerge/internal/logging"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns how many were inserted. It must cancel promptly when
// ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchStats reports what LoadBatches flushed.
type BatchStats struct {
	Rows    int64
	Batches int64
}

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. It returns when in is closed, ctx is
// canceled, or copyFn fails. Progress is logged on every flush.
func LoadBatches(ctx context.Context, columns []string, in <-chan []any, batchSize int, copyFn CopyFn) (BatchStats, error) {
	var st BatchStats
	if batchSize <= 0 {
		return st, errors.New("storage: batchSize must be > 0")
	}
	if copyFn == nil {
		return st, errors.New("storage: copyFn must not be nil")
	}

	log := logging.Component("loader")
	var (
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		lastRows  int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		st.Rows += n
		batch = batch[:0]
		if err != nil {
			log.Error().Err(err).Int64("after", n).Int64("total", st.Rows).Msg("batch insert failed")
			return err
		}

		st.Batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(st.Rows-lastRows) / since.Seconds()
		}
		log.Debug().
			Int64("batch", st.Batches).
			Int64("inserted", n).
			Str("total", logging.Count(st.Rows)).
			Float64("rps", rps).
			Dur("elapsed", now.Sub(start)).
			Msg("batch flushed")
		lastFlush, lastRows = now, st.Rows
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return st, err
				}
				return st, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return st, err
				}
			}
		}
	}
}
