package storage

import (
	"context"
	"fmt"
	"sync"
)

// Dialect holds the backend-specific statements for the movies table. Each
// function returns statements to run in order through Repository.Exec.
type Dialect struct {
	// Drop removes an existing table.
	Drop func(table string) []string
	// Create creates the table if it does not exist.
	Create func(table string) []string
	// Indexes creates the lookup indexes. Run after the bulk load.
	Indexes func(table string) []string
	// Optimize refreshes planner statistics. May be nil.
	Optimize func(table string) []string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the Dialect for kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok {
		return Dialect{}, fmt.Errorf("storage: no dialect registered for kind %q", kind)
	}
	return d, nil
}

// Executor runs a single statement.
type Executor interface {
	Exec(ctx context.Context, sql string) error
}

// ExecAll runs stmts in order and stops at the first failure.
func ExecAll(ctx context.Context, repo Executor, stmts []string) error {
	for _, s := range stmts {
		if err := repo.Exec(ctx, s); err != nil {
			return fmt.Errorf("storage: %q: %w", s, err)
		}
	}
	return nil
}
