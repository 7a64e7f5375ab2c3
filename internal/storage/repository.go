// Package storage contains storage-agnostic contracts for loading merged
// movie records into a relational store.
//
// Backends register a Factory and a Dialect for their kind from init;
// callers import them for side effects and then work only with Repository:
//
//	import _ "moviemerge/internal/storage/sqlite"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "imdb_dataset.db", Table: "movies"})
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal interface a backend implements.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and returns how many were
	// inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q (have %v)", cfg.Kind, Kinds())
	}
	if cfg.Table == "" {
		cfg.Table = "movies"
	}
	return f(ctx, cfg)
}
