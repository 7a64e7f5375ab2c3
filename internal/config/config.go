// Package config defines the JSON-serializable configuration model for the
// moviemerge pipeline. A single file describes where the six extracts live,
// where the merged output goes, how the run is instrumented, and (for the
// load subcommand) which relational store receives the result.
//
// Example (trimmed):
//
//	{
//	  "job": "moviemerge",
//	  "sources": { "ratings": "data/title.ratings.tsv.gz", ... },
//	  "output":  { "path": "imdb_dataset.txt", "skipped_dir": "skipped" },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" },
//	  "storage": { "kind": "sqlite", "dsn": "imdb_dataset.db", "table": "movies" }
//	}
//
// Decoding uses goccy/go-json; values left at zero are filled by WithDefaults
// and may then be overridden from the environment by ApplyEnv.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "configs/moviemerge.json"

// Pipeline is the top-level object decoded from a config file.
type Pipeline struct {
	// Job names the run for metrics grouping and log context.
	Job string `json:"job"`

	Sources Sources       `json:"sources"`
	Output  Output        `json:"output"`
	Runtime RuntimeConfig `json:"runtime"`
	Metrics Metrics       `json:"metrics"`
	Storage Storage       `json:"storage"`
	Fetch   Fetch         `json:"fetch"`

	// envIssues are problems found by ApplyEnv, reported by ValidatePipeline.
	envIssues []Issue
}

// Sources holds the local paths of the six gzip extracts.
type Sources struct {
	Ratings    string `json:"ratings"`
	Crew       string `json:"crew"`
	Names      string `json:"names"`
	Principals string `json:"principals"`
	Akas       string `json:"akas"`
	Basics     string `json:"basics"`
}

// Named returns the sources as (name, path) pairs in a stable order.
func (s Sources) Named() [][2]string {
	return [][2]string{
		{"ratings", s.Ratings},
		{"crew", s.Crew},
		{"names", s.Names},
		{"principals", s.Principals},
		{"akas", s.Akas},
		{"basics", s.Basics},
	}
}

// Output configures the merged TSV and its side files.
type Output struct {
	// Path is the final merged TSV. The run writes a sibling temp file and
	// renames it into place on success.
	Path string `json:"path"`

	// SkippedDir, when set, receives one CSV per source listing skipped rows.
	SkippedDir string `json:"skipped_dir"`

	// NormalizeUnicode applies NFC to titles and names. Off by default so the
	// output is byte-identical to the source text.
	NormalizeUnicode bool `json:"normalize_unicode"`
}

// RuntimeConfig controls buffering, progress logging and the resolution
// policy constants.
type RuntimeConfig struct {
	ProgressEvery     int    `json:"progress_every"`
	ReadBufferKB      int    `json:"read_buffer_kb"`
	CastLimit         int    `json:"cast_limit"`
	CrewLimit         int    `json:"crew_limit"`
	CanonicalLanguage string `json:"canonical_language"`
	CanonicalCountry  string `json:"canonical_country"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is one of "none", "pushgateway", "datadog".
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Storage configures the relational sink used by the load subcommand.
type Storage struct {
	// Kind selects the backend: "sqlite" or "postgres".
	Kind          string `json:"kind"`
	DSN           string `json:"dsn"`
	Table         string `json:"table"`
	BatchSize     int    `json:"batch_size"`
	CreateIndexes bool   `json:"create_indexes"`
}

// Fetch configures downloading of missing extracts.
type Fetch struct {
	BaseURL    string   `json:"base_url"`
	Dir        string   `json:"dir"`
	MaxRetries int      `json:"max_retries"`
	Timeout    Duration `json:"timeout"`
}

// Duration decodes either a Go duration string ("30s") or a number of seconds.
type Duration struct{ time.Duration }

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("duration %q: %w", raw, err)
		}
		d.Duration = v
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("duration %s: %w", s, err)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

// Default extract file names, as published by the dataset provider.
const (
	RatingsFile    = "title.ratings.tsv.gz"
	CrewFile       = "title.crew.tsv.gz"
	NamesFile      = "name.basics.tsv.gz"
	PrincipalsFile = "title.principals.tsv.gz"
	AkasFile       = "title.akas.tsv.gz"
	BasicsFile     = "title.basics.tsv.gz"
)

// WithDefaults returns a copy of p with zero values replaced by defaults.
func (p Pipeline) WithDefaults() Pipeline {
	if p.Job == "" {
		p.Job = "moviemerge"
	}
	if p.Fetch.Dir == "" {
		p.Fetch.Dir = "."
	}
	dir := p.Fetch.Dir
	def := func(v *string, name string) {
		if *v == "" {
			*v = filepath.Join(dir, name)
		}
	}
	def(&p.Sources.Ratings, RatingsFile)
	def(&p.Sources.Crew, CrewFile)
	def(&p.Sources.Names, NamesFile)
	def(&p.Sources.Principals, PrincipalsFile)
	def(&p.Sources.Akas, AkasFile)
	def(&p.Sources.Basics, BasicsFile)

	if p.Output.Path == "" {
		p.Output.Path = "imdb_dataset.txt"
	}

	if p.Runtime.ProgressEvery <= 0 {
		p.Runtime.ProgressEvery = 500_000
	}
	if p.Runtime.ReadBufferKB <= 0 {
		p.Runtime.ReadBufferKB = 1024
	}
	if p.Runtime.CastLimit <= 0 {
		p.Runtime.CastLimit = 3
	}
	if p.Runtime.CrewLimit <= 0 {
		p.Runtime.CrewLimit = 3
	}
	if p.Runtime.CanonicalLanguage == "" {
		p.Runtime.CanonicalLanguage = "en"
	}
	if p.Runtime.CanonicalCountry == "" {
		p.Runtime.CanonicalCountry = "US"
	}

	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}

	if p.Storage.Kind == "" {
		p.Storage.Kind = "sqlite"
	}
	if p.Storage.Table == "" {
		p.Storage.Table = "movies"
	}
	if p.Storage.DSN == "" && p.Storage.Kind == "sqlite" {
		p.Storage.DSN = "imdb_dataset.db"
	}
	if p.Storage.BatchSize <= 0 {
		p.Storage.BatchSize = 10_000
	}

	if p.Fetch.BaseURL == "" {
		p.Fetch.BaseURL = "https://datasets.imdbws.com"
	}
	if p.Fetch.MaxRetries == 0 {
		p.Fetch.MaxRetries = 3
	}
	if p.Fetch.Timeout.Duration <= 0 {
		p.Fetch.Timeout = Duration{30 * time.Minute}
	}
	return p
}

// ApplyEnv overrides selected fields from the environment. getenv is usually
// os.Getenv; tests pass a map-backed function.
func (p Pipeline) ApplyEnv(getenv func(string) string) Pipeline {
	if v := getenv("MOVIEMERGE_OUTPUT"); v != "" {
		p.Output.Path = v
	}
	if v := getenv("MOVIEMERGE_SKIPPED_DIR"); v != "" {
		p.Output.SkippedDir = v
	}
	if v := getenv("METRICS_BACKEND"); v != "" {
		p.Metrics.Backend = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		p.Metrics.PushgatewayURL = v
	}
	if v := getenv("DD_AGENT_ADDR"); v != "" {
		p.Metrics.DatadogAddr = v
	}
	if v := getenv("MOVIEMERGE_DB_DSN"); v != "" {
		p.Storage.DSN = v
	}
	if v := getenv("MOVIEMERGE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Storage.BatchSize = n
		} else {
			p.envIssues = append(p.envIssues, Issue{
				Severity: SeverityError,
				Path:     "storage.batch_size",
				Message:  fmt.Sprintf("MOVIEMERGE_BATCH_SIZE=%q is not a positive integer", v),
			})
		}
	}
	return p
}

// Decode reads a Pipeline from r. Unknown fields are rejected so that typos
// in config files surface early.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// Load opens path, decodes it, applies defaults and environment overrides.
// A missing file at DefaultPath is not an error: defaults are used instead.
func Load(path string, getenv func(string) string) (Pipeline, error) {
	var p Pipeline
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		p, err = Decode(f)
		if err != nil {
			return Pipeline{}, err
		}
	case os.IsNotExist(err) && path == DefaultPath:
		// fall through with zero config
	default:
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	return p.WithDefaults().ApplyEnv(getenv), nil
}
