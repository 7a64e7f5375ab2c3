package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "sources.basics",
// "metrics.pushgateway_url").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as an error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of p (after WithDefaults).
// It does not touch the filesystem; missing files are reported at run time
// with the stage-level semantics of the pipeline.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSources(p.Sources)...)
	issues = append(issues, validateOutput(p.Output, p.Sources)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateFetch(p.Fetch)...)
	issues = append(issues, p.envIssues...)
	return issues
}

func validateSources(s Sources) []Issue {
	var issues []Issue
	for _, kv := range s.Named() {
		name, path := kv[0], kv[1]
		if strings.TrimSpace(path) == "" {
			sev := SeverityWarning
			msg := "no path configured; the stage will run with an empty index"
			if name == "basics" {
				sev = SeverityError
				msg = "basics is the mandatory input of the merge and must be set"
			}
			issues = append(issues, Issue{Severity: sev, Path: "sources." + name, Message: msg})
		}
	}
	return issues
}

func validateOutput(o Output, s Sources) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output.path must not be empty",
		})
		return issues
	}
	for _, kv := range s.Named() {
		if kv[1] == o.Path {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.path",
				Message:  fmt.Sprintf("output.path collides with sources.%s", kv[0]),
			})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.CastLimit > 10 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.cast_limit",
			Message:  fmt.Sprintf("cast_limit=%d is unusually large; downstream consumers expect at most 3", r.CastLimit),
		})
	}
	if r.CrewLimit > 10 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.crew_limit",
			Message:  fmt.Sprintf("crew_limit=%d is unusually large; downstream consumers expect at most 3", r.CrewLimit),
		})
	}
	if strings.ContainsAny(r.CanonicalLanguage, "\t\r\n") || strings.ContainsAny(r.CanonicalCountry, "\t\r\n") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime",
			Message:  "canonical codes must not contain tabs or newlines",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires a URL",
			})
		} else if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("invalid URL %q", m.PushgatewayURL),
			})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires an agent address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch s.Kind {
	case "sqlite", "postgres":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; the load subcommand will fail", s.Kind),
		})
	}
	if s.Kind == "postgres" && strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.dsn",
			Message:  "postgres storage has no DSN; the load subcommand will fail",
		})
	}
	if strings.ContainsAny(s.Table, " ;\t\n") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  fmt.Sprintf("table name %q contains invalid characters", s.Table),
		})
	}
	return issues
}

func validateFetch(f Fetch) []Issue {
	var issues []Issue
	if f.BaseURL != "" {
		if u, err := url.Parse(f.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "fetch.base_url",
				Message:  fmt.Sprintf("base_url %q must be an http(s) URL", f.BaseURL),
			})
		}
	}
	if f.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "fetch.max_retries",
			Message:  "negative max_retries is treated as 0",
		})
	}
	return issues
}
