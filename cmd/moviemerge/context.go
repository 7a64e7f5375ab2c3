package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"moviemerge/internal/config"
	"moviemerge/internal/logging"
)

const defaultConfigLabel = config.DefaultPath

type commandContext struct {
	configFlag *string
	runID      string

	// getenv is os.Getenv outside tests.
	getenv func(string) string

	configOnce sync.Once
	config     config.Pipeline
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, getenv: os.Getenv}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil || strings.TrimSpace(*c.configFlag) == "" {
		return config.DefaultPath
	}
	return strings.TrimSpace(*c.configFlag)
}

// ensureConfig loads the pipeline once per process.
func (c *commandContext) ensureConfig() (config.Pipeline, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(c.configPath(), c.getenv)
	})
	return c.config, c.configErr
}

// validConfig loads the pipeline and refuses to continue on error-severity
// issues. Warnings are logged.
func (c *commandContext) validConfig() (config.Pipeline, error) {
	p, err := c.ensureConfig()
	if err != nil {
		return p, err
	}
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			logging.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	if config.HasErrors(issues) {
		return p, fmt.Errorf("invalid config %s: %w", c.configPath(), firstError(issues))
	}
	return p, nil
}

func firstError(issues []config.Issue) error {
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			return iss
		}
	}
	return nil
}

func printIssues(w io.Writer, issues []config.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(w, "%-7s %-28s %s\n", iss.Severity, iss.Path, iss.Message)
	}
}
