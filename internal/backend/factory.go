// Package backend selects and constructs the API backend from configuration.
package backend

import (
	"fmt"
	"log/slog"
	"net/http"

	"zentrack/internal/api"
	"zentrack/internal/api/memory"
	"zentrack/internal/api/rest"
	"zentrack/internal/config"
)

// Type names a backend implementation.
type Type string

const (
	// RESTBackend talks to the real expense API over HTTP.
	RESTBackend Type = "rest"
	// MemoryBackend runs an in-process stand-in for local development.
	MemoryBackend Type = "memory"
)

// IsValid reports whether the backend type is supported.
func (t Type) IsValid() bool {
	return t == RESTBackend || t == MemoryBackend
}

// New constructs the backend named by cfg.Backend.
func New(cfg *config.Config, logger *slog.Logger) (api.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.Backend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Backend)
	}

	switch t {
	case MemoryBackend:
		logger.Info("initialized in-memory backend")
		return memory.New(), nil
	default:
		logger.Info("initialized REST backend", "base_url", cfg.APIBaseURL)
		return rest.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}), nil
	}
}
