package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoChunks signals that chunking produced nothing to ingest.
var ErrNoChunks = errors.New("no chunks generated from document")

// ErrRateLimited marks errors caused by provider quota exhaustion. Adapters
// wrap the underlying error with it so retry policies can match on it.
var ErrRateLimited = errors.New("rate limited")

// IsRateLimit reports whether err stems from provider rate limiting.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IngestError wraps a failure in the chunk/embed/store path. Ingestion
// failures always propagate to the caller; a failed ingest never reports
// success.
type IngestError struct {
	Stage string
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest failed at %s: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// ConfigError reports missing required configuration. Fatal at startup,
// never per-request.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}
