package httpapi

import (
	"context"
	"time"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default remains 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// Polling and timeout defaults for waited deletes and event streams.
var (
	pollInterval  = 10 * time.Second
	deleteTimeout = 60 * time.Second
)

// SetPollInterval sets the default poll interval of /events streams.
func SetPollInterval(d time.Duration) {
	if d <= 0 {
		d = 10 * time.Second
	}
	pollInterval = d
}

// SetDeleteTimeout sets the timeout of a waited DELETE without timeoutSeconds.
func SetDeleteTimeout(d time.Duration) {
	if d <= 0 {
		d = 60 * time.Second
	}
	deleteTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// readyCheck backs /readyz. Nil means always ready.
var readyCheck func(ctx context.Context) error

// SetReadyCheck installs the probe used by /readyz.
func SetReadyCheck(fn func(ctx context.Context) error) { readyCheck = fn }
