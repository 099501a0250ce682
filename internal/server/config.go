package server

import (
	"net/http"

	"sitewatch/internal/logging"
	"sitewatch/internal/store"
)

// Config wires the server's dependencies.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8000".
	ListenAddr string

	// Store is the shared document store handle.
	Store store.Store

	// Logger receives request and handler logs. Defaults to a stdout
	// logger when nil.
	Logger logging.Logger

	// ProbeClient overrides the HTTP client used for outbound probes.
	// Tests use it to shorten the probe timeout. Nil means the default
	// client with the fixed 15s timeout.
	ProbeClient *http.Client

	// Presence flags for the database environment variables, reported by
	// the diagnostic endpoint.
	DatabaseURLSet  bool
	DatabaseNameSet bool
}
