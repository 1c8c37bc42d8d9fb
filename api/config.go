// Package api provides an HTTP API server for holding chat sessions against
// the configured flow.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}
