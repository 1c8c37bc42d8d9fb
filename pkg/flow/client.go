// Package flow implements a client for a hosted run flow API: it posts a chat
// message to a remote flow graph and extracts the plain text answer.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/flowchat/pkg/utils"
)

const (
	// DefaultTimeout bounds a single run flow call.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody is how much of a failed response body is kept as the
	// error cause.
	maxErrorBody = 512
)

// Config holds configuration for the flow Client.
type Config struct {
	// BaseURL is the flow service URL (e.g. "https://api.langflow.astra.datastax.com").
	BaseURL string

	// OrgID is the organization identifier that prefixes the run path.
	// An empty OrgID selects the self-hosted layout without the /lf/{org} prefix.
	OrgID string

	// EndpointID is the default flow to execute when a call names none.
	EndpointID string

	// Token is sent as a bearer token. It is never logged.
	Token string

	// Tweaks are the default per-component overrides.
	Tweaks Tweaks

	// SessionID is forwarded to the flow for its own server side memory.
	SessionID string

	// Timeout bounds each call. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying HTTP client. Timeout still bounds
	// each call through the request context.
	HTTPClient *http.Client
}

// Client sends chat messages to a remote flow.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new flow Client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("flow base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid flow base URL %q: %w", cfg.BaseURL, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// EndpointID returns the default flow identifier.
func (c *Client) EndpointID() string {
	return c.config.EndpointID
}

// RunURL returns the run flow URL for endpointID.
func (c *Client) RunURL(endpointID string) string {
	if c.config.OrgID == "" {
		return c.config.BaseURL + "/api/v1/run/" + url.PathEscape(endpointID)
	}

	return fmt.Sprintf("%s/lf/%s/api/v1/run/%s",
		c.config.BaseURL,
		url.PathEscape(c.config.OrgID),
		url.PathEscape(endpointID),
	)
}

// Send runs the default flow with the default tweaks and returns the answer.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	return c.SendTo(ctx, "", message, nil)
}

// SendTo runs the flow identified by endpointID with the given tweaks.
// An empty endpointID selects the default flow and nil tweaks select the
// default tweaks.
//
// Every failure is returned as a *TransportError, *UnexpectedShapeError or
// *ParseError. The call is made exactly once.
func (c *Client) SendTo(ctx context.Context, endpointID, message string, tweaks Tweaks) (string, error) {
	if endpointID == "" {
		endpointID = c.config.EndpointID
	}
	if endpointID == "" {
		return "", &TransportError{Op: "building request", Cause: errors.New("no flow endpoint configured")}
	}
	if tweaks == nil {
		tweaks = c.config.Tweaks
	}

	reqBody := NewRequest(message, tweaks)
	reqBody.SessionID = c.config.SessionID

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &TransportError{Op: "marshaling request", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	runURL := c.RunURL(endpointID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, runURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &TransportError{Op: "creating request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	c.logger.Debug("sending flow request",
		"url", runURL,
		"endpoint_id", endpointID,
		"message_length", len(message),
		"tweak_count", len(tweaks),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "sending request", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "reading response", Cause: err}
	}

	c.logger.Debug("flow response received",
		"endpoint_id", endpointID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{
			Op:         "reading response",
			StatusCode: resp.StatusCode,
			Cause:      errors.New(utils.Truncate(strings.TrimSpace(string(body)), maxErrorBody)),
		}
	}

	return ExtractText(body)
}
