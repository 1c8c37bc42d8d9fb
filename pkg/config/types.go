package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/flowchat/pkg/prompts"
)

// Config represents the persistent flowchat configuration stored as
// config.toml in the .flowchat/ directory. The TOML layout uses sections for
// logical grouping; mapstructure tags mirror them for viper.
type Config struct {
	Version int                `toml:"version" mapstructure:"version"`
	Flow    FlowConfig         `toml:"flow" mapstructure:"flow"`
	API     APIConfig          `toml:"api" mapstructure:"api"`
	Events  EventsConfig       `toml:"events" mapstructure:"events"`
	Prompts []prompts.Category `toml:"prompts,omitempty" mapstructure:"prompts"`
}

// FlowConfig holds settings for the remote run flow API.
type FlowConfig struct {
	BaseURL    string `toml:"base_url,omitempty" mapstructure:"base_url"`
	OrgID      string `toml:"org_id,omitempty" mapstructure:"org_id"`
	EndpointID string `toml:"endpoint_id,omitempty" mapstructure:"endpoint_id"`

	// Token is the bearer token for the flow API. Treated as a secret.
	Token string `toml:"token,omitempty" mapstructure:"token"`

	// Timeout is a Go duration string (e.g. "30s").
	Timeout string `toml:"timeout,omitempty" mapstructure:"timeout"`

	// SessionID is forwarded to the flow so it can keep its own memory.
	SessionID string `toml:"session_id,omitempty" mapstructure:"session_id"`

	// Tweaks maps flow component IDs to override tables.
	Tweaks map[string]map[string]any `toml:"tweaks,omitempty" mapstructure:"tweaks"`
}

// TimeoutDuration parses Timeout. An empty Timeout yields zero, which the
// flow client replaces with its default.
func (f FlowConfig) TimeoutDuration() (time.Duration, error) {
	if f.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid flow.timeout %q: %w", f.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid flow.timeout %q: must not be negative", f.Timeout)
	}
	return d, nil
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty" mapstructure:"listen"`

	// MaxSessions caps live sessions; the least recently used is evicted.
	// Zero selects the default cap.
	MaxSessions int `toml:"max_sessions,omitempty" mapstructure:"max_sessions"`

	// SessionTTL is a Go duration string after which an unused session is
	// evicted. Empty or "0s" keeps sessions until deleted.
	SessionTTL string `toml:"session_ttl,omitempty" mapstructure:"session_ttl"`
}

// SessionTTLDuration parses SessionTTL. Empty yields zero.
func (a APIConfig) SessionTTLDuration() (time.Duration, error) {
	if a.SessionTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid api.session_ttl %q: %w", a.SessionTTL, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid api.session_ttl %q: must not be negative", a.SessionTTL)
	}
	return d, nil
}

// EventsConfig holds exchange event publishing settings.
type EventsConfig struct {
	// Provider is "none" or "kafka".
	Provider string   `toml:"provider,omitempty" mapstructure:"provider"`
	Brokers  []string `toml:"brokers,omitempty" mapstructure:"brokers"`
	Topic    string   `toml:"topic,omitempty" mapstructure:"topic"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	secret bool
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"flow.base_url": {
		get: func(c *Config) string { return c.Flow.BaseURL },
		set: func(c *Config, v string) error { c.Flow.BaseURL = v; return nil },
	},
	"flow.org_id": {
		get: func(c *Config) string { return c.Flow.OrgID },
		set: func(c *Config, v string) error { c.Flow.OrgID = v; return nil },
	},
	"flow.endpoint_id": {
		get: func(c *Config) string { return c.Flow.EndpointID },
		set: func(c *Config, v string) error { c.Flow.EndpointID = v; return nil },
	},
	"flow.token": {
		get:    func(c *Config) string { return c.Flow.Token },
		set:    func(c *Config, v string) error { c.Flow.Token = v; return nil },
		secret: true,
	},
	"flow.timeout": {
		get: func(c *Config) string { return c.Flow.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for flow.timeout: %w", err)
			}
			c.Flow.Timeout = v
			return nil
		},
	},
	"flow.session_id": {
		get: func(c *Config) string { return c.Flow.SessionID },
		set: func(c *Config, v string) error { c.Flow.SessionID = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.max_sessions": {
		get: func(c *Config) string { return strconv.Itoa(c.API.MaxSessions) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for api.max_sessions: %q (want a non-negative integer)", v)
			}
			c.API.MaxSessions = n
			return nil
		},
	},
	"api.session_ttl": {
		get: func(c *Config) string { return c.API.SessionTTL },
		set: func(c *Config, v string) error {
			if v != "" {
				if d, err := time.ParseDuration(v); err != nil || d < 0 {
					return fmt.Errorf("invalid value for api.session_ttl: %q", v)
				}
			}
			c.API.SessionTTL = v
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case "none", "kafka":
				c.Events.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for events.provider: %q (available: none, kafka)", v)
			}
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = splitList(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

// splitList splits a comma separated value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
