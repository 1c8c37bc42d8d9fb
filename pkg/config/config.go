package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/flowchat/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0

	// redacted replaces secret values in listings.
	redacted = "********"
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .flowchat/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the list of all supported configuration key names
// in the order of the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"flow.base_url",
		"flow.org_id",
		"flow.endpoint_id",
		"flow.token",
		"flow.timeout",
		"flow.session_id",
		"api.listen",
		"api.max_sessions",
		"api.session_ttl",
		"events.provider",
		"events.brokers",
		"events.topic",
	}

	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// IsSecretConfigKey returns true if the key holds a secret that must not be
// displayed.
func IsSecretConfigKey(key string) bool {
	info, ok := configKeys[key]
	return ok && info.secret
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .flowchat/ directory. If the file does not exist, returns NewDefaultConfig()
// so callers always receive a fully-populated Config. Fields explicitly set in
// the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// Flow.OrgID and Flow.Tweaks belong to the default flow: they are only filled
// in when Flow.BaseURL is too, since an empty org selects the self-hosted URL
// layout and another flow has other components.
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Flow.BaseURL == "" {
		cfg.Flow.BaseURL = defaults.Flow.BaseURL
		if cfg.Flow.OrgID == "" {
			cfg.Flow.OrgID = defaults.Flow.OrgID
		}
		if cfg.Flow.Tweaks == nil {
			cfg.Flow.Tweaks = defaults.Flow.Tweaks
		}
	}
	if cfg.Flow.EndpointID == "" {
		cfg.Flow.EndpointID = defaults.Flow.EndpointID
	}
	if cfg.Flow.Timeout == "" {
		cfg.Flow.Timeout = defaults.Flow.Timeout
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.API.MaxSessions == 0 {
		cfg.API.MaxSessions = defaults.API.MaxSessions
	}
	if cfg.API.SessionTTL == "" {
		cfg.API.SessionTTL = defaults.API.SessionTTL
	}

	if cfg.Events.Provider == "" {
		cfg.Events.Provider = defaults.Events.Provider
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaults.Events.Topic
	}

	if len(cfg.Prompts) == 0 {
		cfg.Prompts = defaults.Prompts
	}
}

// SaveConfig persists the configuration to config.toml in the target .flowchat/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// The file may hold the flow token.
	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// DisplayValue returns value for display, redacting secrets.
func DisplayValue(key, value string) string {
	if value != "" && IsSecretConfigKey(key) {
		return redacted
	}
	return value
}

// PresetConfig returns a Config with sane defaults for the named deployment preset.
// Supported presets: "astra", "local".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "astra":
		return NewDefaultConfig(), nil

	case "local":
		cfg := NewDefaultConfig()
		cfg.Flow.BaseURL = "http://localhost:7860"
		cfg.Flow.OrgID = ""
		cfg.Flow.Tweaks = nil
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: astra, local)", name)
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"astra", "local"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if err := validateVersion(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 0 && cfg.Version != CurrentV {
		return fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}
	return nil
}
