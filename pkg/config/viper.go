package config

import (
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "FLOWCHAT"

// InitViper creates and returns a configured *viper.Viper layered over base,
// the config loaded from config.toml (or NewDefaultConfig() when there is no
// file). Only the scalar keys of ValidConfigKeys go through viper: it lower
// cases map keys, and flow tweak component IDs are case sensitive.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FLOWCHAT_FLOW_BASE_URL, FLOWCHAT_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(base *Config) *viper.Viper {
	v := viper.New()

	setViperDefaults(v, base)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The token is also accepted under the name hosted flow consoles hand out.
	_ = v.BindEnv("flow.token", envPrefix+"_FLOW_TOKEN", "APPLICATION_TOKEN")

	return v
}

// Resolve returns a copy of base with every scalar key read back from v.
func Resolve(v *viper.Viper, base *Config) (*Config, error) {
	cfg := *base

	for _, key := range ValidConfigKeys() {
		if err := configKeys[key].set(&cfg, v.GetString(key)); err != nil {
			return nil, err
		}
	}

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Flow.TimeoutDuration(); err != nil {
		return nil, err
	}
	if _, err := cfg.API.SessionTTLDuration(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setViperDefaults registers every scalar key of cfg as a viper default using
// dotted-key notation.
func setViperDefaults(v *viper.Viper, cfg *Config) {
	for _, key := range ValidConfigKeys() {
		v.SetDefault(key, configKeys[key].get(cfg))
	}
}
