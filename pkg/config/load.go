package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/flowchat/pkg/flow"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

// Load reads config.toml from configDir and resolves it against the
// environment and the flags of cmd named by flagKeys. cmd may be nil.
func Load(configDir string, cmd *cobra.Command, flagKeys []string) (*Config, error) {
	cfger, err := NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	base, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	v := InitViper(base)
	if cmd != nil {
		BindRegisteredFlags(v, cmd, Flags, flagKeys)
	}

	return Resolve(v, base)
}

// ClientConfig converts the flow section into a flow client configuration.
func (f FlowConfig) ClientConfig() (flow.Config, error) {
	timeout, err := f.TimeoutDuration()
	if err != nil {
		return flow.Config{}, err
	}

	return flow.Config{
		BaseURL:    f.BaseURL,
		OrgID:      f.OrgID,
		EndpointID: f.EndpointID,
		Token:      f.Token,
		Tweaks:     flow.Tweaks(f.Tweaks),
		SessionID:  f.SessionID,
		Timeout:    timeout,
	}, nil
}

// Catalog returns the configured sample prompts, or the built in ones when
// none are configured.
func (c *Config) Catalog() *prompts.Catalog {
	if len(c.Prompts) == 0 {
		return prompts.Default()
	}
	return prompts.NewCatalog(c.Prompts)
}
