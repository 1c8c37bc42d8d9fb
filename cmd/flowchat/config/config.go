// Package configcmder provides the config command for managing persistent
// flowchat configuration stored in the .flowchat/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent flowchat configuration.

Configuration is stored as config.toml in the .flowchat/ directory and provides
default values for command flags. CLI flags and environment variables always
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  flow.base_url, flow.org_id, flow.endpoint_id, flow.token,
  flow.timeout, flow.session_id,
  api.listen,
  events.provider, events.brokers, events.topic

Flow tweaks and sample prompts are edited directly in config.toml under
[flow.tweaks.<component-id>] and [[prompts]].

Use subcommands to initialize, get, set, or list configuration values:
  flowchat config init                 Write a config file from a preset
  flowchat config set <key> <value>    Set a configuration value
  flowchat config get <key>            Get a configuration value
  flowchat config list                 List all configuration values

Examples:
  flowchat config init --preset local
  flowchat config set flow.endpoint_id 41708703-20f2-4d0d-8e7a-2a7e7b621b03
  flowchat config set flow.timeout 45s
  flowchat config get flow.base_url
  flowchat config list`

const configShortDesc string = "Manage persistent flowchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
