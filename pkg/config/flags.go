package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands and descriptions inline. This prevents flag drift when the same
// logical flag appears on multiple commands (e.g., --endpoint on both
// "flowchat chat" and "flowchat serve").
type Flag struct {
	// Name is the long flag name (e.g. "endpoint").
	Name string

	// Shorthand is the one-letter short flag (e.g. "e"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "flow.endpoint_id").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags to
// avoid typos or drift from one command to another.
const (
	FlagBaseURL        = "base-url"
	FlagOrgID          = "org-id"
	FlagEndpoint       = "endpoint"
	FlagTimeout        = "timeout"
	FlagFlowSession    = "flow-session"
	FlagAPIListen      = "listen"
	FlagEventsProvider = "events-provider"
	FlagEventsBrokers  = "events-brokers"
	FlagEventsTopic    = "events-topic"
)

// Flags is the registry shared by every command.
var Flags = FlagSet{
	FlagBaseURL: {
		Name:        "base-url",
		ViperKey:    "flow.base_url",
		Description: "Flow service base URL",
	},
	FlagOrgID: {
		Name:        "org-id",
		ViperKey:    "flow.org_id",
		Description: "Flow organization ID (empty for a self-hosted flow service)",
	},
	FlagEndpoint: {
		Name:        "endpoint",
		Shorthand:   "e",
		ViperKey:    "flow.endpoint_id",
		Description: "Flow endpoint ID to run",
	},
	FlagTimeout: {
		Name:        "timeout",
		Shorthand:   "t",
		ViperKey:    "flow.timeout",
		Description: "Timeout for a single flow call (e.g. 30s)",
	},
	FlagFlowSession: {
		Name:        "flow-session",
		ViperKey:    "flow.session_id",
		Description: "Session ID forwarded to the flow for its own memory",
	},
	FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	FlagEventsProvider: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Exchange event publisher (none, kafka)",
	},
	FlagEventsBrokers: {
		Name:        "events-brokers",
		ViperKey:    "events.brokers",
		Description: "Comma separated Kafka brokers for exchange events",
	},
	FlagEventsTopic: {
		Name:        "events-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for exchange events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringP(def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().String(def.Name, defaultVal, def.Description)
	}
}

// AddStringFlags registers every flag named by registryKeys.
func AddStringFlags(cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, key := range registryKeys {
		AddStringFlag(cmd, fs, key)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v, NewDefaultConfig())
	return v.GetString(viperKey)
}
