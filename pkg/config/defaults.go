package config

import "github.com/papercomputeco/flowchat/pkg/prompts"

const (
	defaultBaseURL    = "https://api.langflow.astra.datastax.com"
	defaultOrgID      = "34d17c26-a986-4b87-a228-81e15a1ecc86"
	defaultEndpointID = "41708703-20f2-4d0d-8e7a-2a7e7b621b03"
	defaultTimeout    = "30s"

	defaultAPIListen      = ":8081"
	defaultAPIMaxSessions = 1000
	defaultAPISessionTTL  = "1h"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "flowchat.exchanges"
)

// defaultTweakComponents are the components of the default flow. Each gets an
// empty override table.
var defaultTweakComponents = []string{
	"ChatInput-RgtFO",
	"ParseData-XbI0A",
	"Prompt-6dcqx",
	"OpenAIModel-sPgyc",
	"ChatOutput-f75Z7",
	"AstraDB-Bk2ax",
	"OpenAIEmbeddings-H7bHs",
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Flow: FlowConfig{
			BaseURL:    defaultBaseURL,
			OrgID:      defaultOrgID,
			EndpointID: defaultEndpointID,
			Timeout:    defaultTimeout,
			Tweaks:     defaultTweaks(),
		},
		API: APIConfig{
			Listen:      defaultAPIListen,
			MaxSessions: defaultAPIMaxSessions,
			SessionTTL:  defaultAPISessionTTL,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Prompts: prompts.DefaultCategories(),
	}
}

func defaultTweaks() map[string]map[string]any {
	tweaks := make(map[string]map[string]any, len(defaultTweakComponents))
	for _, id := range defaultTweakComponents {
		tweaks[id] = map[string]any{}
	}
	return tweaks
}
