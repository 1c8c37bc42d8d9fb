// Package flowchatcmder
package flowchatcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/flowchat/cmd/flowchat/chat"
	configcmder "github.com/papercomputeco/flowchat/cmd/flowchat/config"
	mcpcmder "github.com/papercomputeco/flowchat/cmd/flowchat/mcp"
	promptscmder "github.com/papercomputeco/flowchat/cmd/flowchat/prompts"
	servecmder "github.com/papercomputeco/flowchat/cmd/flowchat/serve"
	versioncmder "github.com/papercomputeco/flowchat/cmd/version"
)

const flowchatLongDesc string = `flowchat is a chat front-end for hosted conversational flows.

Questions are forwarded to a run flow API and the text answer is shown.

Get started:
  flowchat chat            Chat in the terminal
  flowchat chat --plain    Chat in a plain line-oriented prompt
  flowchat serve           Serve chat sessions over HTTP
  flowchat mcp             Serve chat sessions as MCP tools over stdio
  flowchat prompts         List the sample prompts
  flowchat config list     Show the current configuration`

const flowchatShortDesc string = "flowchat - chat with a hosted flow"

func NewFlowchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flowchat",
		Short:         flowchatShortDesc,
		Long:          flowchatLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .flowchat/ directory location")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(promptscmder.NewPromptsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
