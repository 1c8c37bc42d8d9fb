// Package promptscmder provides the prompts command for listing the sample
// prompts offered by the chat front-ends.
package promptscmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/flowchat/pkg/cliui"
	"github.com/papercomputeco/flowchat/pkg/config"
	"github.com/papercomputeco/flowchat/pkg/prompts"
)

type promptsCommander struct {
	json bool
}

const promptsLongDesc string = `List the sample prompts.

Sample prompts are grouped by category and numbered across categories.
Send one from the chat with /N, or from the API with
POST /sessions/:id/prompts/N. Configure them under [[prompts]] in
config.toml; the built in prompts are used when none are configured.

Examples:
  flowchat prompts
  flowchat prompts --json`

const promptsShortDesc string = "List the sample prompts"

func NewPromptsCmd() *cobra.Command {
	cmder := &promptsCommander{}

	cmd := &cobra.Command{
		Use:   "prompts",
		Short: promptsShortDesc,
		Long:  promptsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfg, err := config.Load(configDir, nil, nil)
			if err != nil {
				return err
			}
			return cmder.run(cmd.OutOrStdout(), cfg.Catalog())
		},
	}

	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the prompts as JSON")

	return cmd
}

func (c *promptsCommander) run(out io.Writer, catalog *prompts.Catalog) error {
	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog.Entries())
	}

	fmt.Fprintln(out)
	entries := catalog.Entries()
	for _, cat := range catalog.Categories() {
		fmt.Fprintf(out, "  %s\n", cliui.NameStyle.Render(cat.Name))
		for _, e := range entries {
			if e.Category != cat.Name {
				continue
			}
			fmt.Fprintf(out, "    %s  %s\n",
				cliui.KeyStyle.Render(fmt.Sprintf("%2d", e.Index)),
				cliui.ValueStyle.Render(e.Prompt),
			)
		}
		fmt.Fprintln(out)
	}

	return nil
}
