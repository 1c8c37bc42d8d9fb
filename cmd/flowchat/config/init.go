package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/flowchat/pkg/cliui"
	"github.com/papercomputeco/flowchat/pkg/config"
)

const initLongDesc string = `Write a config.toml from a preset.

Presets:
  astra   the hosted Langflow service with the default flow and tweaks
  local   a self-hosted Langflow at http://localhost:7860 without an org

Without --preset the preset is chosen interactively when running in a
terminal, and "astra" is used otherwise. An existing config.toml is only
replaced with --force.

Examples:
  flowchat config init
  flowchat config init --preset local
  flowchat config init --preset astra --force`

const initShortDesc string = "Write a config file from a preset"

type initCommander struct {
	preset string
	force  bool
}

func newInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Preset to write (astra, local)")
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Replace an existing config file")

	return cmd
}

func (c *initCommander) run(out io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if _, err := os.Stat(target); err == nil && !c.force {
		return fmt.Errorf("config file already exists: %s (use --force to replace it)", target)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config file: %w", err)
	}

	preset := c.preset
	if preset == "" {
		preset, err = choosePreset()
		if err != nil {
			return err
		}
	}

	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Wrote %s preset to %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(preset),
		cliui.DimStyle.Render(target),
	)
	return nil
}

func choosePreset() (string, error) {
	names := config.ValidPresetNames()
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return names[0], nil
	}

	options := make([]huh.Option[string], len(names))
	for i, name := range names {
		options[i] = huh.NewOption(name, name)
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which flow service do you use?").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("choosing preset: %w", err)
	}

	return selected, nil
}
