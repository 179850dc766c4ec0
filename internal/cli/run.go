package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/config"
	"github.com/matzehuels/healthviz/pkg/errors"
)

// runCommand creates the run command for config presets.
func (c *CLI) runCommand() *cobra.Command {
	var flags chartFlags

	cmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "Build a chart preset from the config file",
		Long: `Build a chart preset from the config file.

Presets are [[charts]] tables in the config file carrying every option of the
sunburst, flow or rates commands under a name. The output formats of the
preset apply unless --format is given. List presets with 'healthviz config show'.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return c.presetNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreset(cmd.Context(), args[0], flags)
		},
	}

	flags.register(cmd, "comma-separated output formats (default: from preset)")
	return cmd
}

func (c *CLI) runPreset(ctx context.Context, name string, flags chartFlags) error {
	p, err := c.preset(name)
	if err != nil {
		return err
	}

	opts := p.Options
	if flags.formats == "" {
		flags.formats = joinList(opts.Formats)
	}
	if flags.title == "" {
		flags.title = opts.Title
	}
	if len(flags.schema) == 0 {
		for field, column := range opts.Schema {
			flags.schema = append(flags.schema, field+"="+column)
		}
	}
	if flags.input == "" {
		flags.input = string(opts.Format)
	}
	if flags.output == "" {
		flags.output = p.Name
	}
	defer streamUI(flags.output)()

	printInfo("Preset %s", StyleHighlight.Render(p.Name))
	res, err := c.runChart(ctx, opts, flags)
	if err != nil {
		return err
	}
	printDetail("%s", res.Chart.Summary())
	return nil
}

// preset looks up a named preset in the loaded config.
func (c *CLI) preset(name string) (config.Preset, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return config.Preset{}, err
	}
	p, ok := cfg.Preset(name)
	if !ok {
		return config.Preset{}, errors.New(errors.ErrCodeNotFound, "no chart preset named %q in %s", name, configLabel(cfg))
	}
	return p, nil
}

// presetNames lists preset names for shell completion.
func (c *CLI) presetNames() []string {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil
	}
	names := make([]string, len(cfg.Charts))
	for i, p := range cfg.Charts {
		names[i] = p.Name
	}
	return names
}

func configLabel(cfg *config.Config) string {
	if cfg.Path == "" {
		return "default config"
	}
	return fmt.Sprintf("config %s", cfg.Path)
}
