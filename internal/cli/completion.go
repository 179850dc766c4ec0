package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/flow"
	"github.com/matzehuels/healthviz/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for healthviz.

Besides commands and flags, the scripts complete preset names for "run" and
"browse --preset" (read from the config file), output formats per chart kind,
input formats and flow --on-missing policies.`,
		Example: `  # Bash, current session
  source <(healthviz completion bash)

  # Zsh, every session
  healthviz completion zsh > "${fpath[1]}/_healthviz"

  # Fish
  healthviz completion fish > ~/.config/fish/completions/healthviz.fish

  # PowerShell
  healthviz completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// chartFormats are the output formats each chart command accepts.
var chartFormats = map[string][]string{
	chart.KindSunburst: {pipeline.FormatJSON},
	chart.KindFlow:     {pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPDF, pipeline.FormatPNG},
	chart.KindRates:    {pipeline.FormatJSON},
}

// registerCompletions wires flag value completion on the commands below root.
func (c *CLI) registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		if formats, ok := chartFormats[cmd.Name()]; ok {
			_ = cmd.RegisterFlagCompletionFunc("format", completeValues(formats...))
		}
		if cmd.Flags().Lookup("input-format") != nil {
			_ = cmd.RegisterFlagCompletionFunc("input-format",
				completeValues(string(dataset.FormatCSV), string(dataset.FormatXLSX)))
		}
		if cmd.Flags().Lookup("on-missing") != nil {
			_ = cmd.RegisterFlagCompletionFunc("on-missing",
				completeValues(flow.SkipRow.String(), flow.Abort.String()))
		}
		if cmd.Flags().Lookup("preset") != nil {
			_ = cmd.RegisterFlagCompletionFunc("preset", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
				return c.presetNames(), cobra.ShellCompDirectiveNoFileComp
			})
		}
	}
}

func completeValues(values ...string) cobra.CompletionFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
