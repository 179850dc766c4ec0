package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/config"
)

// sampleConfig is written by "config init".
const sampleConfig = `# healthviz configuration

[cache]
# file, redis or none
backend = "file"
ttl = "24h"
# redis_addr = "localhost:6379"

[storage]
# memory, file or mongo
backend = "memory"
# uri = "mongodb://localhost:27017"
# database = "healthviz"

[server]
listen = ":8080"
shutdown_timeout = "10s"

[[charts]]
name = "diabetes"
kind = "sunburst"
source = "data/diabetes.csv"
levels = ["State", "Year"]
measure = "Diabetes %"

[[charts]]
name = "burden"
kind = "flow"
source = "data/burden.csv"
stages = ["rei", "age", "sex", "year"]
weight = "val"
merge = true
formats = ["json", "svg"]

[[charts]]
name = "obesity"
kind = "rates"
source = "data/obesity.csv"
entity = "States"
population_source = "data/population.csv"
population_field = "Total Resident Population"
start_year = 2019
end_year = 2022
`

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the configuration file",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configValidateCommand())
	cmd.AddCommand(c.configInitCommand())

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and chart presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if asTOML {
				return toml.NewEncoder(os.Stdout).Encode(cfg)
			}

			printKeyValue("Config", configLabel(cfg))
			printKeyValue("Cache", cacheLabel(cfg.Cache.Backend, false))
			printKeyValue("Storage", string(cfg.Storage.Backend))
			printKeyValue("Listen", cfg.Server.Listen)
			printNewline()
			if len(cfg.Charts) == 0 {
				printInfo("No chart presets")
				return nil
			}
			fmt.Println(presetsTable(cfg.Charts))
			printNewline()
			printNextStep("Build one", appName+" run "+cfg.Charts[0].Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTOML, "toml", false, "print the decoded config as TOML")
	return cmd
}

// configValidateCommand creates the "config validate" subcommand.
func (c *CLI) configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			printSuccess("%s is valid (%d presets)", configLabel(cfg), len(cfg.Charts))
			return nil
		},
	}
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				p, err := c.configPath()
				if err != nil {
					return err
				}
				path = p
			}
			return writeSampleConfig(path, force)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination (default: config path, - for stdout)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func writeSampleConfig(path string, force bool) error {
	if path != "-" {
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
	}

	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := fmt.Fprint(out, sampleConfig); err != nil {
		return err
	}
	if path != "-" {
		printSuccess("Wrote sample config")
		printFile(path)
	}
	return nil
}

// configPath is the --config flag or the default location.
func (c *CLI) configPath() (string, error) {
	if c.ConfigPath != "" {
		return c.ConfigPath, nil
	}
	return config.DefaultPath()
}
