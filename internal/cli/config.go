package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/internal/config"
	"github.com/mentora-ai/mentora/internal/errors"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return errors.NewBuilder(errors.CodeConfigInvalid, "config already exists: "+path).
				User().
				WithSuggestion("Pass --force to overwrite it").
				Build()
		}
		if err := config.Default().Save(path); err != nil {
			return errors.Wrap(err, errors.CodeConfigInvalid, "failed to write config", errors.CategorySystem)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolvedConfigPath())
		if err != nil {
			return err
		}
		if cfg.Engine.APIKey != "" {
			cfg.Engine.APIKey = "********"
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	},
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
