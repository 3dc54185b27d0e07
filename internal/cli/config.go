package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insee-t/tt/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
		Long: `Inspect or create the TOML configuration file.

The file is read from --config, $TT_CONFIG, or ~/.config/tt/config.toml
($XDG_CONFIG_HOME/tt/config.toml when XDG_CONFIG_HOME is set). Every key is
optional. API keys are never stored in the file; set OPENAI_API_KEY,
GOOGLE_API_KEY and TYPHOON_API_KEY in the environment or a .env file.`,
		Example: `  tt config path
  tt config show
  tt config init
  tt config init --force --config ./tt.toml`,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: $TT_CONFIG or ~/.config/tt/config.toml)")

	cmd.AddCommand(configPathCmd(env, &configPath))
	cmd.AddCommand(configShowCmd(env, &configPath))
	cmd.AddCommand(configInitCmd(env, &configPath))

	return cmd
}

// configPathCmd creates the "config path" subcommand.
func configPathCmd(env *Env, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(env, *configPath)
		},
	}
}

// configShowCmd creates the "config show" subcommand.
func configShowCmd(env *Env, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: defaults merged with the config file,
after normalization. TT_LOG_LEVEL overrides are included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(env, *configPath)
		},
	}
}

// configInitCmd creates the "config init" subcommand.
func configInitCmd(env *Env, configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(env, *configPath, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// runConfigPath handles the "config path" command.
func runConfigPath(env *Env, path string) error {
	resolved, err := config.ResolvePath(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, resolved)
	return nil
}

// runConfigShow handles the "config show" command.
func runConfigShow(env *Env, path string) error {
	cfg, resolved, exists, err := env.ConfigLoader.Load(path)
	if err != nil {
		return err
	}

	out, err := cfg.Encode()
	if err != nil {
		return err
	}

	if exists {
		fmt.Fprintf(env.Stdout, "# %s\n", resolved)
	} else {
		fmt.Fprintf(env.Stdout, "# %s (not found, showing defaults)\n", resolved)
	}
	fmt.Fprint(env.Stdout, out)
	return nil
}

// runConfigInit handles the "config init" command.
func runConfigInit(env *Env, path string, force bool) error {
	resolved, err := config.ResolvePath(path)
	if err != nil {
		return err
	}
	if err := config.WriteSample(resolved, force); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Wrote sample config to %s\n", resolved)
	return nil
}
