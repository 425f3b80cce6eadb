package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tahyonline/mismisquote/configs"
	"github.com/tahyonline/mismisquote/internal/config"
	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
	"github.com/tahyonline/mismisquote/internal/output"
)

// configOptions holds the config command options.
type configOptions struct {
	jsonOut bool
	noColor bool
}

// newConfigCmd creates the config command and its init subcommand.
func newConfigCmd() *cobra.Command {
	opts := &configOptions{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after merging the built-in defaults,
the user config, the project config and MISMISQUOTE_* environment
overrides, along with where each file was looked for.

Examples:
  mismisquote config
  mismisquote config --json
  mismisquote config init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Machine-readable JSON output")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

// runConfigShow prints the merged configuration and its sources.
func runConfigShow(cmd *cobra.Command, opts *configOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout(), opts.noColor)

	if opts.jsonOut {
		return out.JSON(cfg)
	}

	if configPath != "" {
		out.Statusf("", "config file: %s", configPath)
	} else {
		user := config.GetUserConfigPath()
		suffix := ""
		if _, err := os.Stat(user); err != nil {
			suffix = " (not found)"
		}
		out.Statusf("", "user config: %s%s", user, suffix)
		if project := config.ProjectConfigPath("."); project != "" {
			out.Statusf("", "project config: %s", project)
		} else {
			out.Status("", "project config: none")
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return mmqerrors.InternalError("marshal config", err)
	}
	out.Code(strings.TrimRight(string(data), "\n"))
	return nil
}

// newConfigInitCmd creates the config init subcommand.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default .mismisquote.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing project config")

	return cmd
}

// runConfigInit writes the default project config to the current directory.
func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout(), false)

	path := ".mismisquote.yaml"
	if _, err := os.Stat(path); err == nil && !force {
		return mmqerrors.ConflictError(path + " already exists").
			WithSuggestion("pass --force to overwrite it")
	}

	if err := os.WriteFile(path, []byte(configs.ProjectTemplate), 0644); err != nil {
		return mmqerrors.IOError("write "+path+" failed", err)
	}

	out.Successf("wrote %s", path)
	return nil
}
