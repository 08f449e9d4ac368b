package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/lydakis/getmyid/internal/config"
	"github.com/lydakis/getmyid/internal/paths"
	"github.com/spf13/cobra"
)

var errConfigExists = errors.New("config file already exists")

func configCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the getmyid config file",
		Args:  noArgs,
	}
	cmd.AddCommand(configInitCmd(f), configPathCmd(f))
	return cmd
}

func configInitCmd(f *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file holding the defaults",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(f)
			if _, err := os.Stat(path); err == nil && !force {
				return asUsage(fmt.Errorf("%w: %s; rerun with --force to replace it", errConfigExists, path))
			}
			if err := config.SaveTo(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func configPathCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), configPath(f))
			return nil
		},
	}
}

func configPath(f *rootFlags) string {
	if f.configPath != "" {
		return f.configPath
	}
	return paths.ConfigFile()
}
