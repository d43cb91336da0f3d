package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/config"
	"github.com/harrison/finddoc/internal/pathutil"
)

// NewAddCommand creates the 'finddoc add' command
func NewAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add PATH",
		Short: "Add a directory root to the search configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	if info, err := os.Stat(pathutil.ExpandVars(path)); err != nil {
		return fmt.Errorf("path %s is not accessible: %w", path, err)
	} else if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}

	stored, ok, err := config.AddRoot(configPath, path)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "'%s' is already configured\n", stored)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added '%s' to %s\n", stored, configPath)
	return nil
}

// resolveConfigPath returns the --config flag value or the default.
func resolveConfigPath(cmd *cobra.Command) (string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}
