package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/config"
)

// NewRemoveCommand creates the 'finddoc remove' command
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove PATH",
		Short: "Remove a directory root from the search configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	configPath, err := resolveConfigPath(cmd)
	if err != nil {
		return err
	}

	removed, ok, err := config.RemoveRoot(configPath, args[0])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "'%s' is not in the configured roots\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed '%s' from %s\n", removed, configPath)

	// The stale cache list stays on disk until the next update purges it.
	return nil
}
