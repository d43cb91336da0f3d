// Package cmd wires the finddoc command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for finddoc.
// Running finddoc with no subcommand behaves like `finddoc find`.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finddoc",
		Short: "Fuzzy-find files across configured directory roots",
		Long: `Finddoc locates and opens files scattered across many configured
directory roots using the fzf fuzzy picker.

File lists are cached per root so searches start instantly; run
'finddoc update' to refresh them, or 'finddoc watch' to keep them
fresh continuously.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args)
		},
	}

	cmd.PersistentFlags().String("config", "", "path to config file (default: <user config dir>/finddoc/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log verbosity: trace, debug, info, warn, error")
	cmd.Flags().Bool("preview", false, "show the preview window")

	cmd.AddCommand(NewFindCommand())
	cmd.AddCommand(NewUpdateCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewAddCommand())
	cmd.AddCommand(NewRemoveCommand())
	cmd.AddCommand(NewPreviewCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewStatsCommand())

	return cmd
}
