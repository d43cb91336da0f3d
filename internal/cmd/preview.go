package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/preview"
)

// NewPreviewCommand creates the 'finddoc preview' command. It exists
// mainly so fzf's preview window can call back into the same binary.
func NewPreviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "preview FILE",
		Short:  "Print a terminal preview of a file",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return preview.Render(cmd.OutOrStdout(), args[0])
		},
	}
}
