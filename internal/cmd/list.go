package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/cache"
)

// NewListCommand creates the 'finddoc list' command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured roots and their cache status",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(app.roots) == 0 {
		fmt.Fprintf(out, "No roots configured. Add one with 'finddoc add PATH'.\n")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, root := range app.roots {
		info, err := app.cacheDir.Stat(root)
		switch {
		case errors.Is(err, cache.ErrNoCache):
			fmt.Fprintf(out, "%s  %s\n", root, yellow("not scanned"))
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "%s  %s\n", root,
				green(fmt.Sprintf("%d files, scanned %s ago", info.Count, formatAge(time.Since(info.ModTime)))))
		}
	}
	return nil
}

// formatAge renders a duration the way a human reads cache staleness.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
