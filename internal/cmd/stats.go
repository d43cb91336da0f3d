package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/pathutil"
)

// NewStatsCommand creates the 'finddoc stats' command
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [ROOT]",
		Short: "Show recent scan history",
		Long: `Display recent scans recorded for the configured roots: file
counts, durations and what triggered each scan. Pass a root path to
restrict the history to that root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStats,
	}
	cmd.Flags().Int("limit", 20, "maximum number of scans to show")
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	root := ""
	if len(args) == 1 {
		root, err = pathutil.Normalize(args[0])
		if err != nil {
			return err
		}
	}
	limit, _ := cmd.Flags().GetInt("limit")

	scans, err := store.RecentScans(cmd.Context(), root, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(scans) == 0 {
		fmt.Fprintf(out, "No scan history yet. Run 'finddoc update' first.\n")
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(out, "%s\n", bold("Recent scans:"))
	for _, scan := range scans {
		fmt.Fprintf(out, "  %s  %s  %7d files  %6s  (%s)\n",
			scan.FinishedAt.Local().Format("2006-01-02 15:04"),
			cyan(scan.Root),
			scan.FileCount,
			scan.Duration.Round(10*time.Millisecond).String(),
			scan.Reason,
		)
	}
	return nil
}
