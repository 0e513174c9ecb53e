package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cvebot/internal/render"
)

var (
	latestCount       int
	latestInteractive bool
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Fetch the latest CVEs",
	Long:  `Fetches CVEs published in the trailing 7-day window, newest first as the feed returns them.`,
	RunE:  runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
	latestCmd.Flags().IntVarP(&latestCount, "count", "n", 0, "Number of CVEs to fetch (default from config, 10)")
	latestCmd.Flags().BoolVarP(&latestInteractive, "interactive", "i", false, "Browse results in an interactive pager")
}

func runLatest(cmd *cobra.Command, args []string) error {
	count := latestCount
	if count < 1 {
		count = viper.GetInt("latest.count")
	}

	end := time.Now()
	start := end.Add(-time.Duration(viper.GetInt("latest.window_days")) * 24 * time.Hour)

	records, err := newNVDClient().GetByDateRange(cmd.Context(), start, end, count)
	if err != nil {
		return fmt.Errorf("failed to fetch latest CVEs: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No latest CVEs found.")
		return nil
	}

	return displayPages(cmd, render.Pages(records), latestInteractive)
}
