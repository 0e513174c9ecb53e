package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cvebot/internal/render"
)

var searchInteractive bool

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search for CVEs by keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "Browse results in an interactive pager")
}

func runSearch(cmd *cobra.Command, args []string) error {
	records, err := newNVDClient().SearchByKeyword(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found for the given keyword.")
		return nil
	}

	return displayPages(cmd, render.Pages(records), searchInteractive)
}
