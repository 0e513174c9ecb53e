package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cvebot/internal/nvd"
	"cvebot/internal/render"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <cve-id>",
	Short: "Lookup a specific CVE by its ID",
	Long:  `Fetches one CVE record by identifier. A bare suffix like 2021-44228 is normalized to CVE-2021-44228.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	id := nvd.NormalizeID(args[0])

	rec, err := newNVDClient().GetByID(cmd.Context(), id)
	if errors.Is(err, nvd.ErrNotFound) {
		return fmt.Errorf("no record found for %s, verify the identifier and retry", id)
	}
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	return displayPages(cmd, []render.Page{render.Render(rec)}, false)
}
