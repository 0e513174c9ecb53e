package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cvebot/internal/render"
	"cvebot/internal/ui"
)

// displayPages prints pages to the terminal, either as a plain colored
// report or through the interactive pager.
func displayPages(cmd *cobra.Command, pages []render.Page, interactive bool) error {
	if interactive {
		timeout := time.Duration(viper.GetInt("pagination.timeout")) * time.Second
		return ui.RunPager(pages, timeout)
	}

	out := cmd.OutOrStdout()
	for _, p := range pages {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Color))
		fmt.Fprintln(out, style.Render(p.Title))
		if p.Body != "" {
			fmt.Fprintln(out, p.Body)
		}
		fmt.Fprintf(out, "Severity: %s\n\n", style.Render(p.Severity))
	}
	return nil
}
