package main

import (
	"fmt"

	"github.com/daviddao/nexus/internal/display"
	"github.com/daviddao/nexus/internal/feature"
	"github.com/daviddao/nexus/internal/types"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print today's mess menu",
	Long: `Fetch the live mess menu once and print it.

Examples:
  nx menu            # Table of meals with ratings
  nx menu --json     # Machine-readable output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd)
	},
}

func runMenu(cmd *cobra.Command) error {
	job, ok := shell.Mount()
	if !ok {
		return fmt.Errorf("menu already loaded")
	}
	job(cmd.Context())

	snap := shell.Menu().Snapshot()
	if snap.State == feature.Failed {
		return errBackend
	}
	entries, _ := snap.Latest()
	if entries == nil {
		entries = []types.MenuEntry{}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, entries)
	}

	if len(entries) == 0 {
		if !quietFlag {
			fmt.Fprintln(out, display.Dim.Render("No menu available"))
		}
		return nil
	}

	if !quietFlag {
		display.Header(out, display.Title(types.FeatureMenu))
	}
	fmt.Fprintln(out, menuTable(entries))
	return nil
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
