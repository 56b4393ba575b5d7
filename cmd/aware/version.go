package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/aware"
	"github.com/aretw0/aware/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of aware",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if tui.IsTerminal(out) {
			tui.PrintBanner(out, strings.TrimSpace(aware.Version))
			return
		}
		fmt.Fprintf(out, "aware version %s\n", strings.TrimSpace(aware.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
