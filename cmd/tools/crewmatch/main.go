// cmd/tools/crewmatch/main.go
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	outputFmt string
	noColor   bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crewmatch",
		Short: "Preview crew-to-leg rankings and manage the activity registry",
		Long: `crewmatch scores a crew profile against a set of legs without a
running workflow engine, or against a running worker manager with --server.

Examples:
  crewmatch rank --fixture configs/fixtures/canaries.toml
  crewmatch rank --fixture canaries.toml -o json
  crewmatch rank --fixture canaries.toml --server http://localhost:8080
  crewmatch registry validate
  crewmatch registry list`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "output format (table, json)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRankCmd())
	root.AddCommand(newRegistryCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
