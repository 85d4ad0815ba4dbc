package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loudsight/signin/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "signin",
	Short: "Loudsight sign-in service",
	Long: `Serves the Loudsight sign-in page and keeps the signed-in app behind a session check.

Available subcommands:
  serve   - Run the HTTP server
  render  - Write the sign-in page to stdout
  version - Print the build version`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, renderCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
