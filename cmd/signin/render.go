package main

import (
	"github.com/spf13/cobra"

	"github.com/loudsight/signin/internal/view"
)

// renderCmd writes the sign-in page without starting a server
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the sign-in page to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return view.Render(cmd.OutOrStdout())
	},
}
