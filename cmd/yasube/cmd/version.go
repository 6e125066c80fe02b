package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yasube/yasube/internal/yasube"
)

// Print version info and exit.
func versionCmd(a *yasube.App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Version()
		},
	}
}
