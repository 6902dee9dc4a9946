package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/plantbot/internal/server"
)

// NewVersionCmd creates the 'version' command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "plantbot %s (%s)\n", server.Version, runtime.Version())
			return nil
		},
	}
}
