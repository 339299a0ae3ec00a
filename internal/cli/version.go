package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tripdeck/pkg/tripdeck"
)

const modulePath = "github.com/mesh-intelligence/tripdeck"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tripdeck version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return printJSON(cmd, map[string]string{"version": tripdeck.Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tripdeck v%s\nmodule: %s\n", tripdeck.Version, modulePath)
			return nil
		},
	}
}
