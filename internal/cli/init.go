package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			configDir := conf.GetString("config_dir")
			if flags.jsonMode {
				return printJSON(cmd, map[string]string{
					"config":  configDir,
					"data":    a.settings.DataDir,
					"backend": a.settings.Backend,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "tripdeck initialized")
			fmt.Fprintln(out, "  config: ", configDir)
			fmt.Fprintln(out, "  data:   ", a.settings.DataDir)
			fmt.Fprintln(out, "  backend:", a.settings.Backend)
			return nil
		},
	}
}
