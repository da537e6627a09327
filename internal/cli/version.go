package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ambiyansyah-risyal/apifetch"
)

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "text" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), apifetch.GetVersion())
				return err
			}
			if !validOutput(output) {
				return newUsageError(fmt.Sprintf("unsupported output format %q (use text, json or yaml)", output))
			}
			return writeOutput(cmd.OutOrStdout(), output, apifetch.GetVersionInfo())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}
