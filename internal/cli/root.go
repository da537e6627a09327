// Package cli implements the apifetch command line tool.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the apifetch CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apifetch",
		Short: "Call OpenAPI described HTTP APIs from the command line",
		Long: "apifetch resolves OpenAPI path templates, serializes query parameters " +
			"with the OpenAPI styles and prints every call as an outcome.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log requests and outcomes to stderr")

	for _, sub := range []*cobra.Command{newURICmd(), newCallCmd(), newRoutesCmd(), newVersionCmd()} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}

	return cmd
}

// flagError turns cobra flag errors into usage errors that carry the help
// text of the command.
func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
