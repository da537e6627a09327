package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newURICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uri <path>",
		Short: "Print the URL a call would use without sending it",
		Example: strings.TrimSpace(`  apifetch uri /users/{id}/posts --base https://api.example.com -p id=5 -q 'tags=["a","b"]'
  apifetch uri /pets --spec petstore.yaml -q 'ids=[1,2]'`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveRequestConfig(cmd)
			if err != nil {
				return err
			}
			method, err := cmd.Flags().GetString("method")
			if err != nil {
				return err
			}

			client, err := buildClient(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			uri, err := client.URI(method, args[0], cfg.requestOptions()...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), uri)
			return err
		},
	}

	addRequestFlags(cmd.Flags())
	cmd.Flags().StringP("method", "X", "GET", "Method used to look up parameter styles in --spec")
	return cmd
}
