package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ambiyansyah-risyal/apifetch"
	"github.com/ambiyansyah-risyal/apifetch/internal/jq"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <METHOD> <path>",
		Short: "Send a request and print its outcome",
		Long: "Send a request and print its outcome as {kind, status, data, error}. " +
			"In strict-throw and error-field modes an error that the mode surfaces " +
			"is reported on stderr and the command exits with status 1; in " +
			"exhaustive mode every outcome is printed.",
		Example: strings.TrimSpace(`  apifetch call GET /users/{id} --base https://api.example.com -p id=5
  apifetch call POST /users --body '{"name":"Alex"}' --mode error-field --jq .data.id
  apifetch call GET /pets --spec petstore.yaml -q 'ids=[1,2]' --output yaml`),
		Args: cobra.ExactArgs(2),
		RunE: runCall,
	}

	flags := cmd.Flags()
	addRequestFlags(flags)
	flags.StringP("mode", "m", "", "Outcome mode: strict-throw, error-field or exhaustive")
	flags.StringArrayP("header", "H", nil, "Request header as 'Name: value'")
	flags.StringP("body", "d", "", "Request body; @file reads a file and - reads stdin")
	flags.String("content-type", "", "Override the Content-Type of the body")
	flags.Duration("timeout", 0, "Request timeout (default 30s)")
	flags.String("jq", "", "jq expression applied to the printed outcome")
	flags.StringP("output", "o", "json", "Output format: json or yaml")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := resolveRequestConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	method := strings.ToUpper(args[0])
	path := args[1]

	format, _ := flags.GetString("output")
	if !validOutput(format) {
		return newUsageError(fmt.Sprintf("unsupported --output %q (allowed: json, yaml)", format))
	}

	var filter *jq.Filter
	if expr, _ := flags.GetString("jq"); expr != "" {
		if filter, err = jq.Compile(expr, 0); err != nil {
			return newUsageError(err.Error())
		}
	}

	var body any
	if flags.Changed("body") {
		if !apifetch.MethodAllowsBody(method) {
			return newUsageError(fmt.Sprintf("--body is not allowed for %s (only POST, PUT and PATCH take a body)", method))
		}
		raw, _ := flags.GetString("body")
		if body, err = readBody(raw, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	opts := cfg.requestOptions()
	if ct, _ := flags.GetString("content-type"); ct != "" {
		opts = append(opts, apifetch.WithContentType(ct))
	}

	client, err := buildClient(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out, err := client.Do(cmd.Context(), method, path, body, opts...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var result any = newOutcomeView(out)
	if filter != nil {
		if result, err = filter.Run(cmd.Context(), result); err != nil {
			return fmt.Errorf("jq: %w", err)
		}
	}
	return writeOutput(cmd.OutOrStdout(), format, result)
}

// readBody resolves the --body value. JSON text is sent as JSON, anything
// else as plain text.
func readBody(raw string, stdin io.Reader) (any, error) {
	var data []byte
	switch {
	case raw == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		data = b
	case strings.HasPrefix(raw, "@"):
		b, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, newUsageError(fmt.Sprintf("read body file: %v", err))
		}
		data = b
	default:
		data = []byte(raw)
	}

	if json.Valid(data) {
		return json.RawMessage(data), nil
	}
	return string(data), nil
}
