package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ambiyansyah-risyal/apifetch"
)

// outcomeView is the printed form of an outcome.
type outcomeView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Status *int   `json:"status" yaml:"status"`
	Data   any    `json:"data" yaml:"data"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newOutcomeView(out *apifetch.Outcome) outcomeView {
	view := outcomeView{
		Kind:   out.Kind.String(),
		Status: out.Status,
		Data:   out.Data,
	}
	if b, ok := view.Data.([]byte); ok {
		view.Data = string(b)
	}
	if out.Error != nil {
		view.Error = out.Error.Error()
	}
	return view
}

func validOutput(format string) bool {
	return format == "json" || format == "yaml"
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
