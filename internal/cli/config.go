package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ambiyansyah-risyal/apifetch"
	"github.com/ambiyansyah-risyal/apifetch/openapi"
)

// RequestConfig captures the inputs shared by the uri and call commands after
// merging defaults, config file values and CLI overrides.
type RequestConfig struct {
	BaseURL    string
	Mode       string
	Style      string
	Explode    bool
	Timeout    time.Duration
	Headers    map[string]string
	Spec       string
	Params     map[string]any
	Query      map[string]any
	ConfigPath string
	Verbose    bool
}

func defaultRequestConfig() RequestConfig {
	return RequestConfig{
		Mode:    string(apifetch.ModeStrictThrow),
		Style:   string(apifetch.QueryStyleForm),
		Explode: true,
		Timeout: 30 * time.Second,
		Headers: map[string]string{},
	}
}

func addRequestFlags(flags *pflag.FlagSet) {
	flags.String("base", "", "Base URL prepended to the resolved path")
	flags.StringArrayP("param", "p", nil, "Path parameter as name=value (JSON values accepted)")
	flags.StringArrayP("query", "q", nil, "Query parameter as name=value (JSON values accepted)")
	flags.String("style", "", "Query style: form, spaceDelimited, pipeDelimited or deepObject")
	flags.Bool("explode", true, "Explode arrays and objects in the query")
	flags.String("spec", "", "Path or URL of an OpenAPI document supplying the base URL and parameter styles")
}

func resolveRequestConfig(cmd *cobra.Command) (*RequestConfig, error) {
	cfg := defaultRequestConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *RequestConfig) error {
	for _, name := range []string{"base", "style", "spec", "mode"} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		value = strings.TrimSpace(value)
		switch name {
		case "base":
			cfg.BaseURL = value
		case "style":
			cfg.Style = value
		case "spec":
			cfg.Spec = value
		case "mode":
			cfg.Mode = value
		}
	}

	if flags.Changed("explode") {
		value, err := flags.GetBool("explode")
		if err != nil {
			return err
		}
		cfg.Explode = value
	}
	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		value, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	if flags.Lookup("header") != nil {
		headers, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		for _, h := range headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return newUsageError(fmt.Sprintf("invalid --header %q (expected 'Name: value')", h))
			}
			cfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	params, err := flags.GetStringArray("param")
	if err != nil {
		return err
	}
	if cfg.Params, err = parseKeyValues("param", params); err != nil {
		return err
	}

	query, err := flags.GetStringArray("query")
	if err != nil {
		return err
	}
	if cfg.Query, err = parseKeyValues("query", query); err != nil {
		return err
	}
	return nil
}

func (c *RequestConfig) validate() error {
	if !apifetch.QueryStyle(c.Style).Valid() {
		return newUsageError(fmt.Sprintf("unsupported --style %q (allowed: form, spaceDelimited, pipeDelimited, deepObject)", c.Style))
	}
	mode, err := apifetch.ParseMode(c.Mode)
	if err != nil {
		return newUsageError(fmt.Sprintf("unsupported --mode %q (allowed: strict-throw, error-field, exhaustive)", c.Mode))
	}
	c.Mode = string(mode)
	if c.Timeout < 0 {
		return newUsageError("--timeout must not be negative")
	}
	return nil
}

// parseKeyValues splits name=value pairs. Values that are valid JSON are
// decoded, so ids=[1,2] yields an array; anything else stays a string.
func parseKeyValues(flag string, pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, newUsageError(fmt.Sprintf("invalid --%s %q (expected name=value)", flag, pair))
		}
		out[name] = parseValue(value)
	}
	return out, nil
}

func parseValue(value string) any {
	if !json.Valid([]byte(value)) {
		return value
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return value
	}
	return v
}

func applyConfigFromFile(cfg *RequestConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "base", "baseurl":
			cfg.BaseURL, err = valueAsString(value)
		case "mode":
			cfg.Mode, err = valueAsString(value)
		case "style":
			cfg.Style, err = valueAsString(value)
		case "spec":
			cfg.Spec, err = valueAsString(value)
		case "explode":
			b, ok := value.(bool)
			if !ok {
				err = fmt.Errorf("expected boolean, got %T", value)
			}
			cfg.Explode = b
		case "timeout":
			cfg.Timeout, err = valueAsDuration(value)
		case "headers":
			err = mergeHeaders(cfg.Headers, value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "-", "")
	return strings.ReplaceAll(key, "_", "")
}

func valueAsString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", value)
	}
}

// valueAsDuration accepts a Go duration string or a number of seconds.
func valueAsDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", value)
	}
}

func mergeHeaders(dst map[string]string, value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected mapping, got %T", value)
	}
	for name, v := range m {
		s, err := valueAsString(v)
		if err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
		dst[name] = s
	}
	return nil
}

// buildClient turns the resolved configuration into a client. Debug logs go
// to stderr when Verbose is set.
func buildClient(ctx context.Context, cfg *RequestConfig, stderr io.Writer) (*apifetch.Client, error) {
	opts := []apifetch.Option{
		apifetch.WithMode(apifetch.Mode(cfg.Mode)),
		apifetch.WithQuerySerialization(apifetch.QuerySerialization{
			Style:   apifetch.QueryStyle(cfg.Style),
			Explode: cfg.Explode,
		}),
		apifetch.WithTimeout(cfg.Timeout),
	}

	base := cfg.BaseURL
	if cfg.Spec != "" {
		doc, err := loadSpec(ctx, cfg.Spec)
		if err != nil {
			return nil, err
		}
		if base == "" {
			base = doc.BaseURL()
		}
		opts = append(opts, apifetch.WithParamStyleResolver(doc.ParamStyles))
	}
	opts = append(opts, apifetch.WithBaseURL(base))

	names := make([]string, 0, len(cfg.Headers))
	for name := range cfg.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, apifetch.WithHeader(name, cfg.Headers[name]))
	}

	if cfg.Verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, apifetch.WithSlogLogger(logger))
	}

	client := apifetch.New(opts...)
	if !client.IsValid() {
		return nil, newUsageError(client.ValidationError().Error())
	}
	return client, nil
}

func loadSpec(ctx context.Context, location string) (*openapi.Document, error) {
	doc, err := openapi.Load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load spec: %w", err)
	}
	return doc, nil
}

// requestOptions converts the parsed parameters into per-call options.
func (c *RequestConfig) requestOptions() []apifetch.RequestOption {
	var opts []apifetch.RequestOption
	if len(c.Params) > 0 {
		opts = append(opts, apifetch.WithPathParams(c.Params))
	}
	if len(c.Query) > 0 {
		opts = append(opts, apifetch.WithQuery(c.Query))
	}
	return opts
}
