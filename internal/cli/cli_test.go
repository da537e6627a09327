package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambiyansyah-risyal/apifetch"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
servers:
  - url: https://pets.example.com/v1
paths:
  /pets:
    get:
      operationId: listPets
      parameters:
        - name: ids
          in: query
          style: pipeDelimited
          explode: false
          schema:
            type: array
            items:
              type: integer
        - name: tags
          in: query
          schema:
            type: array
            items:
              type: string
      responses:
        '200':
          description: ok
  /pets/{petId}:
    get:
      operationId: getPet
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
      responses:
        '200':
          description: ok
`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":5,"name":"Alex","auth":"` + r.Header.Get("Authorization") + `"}`))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"received":` + string(body) + `,"type":"` + r.Header.Get("Content-Type") + `"}`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.URL.RawQuery))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decodeOutcome(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestURICommand(t *testing.T) {
	out, _, err := run(t, "uri", "/users/{id}/posts",
		"--base", "https://api.example.com",
		"-p", "id=5",
		"-q", `tags=["a","b"]`,
		"-q", "q=go lang",
	)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users/5/posts?q=go%20lang&tags=a&tags=b\n", out)
}

func TestURICommandStyle(t *testing.T) {
	out, _, err := run(t, "uri", "/items",
		"--style", "pipeDelimited", "--explode=false",
		"-q", "ids=[1,2,3]",
	)
	require.NoError(t, err)
	assert.Equal(t, "/items?ids=1|2|3\n", out)
}

func TestURICommandWithSpec(t *testing.T) {
	spec := writeFile(t, "petstore.yaml", petstore)

	out, _, err := run(t, "uri", "/pets", "--spec", spec, "-q", "ids=[1,2]", "-q", `tags=["x","y"]`)
	require.NoError(t, err)
	assert.Equal(t, "https://pets.example.com/v1/pets?ids=1|2&tags=x&tags=y\n", out)

	out, _, err = run(t, "uri", "/pets", "--spec", spec, "--base", "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/pets\n", out)
}

func TestCallSuccess(t *testing.T) {
	api := newAPI(t)

	out, _, err := run(t, "call", "get", "/users/{id}", "--base", api.URL, "-p", "id=5", "-H", "Authorization: Bearer t")
	require.NoError(t, err)

	v := decodeOutcome(t, out)
	assert.Equal(t, "success", v["kind"])
	assert.Equal(t, 200.0, v["status"])
	assert.Equal(t, map[string]any{"id": 5.0, "name": "Alex", "auth": "Bearer t"}, v["data"])
	_, hasError := v["error"]
	assert.False(t, hasError)
}

func TestCallWithBodyAndJQ(t *testing.T) {
	api := newAPI(t)

	out, _, err := run(t, "call", "POST", "/users", "--base", api.URL,
		"--body", `{"name":"Alex"}`,
		"--jq", ".data.received.name",
	)
	require.NoError(t, err)
	assert.Equal(t, "\"Alex\"\n", out)

	out, _, err = run(t, "call", "POST", "/users", "--base", api.URL,
		"--body", `{"n":1}`,
		"--jq", ".data.type",
	)
	require.NoError(t, err)
	assert.Equal(t, "\"application/json\"\n", out)
}

func TestCallBodyFromFile(t *testing.T) {
	api := newAPI(t)
	body := writeFile(t, "body.json", `{"name":"File"}`)

	out, _, err := run(t, "call", "PUT", "/users", "--base", api.URL, "--body", "@"+body, "--jq", ".data.received.name")
	require.NoError(t, err)
	assert.Equal(t, "\"File\"\n", out)
}

func TestCallBodyRejectedForGet(t *testing.T) {
	_, _, err := run(t, "call", "GET", "/users", "--body", "{}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestCallModes(t *testing.T) {
	api := newAPI(t)

	_, _, err := run(t, "call", "GET", "/missing", "--base", api.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUsage))
	assert.Contains(t, err.Error(), "404")

	out, _, err := run(t, "call", "GET", "/missing", "--base", api.URL, "--mode", "error-field")
	require.NoError(t, err)
	v := decodeOutcome(t, out)
	assert.Equal(t, "http_error", v["kind"])
	assert.Equal(t, 404.0, v["status"])
	assert.Equal(t, map[string]any{"message": "not found"}, v["data"])
	assert.NotEmpty(t, v["error"])
}

func TestCallTransportFailure(t *testing.T) {
	api := newAPI(t)
	base := api.URL
	api.Close()

	_, _, err := run(t, "call", "GET", "/users/5", "--base", base, "--mode", "fetch")
	require.Error(t, err)

	out, _, err := run(t, "call", "GET", "/users/5", "--base", base, "--mode", "exhaustive")
	require.NoError(t, err)
	v := decodeOutcome(t, out)
	assert.Equal(t, "transport_error", v["kind"])
	assert.Nil(t, v["status"])
	assert.Nil(t, v["data"])
	assert.NotEmpty(t, v["error"])
}

func TestCallYAMLOutput(t *testing.T) {
	api := newAPI(t)

	out, _, err := run(t, "call", "GET", "/echo", "--base", api.URL, "-q", "a=1", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "kind: success\nstatus: 200\ndata: a=1\n", out)
}

func TestCallVerboseLogsToStderr(t *testing.T) {
	api := newAPI(t)

	_, stderr, err := run(t, "--verbose", "call", "GET", "/users/{id}", "--base", api.URL, "-p", "id=5")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Starting request")
	assert.Contains(t, stderr, "Request settled")
}

func TestConfigFile(t *testing.T) {
	api := newAPI(t)
	cfg := writeFile(t, "apifetch.yaml", strings.Join([]string{
		"base-url: " + api.URL,
		"mode: all",
		"timeout: 5s",
		"headers:",
		"  Authorization: Bearer cfg",
	}, "\n"))

	out, _, err := run(t, "--config", cfg, "call", "GET", "/users/{id}", "-p", "id=5", "--jq", ".data.auth")
	require.NoError(t, err)
	assert.Equal(t, "\"Bearer cfg\"\n", out)

	// Flags override the file.
	out, _, err = run(t, "--config", cfg, "call", "GET", "/missing", "--mode", "strict-throw", "--jq", ".kind")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestConfigFileErrors(t *testing.T) {
	unknown := writeFile(t, "bad.yaml", "colour: blue\n")
	_, _, err := run(t, "--config", unknown, "uri", "/x")
	assert.True(t, errors.Is(err, ErrUsage))

	wrongType := writeFile(t, "bad.yaml", "explode: sometimes\n")
	_, _, err = run(t, "--config", wrongType, "uri", "/x")
	assert.True(t, errors.Is(err, ErrUsage))

	_, _, err = run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "uri", "/x")
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"call", "GET", "/x", "--unknown-flag"}},
		{"bad style", []string{"uri", "/x", "--style", "matrix"}},
		{"bad mode", []string{"call", "GET", "/x", "--mode", "lenient"}},
		{"bad param", []string{"uri", "/x", "-p", "novalue"}},
		{"bad header", []string{"call", "GET", "/x", "-H", "NoColon"}},
		{"bad output", []string{"call", "GET", "/x", "-o", "xml"}},
		{"bad jq", []string{"call", "GET", "/x", "--jq", ".["}},
		{"routes without spec", []string{"routes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUsage), "%T: %v", err, err)
		})
	}
}

func TestUnknownFlagShowsUsage(t *testing.T) {
	_, _, err := run(t, "uri", "/x", "--nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
	assert.Contains(t, err.Error(), "Usage:")
}

func TestRoutesCommand(t *testing.T) {
	spec := writeFile(t, "petstore.yaml", petstore)

	out, _, err := run(t, "routes", "--spec", spec)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "METHOD")
	assert.Contains(t, lines[1], "/pets")
	assert.Contains(t, lines[1], "ids=pipeDelimited tags=form,explode")
	assert.Contains(t, lines[2], "/pets/:petId")

	out, _, err = run(t, "routes", "--spec", spec, "-o", "json")
	require.NoError(t, err)
	var routes []routeView
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	require.Len(t, routes, 2)
	assert.Equal(t, "getPet", routes[1].ID)
	assert.Equal(t, map[string]string{"ids": "pipeDelimited", "tags": "form,explode"}, routes[0].Query)
}

func TestRoutesBadSpec(t *testing.T) {
	spec := writeFile(t, "bad.yaml", "not: an openapi document\n")
	_, _, err := run(t, "routes", "--spec", spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load spec")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "apifetch "))

	out, _, err = run(t, "version", "-o", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, apifetch.Version, info["version"])
	assert.Contains(t, info, "go_version")

	_, _, err = run(t, "version", "-o", "xml")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, "plain", parseValue("plain"))
	assert.Equal(t, json.Number("5"), parseValue("5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, []any{json.Number("1"), "a"}, parseValue(`[1,"a"]`))
	assert.Equal(t, map[string]any{"k": "v"}, parseValue(`{"k":"v"}`))
	assert.Equal(t, "", parseValue(""))
}
