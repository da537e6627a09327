package pathtemplate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		params    map[string]any
		opts      []Option
		want      string
		remaining map[string]any
	}{
		{
			name:      "single placeholder",
			template:  "/users/{id}",
			params:    map[string]any{"id": 42},
			want:      "/users/42",
			remaining: map[string]any{},
		},
		{
			name:      "several placeholders with remaining",
			template:  "/users/{userId}/posts/{postId}",
			params:    map[string]any{"userId": "u1", "postId": 7, "extra": true},
			want:      "/users/u1/posts/7",
			remaining: map[string]any{"extra": true},
		},
		{
			name:      "missing parameter keeps placeholder",
			template:  "/users/{id}/posts/{postId}",
			params:    map[string]any{"id": 1},
			want:      "/users/1/posts/{postId}",
			remaining: map[string]any{},
		},
		{
			name:      "nil value resolves to empty",
			template:  "/users/{id}",
			params:    map[string]any{"id": nil},
			want:      "/users/",
			remaining: map[string]any{},
		},
		{
			name:      "repeated placeholder",
			template:  "/{a}/{a}",
			params:    map[string]any{"a": "x"},
			want:      "/x/x",
			remaining: map[string]any{},
		},
		{
			name:      "unbalanced braces pass through",
			template:  "/users/{id/{ok}}",
			params:    map[string]any{"id": 1, "ok": "y"},
			want:      "/users/{id/y}",
			remaining: map[string]any{"id": 1},
		},
		{
			name:      "digits are not placeholder names",
			template:  "/v/{v1}",
			params:    map[string]any{"v1": 1},
			want:      "/v/{v1}",
			remaining: map[string]any{"v1": 1},
		},
		{
			name:      "prefix is prepended verbatim",
			template:  "/users/{id}",
			params:    map[string]any{"id": 3},
			opts:      []Option{WithPrefix("https://api.example.com/")},
			want:      "https://api.example.com//users/3",
			remaining: map[string]any{},
		},
		{
			name:     "mapper transforms values",
			template: "/users/{id}",
			params:   map[string]any{"id": 3},
			opts: []Option{WithMapper(func(name string, value any) any {
				return fmt.Sprintf("%s-%v", name, value)
			})},
			want:      "/users/id-3",
			remaining: map[string]any{},
		},
		{
			name:      "nil params",
			template:  "/users/{id}",
			params:    nil,
			want:      "/users/{id}",
			remaining: map[string]any{},
		},
		{
			name:      "values are not escaped",
			template:  "/files/{name}",
			params:    map[string]any{"name": "a b/c"},
			want:      "/files/a b/c",
			remaining: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.template, tt.params, tt.opts...)
			assert.Equal(t, tt.want, got.Path)
			assert.Equal(t, tt.remaining, got.Remaining)
		})
	}
}

func TestResolveDoesNotMutateParams(t *testing.T) {
	params := map[string]any{"id": 1, "q": "x"}
	Resolve("/users/{id}", params)
	assert.Equal(t, map[string]any{"id": 1, "q": "x"}, params)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"userId", "postId"}, Names("/users/{userId}/posts/{postId}/{userId}"))
	assert.Empty(t, Names("/users"))
}

func TestExtractRoundTrip(t *testing.T) {
	template := "/users/{userId}/posts/{postId}"
	params := map[string]any{"userId": "alice", "postId": 12}

	resolved := Resolve(template, params).Path
	got, ok := Extract(template, resolved)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"userId": "alice", "postId": "12"}, got)
}

func TestExtractMismatch(t *testing.T) {
	_, ok := Extract("/users/{id}", "/accounts/1")
	assert.False(t, ok)

	_, ok = Extract("/{a}/{a}", "/x/y")
	assert.False(t, ok)

	got, ok := Extract("/static", "/static")
	require.True(t, ok)
	assert.Empty(t, got)
}
