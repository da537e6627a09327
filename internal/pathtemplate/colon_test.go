package pathtemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToColon(t *testing.T) {
	tests := []struct {
		name string
		path string
		base string
		want string
	}{
		{"no fragments", "/users", "", "/users"},
		{"single fragment", "/users/{id}", "", "/users/:id"},
		{"all fragments", "/users/{userId}/posts/{postIds}", "", "/users/:userId/posts/:postIds"},
		{"base url", "/users", "https://localhost:3000", "https://localhost:3000/users"},
		{"wildcard base", "/test/{id}", "*/api/rest", "*/api/rest/test/:id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToColon(tt.path, tt.base))
		})
	}
}

func TestMatchColon(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		target  string
		want    map[string]string
		ok      bool
	}{
		{
			name:    "relative pattern against absolute url",
			pattern: "/users/:id",
			target:  "http://example.com/users/7?expand=true",
			want:    map[string]string{"id": "7"},
			ok:      true,
		},
		{
			name:    "several params",
			pattern: "/users/:userId/posts/:postId",
			target:  "/users/a/posts/b",
			want:    map[string]string{"userId": "a", "postId": "b"},
			ok:      true,
		},
		{
			name:    "trailing slash tolerated",
			pattern: "/users",
			target:  "/users/",
			want:    map[string]string{},
			ok:      true,
		},
		{
			name:    "param does not span segments",
			pattern: "/users/:id",
			target:  "/users/1/posts",
			ok:      false,
		},
		{
			name:    "absolute pattern with port",
			pattern: "http://localhost:8080/users/:id",
			target:  "http://localhost:8080/users/5",
			want:    map[string]string{"id": "5"},
			ok:      true,
		},
		{
			name:    "absolute pattern other host",
			pattern: "http://localhost:8080/users/:id",
			target:  "http://example.com/users/5",
			ok:      false,
		},
		{
			name:    "wildcard prefix",
			pattern: "*/api/rest/test/:id",
			target:  "https://svc.internal/api/rest/test/9",
			want:    map[string]string{"id": "9"},
			ok:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchColon(tt.pattern, tt.target)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCompileKeepsPattern(t *testing.T) {
	m, err := Compile("/users/:id")
	require.NoError(t, err)
	assert.Equal(t, "/users/:id", m.Pattern())
}

func TestColonRoundTripWithResolve(t *testing.T) {
	template := "/users/{userId}/posts/{postId}"
	resolved := Resolve(template, map[string]any{"userId": 1, "postId": 2}).Path

	got, ok := MatchColon(ToColon(template, ""), resolved)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"userId": "1", "postId": "2"}, got)
}
