package filename

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"passthrough", "ep01-intro_tiktok", "ep01-intro_tiktok"},
		{"reserved characters", `clip<1>:"final"`, "clip-1-final"},
		{"path separators", `a/b\c`, "a-b-c"},
		{"whitespace runs", "my  clip\tname", "my-clip-name"},
		{"dash runs collapse", "a__b--c", "a-b-c"},
		{"leading dot stripped", ".hidden", "hidden"},
		{"trailing dot stripped", "clip.", "clip"},
		{"keeps inner dots", "clip.v2", "clip.v2"},
		{"only unsafe input", `???///`, ""},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input, 0))
		})
	}
}

func TestSanitizeTruncation(t *testing.T) {
	long := strings.Repeat("a", 200)
	assert.Equal(t, strings.Repeat("a", 120), Sanitize(long, 0))
	assert.Equal(t, "abcde", Sanitize("abcdefgh", 5))

	// Cuts land on rune boundaries, never inside a multibyte sequence.
	assert.Equal(t, "é", Sanitize("éé", 3))

	// A dash left dangling by the cut is dropped.
	assert.Equal(t, "ab", Sanitize("ab-cd", 3))
}
