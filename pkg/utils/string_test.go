package utils_test

import (
	"strings"
	"testing"

	"github.com/robalyx/warden/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "short", input: "hello", limit: 100, want: "hello"},
		{name: "exact", input: "abc", limit: 3, want: "abc"},
		{name: "long", input: "abcdef", limit: 3, want: "abc..."},
		{name: "multibyte", input: "привет мир", limit: 6, want: "привет..."},
		{name: "empty", input: "", limit: 3, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.Truncate(tt.input, tt.limit))
		})
	}
}

func TestChannelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{name: "simple", parts: []string{"ticket", "Alice", "1506"}, want: "ticket-alice-1506"},
		{name: "spaces and symbols", parts: []string{"ticket", "Bob the  Builder!!"}, want: "ticket-bob-the-builder"},
		{name: "unicode", parts: []string{"ticket", "Вася"}, want: "ticket-вася"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.ChannelName(tt.parts...))
		})
	}

	assert.Len(t, []rune(utils.ChannelName(strings.Repeat("a", 150))), 100)
}
