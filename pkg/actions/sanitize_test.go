package actions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeCommand_SizeLimit(t *testing.T) {
	limit := DefaultMaxCommandSize

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeCommand(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCommandTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeCommand_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "say hello", "say hello"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeCommand_InvalidUTF8(t *testing.T) {
	_, err := SanitizeCommand("bad \xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizeCommand_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxCommandSize, "10")

	_, err := SanitizeCommand("12345678901")
	assert.Error(t, err)

	_, err = SanitizeCommand("12345")
	assert.NoError(t, err)
}
