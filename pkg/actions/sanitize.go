package actions

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxCommandSize is 4KB (conservative default)
	DefaultMaxCommandSize = 4096
	// EnvMaxCommandSize is the environment variable to override the default
	EnvMaxCommandSize = "AWARE_MAX_COMMAND_SIZE"
)

var (
	ErrCommandTooLarge = errors.New("command exceeds maximum allowed size")
	ErrInvalidUTF8     = errors.New("command contains invalid UTF-8 sequences")
)

// SanitizeCommand cleans a command line by enforcing size limits,
// validating UTF-8, and stripping control characters. Newlines and tabs
// are kept; ESC, NULL, BEL and the like are removed so that command lines
// cannot poison logs or terminals.
func SanitizeCommand(line string) (string, error) {
	limit := maxCommandSize()
	if len(line) > limit {
		// Reject rather than truncate: a truncated command is a different command.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrCommandTooLarge, len(line), limit)
	}

	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range line {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return line, nil
	}

	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxCommandSize() int {
	if val := os.Getenv(EnvMaxCommandSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxCommandSize
}
