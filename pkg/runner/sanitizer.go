package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds one line of user input, in bytes.
var DefaultMaxInputSize = 4096

// EnvMaxInputSize names the variable that replaces DefaultMaxInputSize.
var EnvMaxInputSize = "CHATFLOW_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput is SanitizeInputLimit with the limit from MaxInputSize.
func SanitizeInput(input string) (string, error) {
	return SanitizeInputLimit(input, 0)
}

// SanitizeInputLimit checks raw input before it reaches the engine.
//
// Input longer than limit bytes is an error, never cut short: "12" cut to "1"
// would pick a different choice. Invalid UTF-8 is an error too. Control
// characters other than '\n', '\t' and '\r' are dropped so escape sequences
// never reach logs or a terminal. limit <= 0 means MaxInputSize().
func SanitizeInputLimit(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = MaxInputSize()
	}
	if n := len(input); n > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, n, limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, unwanted) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if unwanted(r) {
			return -1
		}
		return r
	}, input), nil
}

func unwanted(r rune) bool {
	switch r {
	case '\n', '\t', '\r':
		return false
	}
	return unicode.IsControl(r)
}

// MaxInputSize reads EnvMaxInputSize and falls back to DefaultMaxInputSize
// when it is unset or not a positive integer.
func MaxInputSize() int {
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		return n
	}
	return DefaultMaxInputSize
}
