// Package input cleans chat messages before they reach the pipeline.
package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSize is 4KB (conservative default).
const DefaultMaxSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrEmptyInput    = errors.New("input is empty")
)

// Sanitize cleans user input by enforcing a size limit (maxSize <= 0 means
// DefaultMaxSize), validating UTF-8, and stripping control characters.
// Surrounding whitespace is trimmed; blank input is rejected.
func Sanitize(in string, maxSize int) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	// Reject rather than truncate: a cut-off request could change the action.
	if len(in) > maxSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(in), maxSize)
	}

	if !utf8.ValidString(in) {
		return "", ErrInvalidUTF8
	}

	// Newline, tab and carriage return survive; ESC, NUL, BEL and friends do not.
	clean := true
	for _, r := range in {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}

	out := in
	if !clean {
		var b strings.Builder
		b.Grow(len(in))
		for _, r := range in {
			if !unicode.IsControl(r) || isSafeControl(r) {
				b.WriteRune(r)
			}
		}
		out = b.String()
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyInput
	}
	return out, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
