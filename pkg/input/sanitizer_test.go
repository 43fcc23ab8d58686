package input

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitize_SizeLimit(t *testing.T) {
	limit := 4096

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := strings.Repeat("a", tt.inputSize)
			_, err := Sanitize(in, 0)
			if tt.wantErr {
				if !errors.Is(err, ErrInputTooLarge) {
					t.Errorf("Sanitize() expected ErrInputTooLarge for size %d, got %v", tt.inputSize, err)
				}
			} else if err != nil {
				t.Errorf("Sanitize() unexpected error: %v", err)
			}
		})
	}
}

func TestSanitize_CustomLimit(t *testing.T) {
	if _, err := Sanitize("restart vm1", 5); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "list all vms", "list all vms"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
		{"Trimmed", "  restart vm1 \n", "restart vm1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input, 0)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitize_Rejects(t *testing.T) {
	if _, err := Sanitize("\xff\xfe", 0); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
	if _, err := Sanitize(" \x07 ", 0); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}
