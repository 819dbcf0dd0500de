package runner

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	// Default Limit is 4096
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
			input := strings.Repeat("a", tt.inputSize)
			_, err := SanitizeInput(input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SanitizeInput() expected error for size %d, got nil", tt.inputSize)
				}
			} else {
				if err != nil {
					t.Errorf("SanitizeInput() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"}, // ESC removed
		{"Null Byte", "Null\x00Byte", "NullByte"},         // NULL removed
		{"Bell", "Ding\x07", "Ding"},                      // BEL removed
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv("PARLEY_MAX_INPUT_SIZE", "10")

	// Input len 11 -> Should fail
	_, err := SanitizeInput("12345678901")
	if err == nil {
		t.Error("Expected error for input > 10 when env var is set")
	}

	// Input len 5 -> Should pass
	_, err = SanitizeInput("12345")
	if err != nil {
		t.Error("Unexpected error for valid input")
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	// Invalid UTF-8 sequence
	input := "\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98"
	_, err := SanitizeInput(input)
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestSanitizeIntent(t *testing.T) {
	intent := &domain.Intent{
		Name: "OrderIntent",
		Params: map[string]any{
			"item":  "pizza\x1b",
			"notes": map[string]any{"extra": []any{"cheese\x00", 2}},
			"count": 2,
		},
	}
	if err := SanitizeIntent(intent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Params["item"] != "pizza" {
		t.Errorf("item = %q", intent.Params["item"])
	}
	extra := intent.Params["notes"].(map[string]any)["extra"].([]any)
	if extra[0] != "cheese" {
		t.Errorf("nested param not sanitized: %q", extra[0])
	}

	for _, name := range []string{"", "Two Words", "Bad\x07"} {
		if err := SanitizeIntent(&domain.Intent{Name: name}); !errors.Is(err, ErrInvalidIntent) {
			t.Errorf("SanitizeIntent(%q) = %v, want ErrInvalidIntent", name, err)
		}
	}
}
