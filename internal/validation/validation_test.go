package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDate_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateDate(tc.input, 32)
			if !errors.Is(err, ErrDateEmpty) {
				t.Errorf("error = %v, want ErrDateEmpty", err)
			}
		})
	}
}

func TestValidateDate_TooLong(t *testing.T) {
	_, err := ValidateDate(strings.Repeat("1", 33), 32)
	if !errors.Is(err, ErrDateTooLong) {
		t.Errorf("error = %v, want ErrDateTooLong", err)
	}
}

func TestValidateDate_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"semicolon", "2025-01-01;"},
		{"quote", "2025'01"},
		{"backslash", "2025\\01"},
		{"control", "2025\x0001"},
		{"percent", "2025%01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateDate(tc.input, 32)
			if !errors.Is(err, ErrDateInvalidChars) {
				t.Errorf("error = %v, want ErrDateInvalidChars", err)
			}
		})
	}
}

func TestValidateDate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso", "2025-01-01", "2025-01-01"},
		{"trimmed", "  2025-01-01 ", "2025-01-01"},
		{"slashes", "01/02/2025", "01/02/2025"},
		{"dotted", "01.02.2025", "01.02.2025"},
		{"timestamp", "2025-01-01T00:00:00", "2025-01-01T00:00:00"},
		{"not a real date", "2025-13-45", "2025-13-45"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateDate(tc.input, 32)
			if err != nil {
				t.Fatalf("ValidateDate(%q) error = %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ValidateDate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestValidateVariable(t *testing.T) {
	if _, err := ValidateVariable(" "); !errors.Is(err, ErrVariableEmpty) {
		t.Errorf("error = %v, want ErrVariableEmpty", err)
	}
	if _, err := ValidateVariable("pm2.5"); !errors.Is(err, ErrVariableInvalidChars) {
		t.Errorf("error = %v, want ErrVariableInvalidChars", err)
	}
	got, err := ValidateVariable(" PM25 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "PM25" {
		t.Errorf("ValidateVariable = %q, want PM25", got)
	}
}
