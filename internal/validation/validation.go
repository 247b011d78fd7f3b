package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrDateEmpty is returned when the date is empty or whitespace-only after trim.
var ErrDateEmpty = errors.New("date is required")

// ErrDateTooLong is returned when the date token exceeds the maximum length.
var ErrDateTooLong = errors.New("date too long")

// ErrDateInvalidChars is returned when the date contains disallowed characters.
var ErrDateInvalidChars = errors.New("date contains invalid characters")

// ErrVariableEmpty is returned when the variable key is empty after trim.
var ErrVariableEmpty = errors.New("variable is required")

// ErrVariableInvalidChars is returned when the variable key contains disallowed characters.
var ErrVariableInvalidChars = errors.New("variable contains invalid characters")

// ValidateDate trims the input and checks it is a plausible date token: at most
// maxLen runes of letters, digits, space and the separators - / . : +. The token is
// not parsed; it is matched verbatim against the stored dates.
func ValidateDate(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrDateEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrDateTooLong
	}
	for _, c := range r {
		if !isAllowedDateRune(c) {
			return "", ErrDateInvalidChars
		}
	}
	return s, nil
}

// ValidateVariable trims the key and restricts it to letters, digits and
// underscore. Whether the key is known is decided by the variable registry.
func ValidateVariable(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrVariableEmpty
	}
	for _, c := range s {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			return "", ErrVariableInvalidChars
		}
	}
	return s, nil
}

func isAllowedDateRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '-', '/', '.', ':', ' ', '+':
		return true
	}
	return false
}
