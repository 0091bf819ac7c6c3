package common

import (
	"strconv"
	"strings"
)

// ParseQuantity parses user-entered quantity text. The boolean is false
// when the text is blank or not an integer, so callers can tell "absent"
// apart from an explicit zero.
func ParseQuantity(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
