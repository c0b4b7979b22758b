package request

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ReadString trims the input if it is a string and returns an error otherwise.
func ReadString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "", fmt.Errorf("string is empty")
		}
		return trimmed, nil
	default:
		return "", fmt.Errorf("value is not a string")
	}
}

// ReadFloat converts JSON numbers, numeric strings and ints to float64.
// NaN values are passed through so callers can reject them explicitly.
func ReadFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("value is not a number")
		}
		return parsed, nil
	default:
		return math.NaN(), fmt.Errorf("value is not a number")
	}
}

// ReadBool coerces request values into a bool. Strings are compared
// case-insensitively against "true"; any other string is false.
func ReadBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true"), nil
	default:
		return false, fmt.Errorf("value is not a boolean")
	}
}

// ParseRelativeTime converts a "HH:MM:SS" position string into seconds.
// Values above 23:59:59 clamp to zero, matching player semantics where an
// out-of-range saved position restarts the video.
func ParseRelativeTime(value string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM:SS", value)
	}

	var units [3]int
	for i, part := range parts {
		parsed, err := strconv.Atoi(part)
		if err != nil || parsed < 0 {
			return 0, fmt.Errorf("invalid time %q, expected HH:MM:SS", value)
		}
		units[i] = parsed
	}

	seconds := units[0]*3600 + units[1]*60 + units[2]
	if seconds > 23*3600+59*60+59 {
		return 0, nil
	}
	return float64(seconds), nil
}

// FormatRelativeTime renders seconds back into the "HH:MM:SS" wire format.
func FormatRelativeTime(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
