package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	courseKeyRegex = regexp.MustCompile(`^course-v1:[A-Za-z0-9_.\-]+\+[A-Za-z0-9_.\-]+\+[A-Za-z0-9_.\-]+$`)
	libraryKeyRegex = regexp.MustCompile(`^lib:[A-Za-z0-9_.\-]+:[A-Za-z0-9_.\-]+$`)
	languageRegex   = regexp.MustCompile(`^[a-z]{2,3}(-[a-zA-Z]{2,8})?$`)
)

// NormalizeCourseKey trims a course key and validates its structure.
// Accepted forms are "course-v1:Org+Number+Run" for regular courses and
// "lib:Org:Slug" for content libraries.
func NormalizeCourseKey(value string) (string, error) {
	key := strings.TrimSpace(value)
	if courseKeyRegex.MatchString(key) || libraryKeyRegex.MatchString(key) {
		return key, nil
	}
	return "", fmt.Errorf("invalid course key %q", value)
}

// IsLibraryKey reports whether a (already validated) course key names a library.
func IsLibraryKey(key string) bool {
	return strings.HasPrefix(key, "lib:")
}

// NormalizeLanguageCode lowercases the primary subtag of a BCP 47-ish code and
// validates its shape ("en", "uk", "zh-Hans", "pt-BR").
func NormalizeLanguageCode(value string) (string, error) {
	code := strings.TrimSpace(value)
	if idx := strings.Index(code, "-"); idx > 0 {
		code = strings.ToLower(code[:idx]) + code[idx:]
	} else {
		code = strings.ToLower(code)
	}
	if !languageRegex.MatchString(code) {
		return "", fmt.Errorf("invalid language code %q", value)
	}
	return code, nil
}
