package errors

import (
	"strings"
	"unicode"
)

// ValidateFieldName validates a column name used as a grouping key, stage,
// measure, or entity field.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
//
// Surrounding whitespace is allowed because real CSV headers carry it.
func ValidateFieldName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "field name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "field name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "field name %q contains control characters", name)
		}
	}

	return nil
}

// ValidateFieldList validates an ordered list of field names and requires at
// least min entries. Duplicate names are rejected since a repeated grouping
// level or stage is almost always a configuration mistake.
func ValidateFieldList(kind string, fields []string, min int) error {
	if len(fields) < min {
		return New(ErrCodeInvalidInput, "%s requires at least %d field(s), got %d", kind, min, len(fields))
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if err := ValidateFieldName(f); err != nil {
			return err
		}
		if seen[f] {
			return New(ErrCodeInvalidInput, "%s lists field %q more than once", kind, f)
		}
		seen[f] = true
	}
	return nil
}

// ValidateYearRange checks that start <= end and both are plausible calendar years.
func ValidateYearRange(start, end int) error {
	if start <= 0 || end <= 0 {
		return New(ErrCodeInvalidInput, "year range must be positive, got [%d, %d]", start, end)
	}
	if start > end {
		return New(ErrCodeInvalidInput, "year range start %d is after end %d", start, end)
	}
	return nil
}

// ValidatePath validates a dataset path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !IsRemote(rawURL) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// IsRemote reports whether src looks like an http(s) URL rather than a local path.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}
