package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// shareIDRegex matches valid share identifiers. Share IDs appear in URL
// paths and storage keys, so the character set is kept deliberately narrow.
var shareIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateShareID validates a share identifier for safety and correctness.
// It rejects identifiers that could be used for path traversal or injection
// attacks when used as storage keys or URL path segments.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - Maximum length of 128 characters
//   - Alphanumeric, underscore, and hyphen only
//   - Must start with an alphanumeric character
func ValidateShareID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidShareID, "share id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidShareID, "share id too long (max 128 characters)")
	}

	if !shareIDRegex.MatchString(id) {
		return New(ErrCodeInvalidShareID, "invalid share id: %q", id)
	}

	return nil
}

// componentKeyRegex matches valid catalog component keys.
var componentKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateComponentKey validates a catalog component key.
// Keys are lowercase identifiers used in manifests and drag payloads.
func ValidateComponentKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidComponent, "component key cannot be empty")
	}

	if len(key) > 64 {
		return New(ErrCodeInvalidComponent, "component key too long (max 64 characters)")
	}

	if !componentKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidComponent, "invalid component key: %q", key)
	}

	return nil
}

// ValidateShapeID validates a shape identifier from external input.
// Shape IDs generated internally are UUIDs, but loaded snapshots may carry
// arbitrary IDs, so the rules only exclude characters that break storage
// keys and serialized state.
//
// Validation rules:
//   - ID cannot be empty
//   - Maximum length of 256 characters
//   - No control characters or null bytes
//   - No path separators
func ValidateShapeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "shape id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "shape id too long (max 256 characters)")
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "shape id contains invalid characters")
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "shape id cannot contain path separators")
	}

	return nil
}

// ValidateOutputPath validates a file path supplied for export output.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "output path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "output path cannot contain backslashes")
	}

	return nil
}
