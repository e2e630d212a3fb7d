package apidoc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// SanitizePath collapses duplicate slashes and trims a trailing slash.
func SanitizePath(path string) string {
	cleanPath := path
	for strings.Contains(cleanPath, "//") {
		cleanPath = strings.ReplaceAll(cleanPath, "//", "/")
	}

	cleanPath = strings.TrimSuffix(cleanPath, "/")
	if cleanPath == "" {
		cleanPath = "/"
	}

	return cleanPath
}

// ExtractParamName extracts parameter names from a path segment such as {page} or {id:[0-9]+}.
// It returns an error if the number of '{' and '}' braces is mismatched.
func ExtractParamName(path string) ([]string, error) {
	if strings.Count(path, "{") != strings.Count(path, "}") {
		return nil, errors.New("mismatched number of '{' and '}' in path")
	}

	params := []string{}
	start := -1

	for i, ch := range path {
		switch {
		case ch == '{':
			start = i + 1
		case ch == '}' && start >= 0:
			name, _, _ := strings.Cut(path[start:i], ":")
			if name != "" {
				params = append(params, name)
			}

			start = -1
		}
	}

	return params, nil
}

// IsValidParameterName reports whether name starts with an ASCII letter and continues with
// letters, digits or underscores.
func IsValidParameterName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !isLetter {
			return false
		}

		if !isLetter && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

// validateOperationIDFormat requires lowerCamelCase identifiers.
func validateOperationIDFormat(operationID string) error {
	if operationID == "" {
		return errors.New("operationID is required")
	}

	if !IsValidParameterName(operationID) || strings.Contains(operationID, "_") {
		return fmt.Errorf("operationID %q must be camelCase letters and digits", operationID)
	}

	if first := rune(operationID[0]); !unicode.IsLower(first) {
		return fmt.Errorf("operationID %q must start with a lowercase letter", operationID)
	}

	return nil
}

func isNilOrNilPointer(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)

	return v.Kind() == reflect.Pointer && v.IsNil()
}
