// Package utils contains general helper functions shared by the engineci tools.
package utils

import (
	"path/filepath"
	"strings"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept. Blank patterns are dropped.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == EmptyString {
			continue
		}
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// NormalizeSeparators converts every backslash to a forward slash regardless of the host platform.
func NormalizeSeparators(path string) string {
	return strings.ReplaceAll(path, "\\", pathSegmentSeparator)
}

// RelativeSlashPath calculates the forward-slash path of fullPath relative to root.
// Returns "." if fullPath and root resolve to the same directory.
func RelativeSlashPath(root, fullPath string) (string, error) {
	relativePath, relError := filepath.Rel(filepath.Clean(root), filepath.Clean(fullPath))
	if relError != nil {
		return EmptyString, relError
	}
	return NormalizeSeparators(filepath.ToSlash(relativePath)), nil
}

// AbsolutePathOrSelf returns the absolute form of path, or the cleaned input when it cannot be resolved.
func AbsolutePathOrSelf(path string) string {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return filepath.Clean(path)
	}
	return absolutePath
}
