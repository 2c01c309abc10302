// Package treecopy copies the git-tracked, non-private part of a source tree into another directory.
package treecopy

import (
	"strings"

	"github.com/temirov/engineci/internal/utils"
)

// Category names an exclusion pattern set.
type Category int

const (
	// CategoryNone means no pattern matched.
	CategoryNone Category = iota
	// CategoryLocalArtifact covers build output, version control and generated files.
	CategoryLocalArtifact
	// CategoryPrivatePlatform covers platform identifiers that must not leave the private tree.
	CategoryPrivatePlatform
	// CategoryPrivateFile covers file name fragments that must not leave the private tree.
	CategoryPrivateFile
)

func (category Category) String() string {
	switch category {
	case CategoryLocalArtifact:
		return "local-artifact"
	case CategoryPrivatePlatform:
		return "private-platform"
	case CategoryPrivateFile:
		return "private-file"
	default:
		return "none"
	}
}

// DefaultLocalPatterns are the local artifact fragments.
var DefaultLocalPatterns = []string{
	".pyc",
	".git/",
	"generated/",
	"dist/",
	"build/",
	"editor/target/classes/",
	"dynamo_home",
}

// DefaultPrivatePlatforms are registered in lower and upper case.
var DefaultPrivatePlatforms = []string{"nx64", "ps4"}

// DefaultPrivateFiles are the private file name fragments.
var DefaultPrivateFiles = []string{
	"private.py",
	"private.sh",
	"private.yml",
	"private.appmanifest",
	".appmanifest",
	"SwitchBundler.java",
	"switch",
	"meta.edn",
	"meta.properties",
	"build.xml",
	"com.dynamo.cr.bob",
}

// PatternSet holds the three exclusion categories.
//
// Matching rule: a path matches a pattern when the pattern is a case-sensitive substring
// of the forward-slash relative path. Categories are consulted in the order local artifact,
// private platform, private file, and the first match decides.
type PatternSet struct {
	LocalArtifacts   []string
	PrivatePlatforms []string
	PrivateFiles     []string
}

// DefaultPatternSet returns the built-in exclusions.
func DefaultPatternSet() PatternSet {
	return NewPatternSet(nil, nil, nil)
}

// NewPatternSet returns the built-in exclusions extended with the given patterns.
// Platform identifiers are registered in both lower and upper case.
func NewPatternSet(extraLocal, extraPlatforms, extraFiles []string) PatternSet {
	var platforms []string
	for _, platform := range append(append([]string{}, DefaultPrivatePlatforms...), extraPlatforms...) {
		platforms = append(platforms, strings.ToLower(platform), strings.ToUpper(platform))
	}
	return PatternSet{
		LocalArtifacts:   utils.DeduplicatePatterns(append(append([]string{}, DefaultLocalPatterns...), extraLocal...)),
		PrivatePlatforms: utils.DeduplicatePatterns(platforms),
		PrivateFiles:     utils.DeduplicatePatterns(append(append([]string{}, DefaultPrivateFiles...), extraFiles...)),
	}
}

// Match returns the first category with a pattern contained in path, and that pattern.
func (set PatternSet) Match(path string) (Category, string) {
	normalizedPath := utils.NormalizeSeparators(path)
	for _, group := range []struct {
		category Category
		patterns []string
	}{
		{CategoryLocalArtifact, set.LocalArtifacts},
		{CategoryPrivatePlatform, set.PrivatePlatforms},
		{CategoryPrivateFile, set.PrivateFiles},
	} {
		for _, pattern := range group.patterns {
			if strings.Contains(normalizedPath, pattern) {
				return group.category, pattern
			}
		}
	}
	return CategoryNone, ""
}
