package utils

import (
	"os/exec"
	"runtime/debug"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	gitDescribeCommand = "describe"
)

// GetApplicationVersion reports the module version embedded by the Go toolchain.
// Development builds fall back to describing the checkout the binary was started from,
// preferring an exact semantic version tag.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != develBuildVersion && semver.IsValid(buildInfo.Main.Version) {
		return buildInfo.Main.Version
	}
	for _, describeArguments := range [][]string{
		{gitDescribeCommand, "--tags", "--exact-match"},
		{gitDescribeCommand, "--tags", "--long", "--dirty"},
	} {
		// #nosec G204
		describeOutput, describeError := exec.Command(GitExecutableName, describeArguments...).Output()
		if describeError == nil {
			if version := strings.TrimSpace(string(describeOutput)); version != EmptyString {
				return version
			}
		}
	}
	return unknownVersion
}
