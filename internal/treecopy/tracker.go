package treecopy

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/engineci/internal/execution"
	"github.com/temirov/engineci/internal/utils"
)

// gitUnmatchedExitCode is the status "git ls-files --error-unmatch" exits with for untracked paths.
const gitUnmatchedExitCode = 1

// ErrTrackingCheck reports that tracking status could not be determined, as opposed to
// a path that is confirmed not to be tracked.
var ErrTrackingCheck = errors.New("git tracking check failed")

// Tracker reports whether a path is tracked by version control.
type Tracker interface {
	IsTracked(ctx context.Context, repositoryDirectory, relativePath string) (bool, error)
}

// GitTracker asks git, one path at a time.
type GitTracker struct {
	Runner execution.Runner
}

// IsTracked runs "git --literal-pathspecs ls-files --error-unmatch -- <relativePath>" inside
// repositoryDirectory. Glob characters in file names match only themselves.
// Exit status 1 means not tracked; every other failure is wrapped in ErrTrackingCheck.
func (tracker GitTracker) IsTracked(ctx context.Context, repositoryDirectory, relativePath string) (bool, error) {
	_, runError := tracker.Runner.Run(ctx, execution.Command{
		Executable:       utils.GitExecutableName,
		Arguments:        []string{"--literal-pathspecs", "ls-files", "--error-unmatch", "--", relativePath},
		WorkingDirectory: repositoryDirectory,
	})
	if runError == nil {
		return true, nil
	}
	var exitError *execution.ExitError
	if errors.As(runError, &exitError) && exitError.ExitCode == gitUnmatchedExitCode {
		return false, nil
	}
	return false, fmt.Errorf("%w for %s: %v", ErrTrackingCheck, relativePath, runError)
}
