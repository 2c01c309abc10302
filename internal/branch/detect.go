package branch

import (
	"context"
	"fmt"
	"strings"

	"github.com/temirov/engineci/internal/execution"
	"github.com/temirov/engineci/internal/utils"
)

const detachedHead = "HEAD"

// Detect returns the checked out branch of the repository in directory.
// A detached HEAD is reported as the commit hash.
func Detect(ctx context.Context, runner execution.Runner, directory string) (string, error) {
	abbreviated, abbreviatedError := revParse(ctx, runner, directory, "--abbrev-ref", detachedHead)
	if abbreviatedError != nil {
		return "", abbreviatedError
	}
	if abbreviated != detachedHead {
		return abbreviated, nil
	}
	return revParse(ctx, runner, directory, detachedHead)
}

func revParse(ctx context.Context, runner execution.Runner, directory string, arguments ...string) (string, error) {
	output, runError := runner.Run(ctx, execution.Command{
		Executable:       utils.GitExecutableName,
		Arguments:        append([]string{"rev-parse"}, arguments...),
		WorkingDirectory: directory,
		CaptureOutput:    true,
	})
	if runError != nil {
		return "", fmt.Errorf("determine branch: %w", runError)
	}
	return strings.TrimSpace(output), nil
}
