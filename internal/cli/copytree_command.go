package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/engineci/internal/execution"
	"github.com/temirov/engineci/internal/treecopy"
)

const (
	treeCopierUse              = "copytree [flags] <source> <target>"
	treeCopierShortDescription = "copy the public, git-tracked part of a source tree"
	treeCopierLongDescription  = `copytree copies every file below <source> to the same relative path below <target>,
skipping local build artifacts, private platform code and private files, and
anything git does not track. Files already in <target> are never deleted.`
	treeCopierUsageExample = `  # Mirror the private checkout into the public one
  copytree ../engine-private ../engine

  # List what would be copied, excluding an extra file pattern
  copytree --dry-run -e secrets.json ../engine-private ../engine`
	treeCopierToolName = "copytree"

	exclusionFlagName         = "exclude"
	exclusionFlagShorthand    = "e"
	exclusionFlagDescription  = "additional private file pattern (repeatable)"
	dryRunFlagDescriptionCopy = "report what would be copied without writing"

	treeCopierArgumentCount = 2
	copyFinishedMessage     = "copy finished"
	treeCopierDoneMessage   = "Done!"
)

var errTreeCopierArguments = errors.New("expected <source> and <target> directories")

type treeCopierCommandOptions struct {
	common            commonOptions
	exclusionPatterns []string
	dryRun            bool
}

// RunTreeCopier executes the copytree tool with arguments and returns the process exit code.
func RunTreeCopier(arguments []string) int {
	environment := processDependencies()
	return execute(newTreeCopierCommand(environment), arguments, environment.errorOutput)
}

func newTreeCopierCommand(environment dependencies) *cobra.Command {
	var options treeCopierCommandOptions

	command := &cobra.Command{
		Use:           treeCopierUse,
		Short:         treeCopierShortDescription,
		Long:          treeCopierLongDescription,
		Example:       treeCopierUsageExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(command *cobra.Command, arguments []string) error {
			if options.common.showVersion || len(arguments) == treeCopierArgumentCount {
				return nil
			}
			return fmt.Errorf("%w, received %d argument(s)", errTreeCopierArguments, len(arguments))
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.common.showVersion {
				printVersion(environment.output, treeCopierToolName)
				return nil
			}
			logger, configuration, _, prepareError := options.common.prepare()
			if prepareError != nil {
				return prepareError
			}
			defer func() { _ = logger.Sync() }()

			privateFiles := append(append([]string{}, configuration.Copy.PrivateFiles...), options.exclusionPatterns...)
			patterns := treecopy.NewPatternSet(configuration.Copy.LocalPatterns, configuration.Copy.PrivatePlatforms, privateFiles)
			tracker := treecopy.GitTracker{Runner: execution.NewStreamingRunner(io.Discard, logger)}
			copier := treecopy.NewCopier(patterns, tracker, logger)
			copier.DryRun = options.dryRun

			report, copyError := copier.CopyTree(command.Context(), arguments[0], arguments[1])
			if copyError != nil {
				return copyError
			}
			logger.Info(copyFinishedMessage,
				zap.Int("copied", report.Copied),
				zap.Int("skipped_local", report.SkippedLocal),
				zap.Int("skipped_private", report.SkippedPrivate),
				zap.Int("skipped_untracked", report.SkippedUntracked),
				zap.Bool("dry_run", options.dryRun),
			)
			fmt.Fprintln(environment.output, treeCopierDoneMessage)
			return nil
		},
	}

	addCommonFlags(command, &options.common)
	command.Flags().StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	registerSwitch(command.Flags(), &options.dryRun, dryRunFlagName, dryRunFlagDescriptionCopy)
	command.SetOut(environment.output)
	return command
}
