// Package cli wires the ci and copytree command line tools.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/engineci/internal/config"
	"github.com/temirov/engineci/internal/utils"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1

	configFlagName          = "config"
	configFlagDescription   = "path to the configuration file (default " + utils.ConfigFileName + " in the working directory)"
	logLevelFlagName        = "log-level"
	logLevelFlagDescription = "log level (debug, info, warn, error)"
	versionFlagName         = "version"
	versionFlagDescription  = "display application version"
	dryRunFlagName          = "dry-run"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
)

// dependencies are the process resources a command reads and writes.
type dependencies struct {
	lookupEnvironment config.LookupFunc
	output            io.Writer
	errorOutput       io.Writer
}

func processDependencies() dependencies {
	return dependencies{lookupEnvironment: os.LookupEnv, output: os.Stdout, errorOutput: os.Stderr}
}

// commonOptions are the flags shared by both tools.
type commonOptions struct {
	configPath  string
	logLevel    string
	showVersion bool
}

func addCommonFlags(command *cobra.Command, options *commonOptions) {
	command.Flags().StringVar(&options.configPath, configFlagName, utils.EmptyString, configFlagDescription)
	command.Flags().StringVar(&options.logLevel, logLevelFlagName, utils.DefaultLogLevel, logLevelFlagDescription)
	registerSwitch(command.Flags(), &options.showVersion, versionFlagName, versionFlagDescription)
}

// prepare builds the logger and loads the configuration for one invocation.
func (options commonOptions) prepare() (*zap.Logger, config.ApplicationConfiguration, string, error) {
	logger, loggerError := utils.NewApplicationLogger(options.logLevel)
	if loggerError != nil {
		return nil, config.ApplicationConfiguration{}, utils.EmptyString, fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return nil, config.ApplicationConfiguration{}, utils.EmptyString, fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configPath,
	})
	if configurationError != nil {
		return nil, config.ApplicationConfiguration{}, utils.EmptyString, configurationError
	}
	return logger, configuration, workingDirectory, nil
}

// execute runs command with arguments under a context cancelled by SIGINT or SIGTERM
// and maps the outcome onto a process exit code.
func execute(command *cobra.Command, arguments []string, errorOutput io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command.SetArgs(joinSwitchValues(command, arguments))
	command.SetErr(errorOutput)
	if executionError := command.ExecuteContext(ctx); executionError != nil {
		fmt.Fprintf(errorOutput, utils.ErrorLogFormat+"\n", executionError)
		return exitCodeFailure
	}
	return exitCodeSuccess
}

func printVersion(output io.Writer, toolName string) {
	fmt.Fprintf(output, utils.VersionTemplate, toolName, utils.GetApplicationVersion())
}
