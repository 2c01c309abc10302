package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/engineci/internal/buildtool"
	"github.com/temirov/engineci/internal/config"
	"github.com/temirov/engineci/internal/dispatch"
	"github.com/temirov/engineci/internal/execution"
	"github.com/temirov/engineci/internal/github"
)

const (
	dispatcherUse              = "ci [flags] <command>..."
	dispatcherShortDescription = "run CI build steps for the checked out branch"
	dispatcherLongDescription  = `ci maps the checked out branch onto engine, editor and release channels
and runs the build script for each requested command in order.

Commands: engine, build-editor, download-editor, notarize-editor, sign-editor,
archive-editor, bob, sdk, smoke, install, install_ext, distclean, release.`
	dispatcherUsageExample = `  # Build the engine for Linux
  ci --platform x86_64-linux engine

  # Show what a release build of the dev branch would run
  ci --branch dev --dry-run engine bob release

  # Print the channel configuration of the current branch
  ci --describe`
	dispatcherToolName = "ci"

	platformFlagName                = "platform"
	withASanFlagName                = "with-asan"
	withValgrindFlagName            = "with-valgrind"
	withVanillaLuaFlagName          = "with-vanilla-lua"
	archiveFlagName                 = "archive"
	skipTestsFlagName               = "skip-tests"
	skipBuiltinsFlagName            = "skip-builtins"
	skipDocsFlagName                = "skip-docs"
	engineArtifactsFlagName         = "engine-artifacts"
	keychainCertFlagName            = "keychain-cert"
	keychainCertPassFlagName        = "keychain-cert-pass"
	windowsCertB64FlagName          = "windows-cert-b64"
	windowsCertFlagName             = "windows-cert"
	windowsCertPassFlagName         = "windows-cert-pass"
	notarizationUsernameFlagName    = "notarization-username"
	notarizationPasswordFlagName    = "notarization-password"
	notarizationITCProviderFlagName = "notarization-itc-provider"
	githubTokenFlagName             = "github-token"
	githubTargetRepoFlagName        = "github-target-repo"
	githubSHA1FlagName              = "github-sha1"
	branchFlagName                  = "branch"
	describeFlagName                = "describe"

	platformFlagDescription                = "platform to build for (when building the engine)"
	withASanFlagDescription                = "build the engine with address sanitizer"
	withValgrindFlagDescription            = "run engine tests under valgrind"
	withVanillaLuaFlagDescription          = "build the engine with vanilla Lua"
	archiveFlagDescription                 = "archive engine artifacts"
	skipTestsFlagDescription               = "skip building and running tests"
	skipBuiltinsFlagDescription            = "skip building builtins"
	skipDocsFlagDescription                = "skip building documentation"
	engineArtifactsFlagDescription         = "engine artifacts to include when building the editor"
	keychainCertFlagDescription            = "base64 encoded certificate to import to the macOS keychain"
	keychainCertPassFlagDescription        = "password for the macOS keychain certificate"
	windowsCertB64FlagDescription          = "base64 encoded Windows certificate (pfx)"
	windowsCertFlagDescription             = "file containing the Windows certificate (pfx)"
	windowsCertPassFlagDescription         = "file containing the password for the Windows certificate"
	notarizationUsernameFlagDescription    = "username for editor notarization"
	notarizationPasswordFlagDescription    = "password for editor notarization"
	notarizationITCProviderFlagDescription = "optional iTunes Connect provider for editor notarization"
	githubTokenFlagDescription             = "GitHub token used when releasing"
	githubTargetRepoFlagDescription        = "GitHub target repository when releasing artifacts"
	githubSHA1FlagDescription              = "commit to use in GitHub operations"
	branchFlagDescription                  = "branch to configure for instead of the checked out one"
	dryRunFlagDescriptionDispatcher        = "print build invocations instead of running them"
	describeFlagDescription                = "print the resolved branch configuration as YAML and exit"

	visibilityLookupFailedMessage = "repository visibility lookup failed, using repository name"
	visibilityResolvedMessage     = "repository visibility"
)

var errNoCommands = errors.New("at least one command is required")

type dispatcherCommandOptions struct {
	common   commonOptions
	dispatch dispatch.Options
	describe bool
}

// RunDispatcher executes the ci tool with arguments and returns the process exit code.
func RunDispatcher(arguments []string) int {
	environment := processDependencies()
	return execute(newDispatcherCommand(environment), arguments, environment.errorOutput)
}

func newDispatcherCommand(environment dependencies) *cobra.Command {
	var options dispatcherCommandOptions

	command := &cobra.Command{
		Use:           dispatcherUse,
		Short:         dispatcherShortDescription,
		Long:          dispatcherLongDescription,
		Example:       dispatcherUsageExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 && !options.describe && !options.common.showVersion {
				return errNoCommands
			}
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.common.showVersion {
				printVersion(environment.output, dispatcherToolName)
				return nil
			}
			logger, configuration, workingDirectory, prepareError := options.common.prepare()
			if prepareError != nil {
				return prepareError
			}
			defer func() { _ = logger.Sync() }()

			ciEnvironment := config.ReadEnvironment(environment.lookupEnvironment)
			visibility := resolveVisibility(command, logger, ciEnvironment, configuration, options.dispatch.GitHubToken)

			tool := buildtool.NewTool(configuration.Build.Python, configuration.Build.Script, configuration.Build.DesktopPlatforms)
			tool.WorkingDirectory = workingDirectory

			dispatcher := &dispatch.Dispatcher{
				Tool:              tool,
				Runner:            newBuildRunner(options.dispatch.DryRun, environment.output, logger),
				DetectionRunner:   execution.NewStreamingRunner(io.Discard, logger),
				Logger:            logger,
				Output:            environment.output,
				Environment:       ciEnvironment,
				Gating:            configuration.Gating,
				PrivateRepository: visibility.Private,
				Options:           options.dispatch,
				WorkingDirectory:  workingDirectory,
			}
			if options.describe {
				return dispatcher.Describe(command.Context())
			}
			return dispatcher.Run(command.Context(), arguments)
		},
	}

	addCommonFlags(command, &options.common)
	flags := command.Flags()
	dispatchOptions := &options.dispatch
	flags.StringVar(&dispatchOptions.Platform, platformFlagName, "", platformFlagDescription)
	registerSwitch(flags, &dispatchOptions.WithASan, withASanFlagName, withASanFlagDescription)
	registerSwitch(flags, &dispatchOptions.WithValgrind, withValgrindFlagName, withValgrindFlagDescription)
	registerSwitch(flags, &dispatchOptions.WithVanillaLua, withVanillaLuaFlagName, withVanillaLuaFlagDescription)
	registerSwitch(flags, &dispatchOptions.Archive, archiveFlagName, archiveFlagDescription)
	registerSwitch(flags, &dispatchOptions.SkipTests, skipTestsFlagName, skipTestsFlagDescription)
	registerSwitch(flags, &dispatchOptions.SkipBuiltins, skipBuiltinsFlagName, skipBuiltinsFlagDescription)
	registerSwitch(flags, &dispatchOptions.SkipDocs, skipDocsFlagName, skipDocsFlagDescription)
	flags.StringVar(&dispatchOptions.EngineArtifacts, engineArtifactsFlagName, "", engineArtifactsFlagDescription)
	flags.StringVar(&dispatchOptions.KeychainCert, keychainCertFlagName, "", keychainCertFlagDescription)
	flags.StringVar(&dispatchOptions.KeychainCertPass, keychainCertPassFlagName, "", keychainCertPassFlagDescription)
	flags.StringVar(&dispatchOptions.WindowsCertB64, windowsCertB64FlagName, "", windowsCertB64FlagDescription)
	flags.StringVar(&dispatchOptions.WindowsCert, windowsCertFlagName, "", windowsCertFlagDescription)
	flags.StringVar(&dispatchOptions.WindowsCertPass, windowsCertPassFlagName, "", windowsCertPassFlagDescription)
	flags.StringVar(&dispatchOptions.NotarizationUsername, notarizationUsernameFlagName, "", notarizationUsernameFlagDescription)
	flags.StringVar(&dispatchOptions.NotarizationPassword, notarizationPasswordFlagName, "", notarizationPasswordFlagDescription)
	flags.StringVar(&dispatchOptions.NotarizationITCProvider, notarizationITCProviderFlagName, "", notarizationITCProviderFlagDescription)
	flags.StringVar(&dispatchOptions.GitHubToken, githubTokenFlagName, "", githubTokenFlagDescription)
	flags.StringVar(&dispatchOptions.GitHubTargetRepo, githubTargetRepoFlagName, "", githubTargetRepoFlagDescription)
	flags.StringVar(&dispatchOptions.GitHubSHA1, githubSHA1FlagName, "", githubSHA1FlagDescription)
	flags.StringVar(&dispatchOptions.Branch, branchFlagName, "", branchFlagDescription)
	registerSwitch(flags, &dispatchOptions.DryRun, dryRunFlagName, dryRunFlagDescriptionDispatcher)
	registerSwitch(flags, &options.describe, describeFlagName, describeFlagDescription)
	command.SetOut(environment.output)
	return command
}

func newBuildRunner(dryRun bool, output io.Writer, logger *zap.Logger) execution.Runner {
	if dryRun {
		return &execution.DryRunner{Output: output, Logger: logger}
	}
	return execution.NewStreamingRunner(output, logger)
}

// resolveVisibility consults the GitHub API only when a token is available.
func resolveVisibility(command *cobra.Command, logger *zap.Logger, ciEnvironment config.Environment, configuration config.ApplicationConfiguration, flagToken string) github.Visibility {
	token := flagToken
	if token == "" {
		token = ciEnvironment.ReleaseToken
	}
	var checker github.PrivacyChecker
	if token != "" {
		checker = github.NewClient(command.Context(), token)
	}
	visibility, lookupError := github.ResolveVisibility(command.Context(), ciEnvironment, checker, configuration.Gating.PrivateRepositorySuffix)
	if lookupError != nil {
		logger.Warn(visibilityLookupFailedMessage, zap.Error(lookupError))
	}
	logger.Debug(visibilityResolvedMessage, zap.Bool("private", visibility.Private), zap.String("source", string(visibility.Source)))
	return visibility
}
