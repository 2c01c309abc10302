// Package dispatch turns a list of CI command names into build tool invocations
// for the branch being built.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/engineci/internal/branch"
	"github.com/temirov/engineci/internal/buildtool"
	"github.com/temirov/engineci/internal/config"
	"github.com/temirov/engineci/internal/execution"
)

// Command names accepted by Run.
const (
	CommandEngine         = "engine"
	CommandBuildEditor    = "build-editor"
	CommandDownloadEditor = "download-editor"
	CommandNotarizeEditor = "notarize-editor"
	CommandSignEditor     = "sign-editor"
	CommandArchiveEditor  = "archive-editor"
	CommandBob            = "bob"
	CommandSDK            = "sdk"
	CommandSmoke          = "smoke"
	CommandInstall        = "install"
	CommandInstallExt     = "install_ext"
	CommandDistclean      = "distclean"
	CommandRelease        = "release"
)

const (
	editorCommandFragment = "editor"

	workflowDisabledMessage      = "Workflow is disabled in this repository. Skipping"
	privatePlatformMessage       = "Platform is private and this repository cannot build for it. Skipping"
	privateEditorMessage         = "Repository is private and editor builds are disabled. Skipping"
	usingBranchMessage           = "Using branch"
	unknownCommandMessage        = "Unknown command"
	releaseNotConfiguredFormat   = "Branch '%s' is not configured for automatic release from CI"
	invocationMessage            = "running"
	missingPlatformFormat        = "%w: no --platform specified for %s"
	missingNotarizationFormat    = "%w: %s requires --notarization-username and --notarization-password"
	missingCertificateFormat     = "%w: certificate file not found: %s"
	commandFailedFormat          = "%s: %w"
	describeEncodeFailedFormat   = "encode branch configuration: %w"
	resolveWorkingDirectoryError = "determine working directory: %w"
)

// ErrPrecondition reports a missing or invalid input detected before any sub-process runs.
var ErrPrecondition = errors.New("precondition failed")

// Dispatcher executes CI commands for one repository checkout.
type Dispatcher struct {
	Tool   buildtool.Tool
	Runner execution.Runner
	// DetectionRunner runs the git queries for branch detection. Runner is used when nil.
	DetectionRunner execution.Runner
	Logger          *zap.Logger
	// Output receives the describe document.
	Output      io.Writer
	Environment config.Environment
	Gating      config.GatingConfiguration
	// PrivateRepository is the resolved repository visibility.
	PrivateRepository bool
	Options           Options
	// HostOperatingSystem selects the install steps; runtime.GOOS when empty.
	HostOperatingSystem string
	// WorkingDirectory is the repository checkout; the process directory when empty.
	WorkingDirectory string
}

// Run executes commandNames in order. Gated runs and unknown commands are diagnostics and
// succeed; preconditions are checked for the whole list before anything is started, and
// the first failing invocation stops the run.
func (dispatcher *Dispatcher) Run(ctx context.Context, commandNames []string) error {
	logger := dispatcher.logger()
	if skipMessage, skipFields := dispatcher.gate(commandNames); skipMessage != "" {
		logger.Info(skipMessage, skipFields...)
		return nil
	}
	if preconditionError := dispatcher.checkPreconditions(commandNames); preconditionError != nil {
		return preconditionError
	}
	configuration, resolveError := dispatcher.resolveConfiguration(ctx)
	if resolveError != nil {
		return resolveError
	}
	for _, commandName := range commandNames {
		if commandError := dispatcher.runCommand(ctx, commandName, configuration); commandError != nil {
			return fmt.Errorf(commandFailedFormat, commandName, commandError)
		}
	}
	return nil
}

// Describe writes the resolved branch configuration as YAML to Output.
func (dispatcher *Dispatcher) Describe(ctx context.Context) error {
	configuration, resolveError := dispatcher.resolveConfiguration(ctx)
	if resolveError != nil {
		return resolveError
	}
	output := dispatcher.Output
	if output == nil {
		output = os.Stdout
	}
	encoder := yaml.NewEncoder(output)
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(configuration); encodeError != nil {
		return fmt.Errorf(describeEncodeFailedFormat, encodeError)
	}
	return encoder.Close()
}

func (dispatcher *Dispatcher) logger() *zap.Logger {
	if dispatcher.Logger == nil {
		return zap.NewNop()
	}
	return dispatcher.Logger
}

// gate returns a diagnostic when this run must be skipped entirely.
func (dispatcher *Dispatcher) gate(commandNames []string) (string, []zap.Field) {
	repositoryField := zap.String("repository", dispatcher.Environment.Repository)
	if dispatcher.PrivateRepository && dispatcher.Environment.Workflow != dispatcher.Gating.MainWorkflow {
		return workflowDisabledMessage, []zap.Field{zap.String("workflow", dispatcher.Environment.Workflow), repositoryField}
	}
	if !dispatcher.PrivateRepository && dispatcher.isPrivatePlatform(dispatcher.Options.Platform) {
		return privatePlatformMessage, []zap.Field{zap.String("platform", dispatcher.Options.Platform), repositoryField}
	}
	if dispatcher.PrivateRepository {
		for _, commandName := range commandNames {
			if strings.Contains(commandName, editorCommandFragment) {
				return privateEditorMessage, []zap.Field{zap.String("command", commandName), repositoryField}
			}
		}
	}
	return "", nil
}

func (dispatcher *Dispatcher) isPrivatePlatform(platform string) bool {
	if platform == "" {
		return false
	}
	for _, privatePlatform := range dispatcher.Gating.PrivatePlatforms {
		if strings.EqualFold(privatePlatform, platform) {
			return true
		}
	}
	return false
}

func (dispatcher *Dispatcher) checkPreconditions(commandNames []string) error {
	options := dispatcher.Options
	for _, commandName := range commandNames {
		switch commandName {
		case CommandEngine:
			if options.Platform == "" {
				return fmt.Errorf(missingPlatformFormat, ErrPrecondition, commandName)
			}
		case CommandSignEditor:
			if options.Platform == "" {
				return fmt.Errorf(missingPlatformFormat, ErrPrecondition, commandName)
			}
			if options.WindowsCert != "" {
				certificatePath, pathError := dispatcher.absolutePath(options.WindowsCert)
				if pathError != nil {
					return pathError
				}
				if _, statError := os.Stat(certificatePath); statError != nil {
					return fmt.Errorf(missingCertificateFormat, ErrPrecondition, certificatePath)
				}
			}
		case CommandNotarizeEditor:
			if options.NotarizationUsername == "" || options.NotarizationPassword == "" {
				return fmt.Errorf(missingNotarizationFormat, ErrPrecondition, commandName)
			}
		}
	}
	return nil
}

func (dispatcher *Dispatcher) resolveConfiguration(ctx context.Context) (branch.Configuration, error) {
	branchName := dispatcher.Options.Branch
	if branchName == "" {
		detectionRunner := dispatcher.DetectionRunner
		if detectionRunner == nil {
			detectionRunner = dispatcher.Runner
		}
		detected, detectError := branch.Detect(ctx, detectionRunner, dispatcher.WorkingDirectory)
		if detectError != nil {
			return branch.Configuration{}, detectError
		}
		branchName = detected
	}
	configuration := branch.Resolve(branchName, branch.ResolveOptions{
		PrivateRepository: dispatcher.PrivateRepository,
		EngineArtifacts:   dispatcher.Options.EngineArtifacts,
	})
	dispatcher.logger().Info(usingBranchMessage,
		zap.String("branch", configuration.Branch),
		zap.String("engine_channel", configuration.EngineChannel),
		zap.String("editor_channel", configuration.EditorChannel),
		zap.String("engine_artifacts", configuration.EngineArtifacts),
	)
	dispatcher.logger().Debug("github release target",
		zap.String("target_repository", dispatcher.Options.GitHubTargetRepo),
		zap.String("sha1", dispatcher.Options.GitHubSHA1),
	)
	return configuration, nil
}

func (dispatcher *Dispatcher) runCommand(ctx context.Context, commandName string, configuration branch.Configuration) error {
	options := dispatcher.Options
	tool := dispatcher.Tool
	switch commandName {
	case CommandEngine:
		return dispatcher.invoke(ctx, tool.Engine(buildtool.EngineOptions{
			Platform:       options.Platform,
			Channel:        configuration.EngineChannel,
			WithValgrind:   options.WithValgrind || configuration.ForcesValgrind(),
			WithASan:       options.WithASan,
			WithVanillaLua: options.WithVanillaLua,
			SkipTests:      options.SkipTests,
			SkipCodesign:   true,
			SkipDocs:       options.SkipDocs,
			SkipBuiltins:   options.SkipBuiltins,
			Archive:        options.Archive,
		}))
	case CommandBuildEditor:
		return dispatcher.invoke(ctx, tool.BuildEditor(configuration.EditorChannel, configuration.EngineArtifacts, configuration.SkipEditorTests)...)
	case CommandDownloadEditor:
		return dispatcher.invoke(ctx, tool.DownloadEditor(configuration.EditorChannel, options.Platform)...)
	case CommandNotarizeEditor:
		return dispatcher.invoke(ctx, tool.NotarizeEditor(buildtool.NotarizationOptions{
			Username:    options.NotarizationUsername,
			Password:    options.NotarizationPassword,
			ITCProvider: options.NotarizationITCProvider,
		}))
	case CommandSignEditor:
		return dispatcher.signEditor(ctx)
	case CommandArchiveEditor:
		return dispatcher.invoke(ctx, tool.ArchiveEditor(configuration.EditorChannel, configuration.EngineArtifacts, options.Platform)...)
	case CommandBob:
		return dispatcher.invoke(ctx, tool.Bob(configuration.EngineChannel))
	case CommandSDK:
		return dispatcher.invoke(ctx, tool.SDK(configuration.EngineChannel))
	case CommandSmoke:
		return dispatcher.invoke(ctx, tool.SmokeTest())
	case CommandInstall:
		return dispatcher.install(ctx)
	case CommandInstallExt:
		return dispatcher.invoke(ctx, tool.InstallExt(options.Platform))
	case CommandDistclean:
		return dispatcher.invoke(ctx, tool.Distclean())
	case CommandRelease:
		if !configuration.MakeRelease {
			dispatcher.logger().Info(fmt.Sprintf(releaseNotConfiguredFormat, configuration.Branch))
			return nil
		}
		return dispatcher.invoke(ctx, tool.Release(configuration.ReleaseChannel, dispatcher.releaseToken()))
	default:
		dispatcher.logger().Warn(unknownCommandMessage, zap.String("command", commandName))
		return nil
	}
}

func (dispatcher *Dispatcher) signEditor(ctx context.Context) error {
	options := dispatcher.Options
	certificate, certificatePassword := options.WindowsCert, options.WindowsCertPass
	var pathError error
	if certificate != "" {
		if certificate, pathError = dispatcher.absolutePath(certificate); pathError != nil {
			return pathError
		}
	}
	if certificatePassword != "" {
		if certificatePassword, pathError = dispatcher.absolutePath(certificatePassword); pathError != nil {
			return pathError
		}
	}
	return dispatcher.invoke(ctx, dispatcher.Tool.SignEditor(options.Platform, certificate, certificatePassword))
}

func (dispatcher *Dispatcher) releaseToken() string {
	if dispatcher.Options.GitHubToken != "" {
		return dispatcher.Options.GitHubToken
	}
	return dispatcher.Environment.ReleaseToken
}

// invoke runs commands in order and stops at the first failure.
// Secret option values are attached to every command so logs and errors only show them redacted.
func (dispatcher *Dispatcher) invoke(ctx context.Context, commands ...execution.Command) error {
	secrets := dispatcher.Options.secrets()
	if dispatcher.Environment.ReleaseToken != "" {
		secrets = append(secrets, dispatcher.Environment.ReleaseToken)
	}
	for _, command := range commands {
		if command.WorkingDirectory == "" {
			command.WorkingDirectory = dispatcher.WorkingDirectory
		}
		command.Secrets = append(append([]string{}, command.Secrets...), secrets...)
		dispatcher.logger().Info(invocationMessage, zap.String("command", command.String()))
		if _, runError := dispatcher.Runner.Run(ctx, command); runError != nil {
			return runError
		}
	}
	return nil
}

func (dispatcher *Dispatcher) hostOperatingSystem() string {
	if dispatcher.HostOperatingSystem == "" {
		return runtime.GOOS
	}
	return dispatcher.HostOperatingSystem
}

// absolutePath resolves path against WorkingDirectory.
func (dispatcher *Dispatcher) absolutePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	baseDirectory := dispatcher.WorkingDirectory
	if baseDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf(resolveWorkingDirectoryError, err)
		}
		baseDirectory = currentDirectory
	}
	return filepath.Join(baseDirectory, path), nil
}
