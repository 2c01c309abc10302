package buildtool

import "github.com/temirov/engineci/internal/execution"

// EngineOptions controls an engine build.
type EngineOptions struct {
	Platform       string
	Channel        string
	WithValgrind   bool
	WithASan       bool
	WithVanillaLua bool
	SkipTests      bool
	SkipCodesign   bool
	SkipDocs       bool
	SkipBuiltins   bool
	Archive        bool
}

// Engine builds the engine for one platform. Sanitizer and test switches are forwarded to waf after "--".
func (tool Tool) Engine(options EngineOptions) execution.Command {
	targets := []string{"distclean", "install_ext"}
	if options.Platform == PlatformJSWeb || options.Platform == PlatformWASM {
		targets = append(targets, "install_ems")
	}
	targets = append(targets, "build_engine")
	if options.Archive {
		targets = append(targets, "archive_engine")
	}

	buildOptions := []string{option("platform", options.Platform)}
	buildOptions = appendOptional(buildOptions, "channel", options.Channel)
	if options.SkipCodesign {
		buildOptions = append(buildOptions, "--skip-codesign")
	}
	if options.SkipDocs {
		buildOptions = append(buildOptions, "--skip-docs")
	}
	if options.SkipBuiltins {
		buildOptions = append(buildOptions, "--skip-builtins")
	}

	var wafOptions []string
	if options.SkipTests {
		buildOptions = append(buildOptions, "--skip-tests")
		wafOptions = append(wafOptions, "--skip-build-tests")
	}
	if options.WithValgrind {
		wafOptions = append(wafOptions, "--with-valgrind")
	}
	if options.WithASan {
		wafOptions = append(wafOptions, "--with-asan")
	}
	if options.WithVanillaLua {
		wafOptions = append(wafOptions, "--use-vanilla-lua")
	}
	return tool.command(targets, buildOptions, wafOptions)
}

func editorOptions(channel, engineArtifacts string, skipTests bool) []string {
	options := appendOptional(nil, "engine-artifacts", engineArtifacts)
	options = appendOptional(options, "channel", channel)
	if skipTests {
		options = append(options, "--skip-tests")
	}
	return options
}

// BuildEditor builds the editor on the host and bundles it for every desktop platform.
// Hosts that are not desktop platforms get no invocations.
func (tool Tool) BuildEditor(channel, engineArtifacts string, skipTests bool) []execution.Command {
	if !tool.IsDesktopPlatform(tool.HostPlatform) {
		return nil
	}
	shared := editorOptions(channel, engineArtifacts, skipTests)
	commands := []execution.Command{
		tool.command(
			[]string{"distclean", "install_ext", "build_editor2"},
			append([]string{option("platform", tool.HostPlatform)}, shared...),
			nil,
		),
	}
	for _, platform := range tool.DesktopPlatforms {
		commands = append(commands, tool.command(
			[]string{"bundle_editor2"},
			append([]string{option("platform", platform)}, shared...),
			nil,
		))
	}
	return commands
}

// DownloadEditor fetches editor bundles for platform, or for all desktop platforms.
func (tool Tool) DownloadEditor(channel, platform string) []execution.Command {
	var commands []execution.Command
	for _, targetPlatform := range tool.platformsOrDesktop(platform) {
		options := appendOptional([]string{option("platform", targetPlatform)}, "channel", channel)
		commands = append(commands, tool.command([]string{"download_editor2"}, options, nil))
	}
	return commands
}

// NotarizationOptions holds the notarization service credentials.
type NotarizationOptions struct {
	Username    string
	Password    string
	ITCProvider string
}

// NotarizeEditor submits the macOS editor bundle for notarization.
func (tool Tool) NotarizeEditor(options NotarizationOptions) execution.Command {
	buildOptions := []string{
		option("platform", PlatformDarwin),
		option("notarization-username", options.Username),
		option("notarization-password", options.Password),
	}
	buildOptions = appendOptional(buildOptions, "notarization-itc-provider", options.ITCProvider)
	return tool.command([]string{"notarize_editor2"}, buildOptions, nil)
}

// SignEditor signs the editor bundle. Certificate paths must already be absolute.
func (tool Tool) SignEditor(platform, windowsCertificate, windowsCertificatePassword string) execution.Command {
	options := []string{option("platform", platform)}
	options = appendOptional(options, "windows-cert", windowsCertificate)
	options = appendOptional(options, "windows-cert-pass", windowsCertificatePassword)
	return tool.command([]string{"sign_editor2"}, options, nil)
}

// ArchiveEditor uploads editor bundles for platform, or for all desktop platforms.
func (tool Tool) ArchiveEditor(channel, engineArtifacts, platform string) []execution.Command {
	var commands []execution.Command
	for _, targetPlatform := range tool.platformsOrDesktop(platform) {
		options := appendOptional([]string{option("platform", targetPlatform)}, "channel", channel)
		options = appendOptional(options, "engine-artifacts", engineArtifacts)
		commands = append(commands, tool.command([]string{"archive_editor2"}, options, nil))
	}
	return commands
}

// Bob builds and archives the command line content pipeline.
func (tool Tool) Bob(channel string) execution.Command {
	return tool.command(
		[]string{"install_ext", "sync_archive", "build_bob", "archive_bob"},
		appendOptional(nil, "channel", channel),
		nil,
	)
}

// SDK builds the native extension SDK.
func (tool Tool) SDK(channel string) execution.Command {
	return tool.command([]string{"build_sdk"}, appendOptional(nil, "channel", channel), nil)
}

// SmokeTest runs the smoke test suite on a clean tree.
func (tool Tool) SmokeTest() execution.Command {
	return tool.command([]string{"distclean", "install_ext", "smoke_test"}, nil, nil)
}

// InstallExt installs external packages, optionally for one platform.
func (tool Tool) InstallExt(platform string) execution.Command {
	return tool.command([]string{"install_ext"}, appendOptional(nil, "platform", platform), nil)
}

// Distclean removes all build output.
func (tool Tool) Distclean() execution.Command {
	return tool.command([]string{"distclean"}, nil, nil)
}

// Release publishes the artifacts of channel. The token authenticates the GitHub release when set.
func (tool Tool) Release(channel, githubToken string) execution.Command {
	options := appendOptional(nil, "channel", channel)
	options = appendOptional(options, "github-token", githubToken)
	return tool.command([]string{"release"}, options, nil)
}
