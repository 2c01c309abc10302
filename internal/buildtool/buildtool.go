// Package buildtool builds the argument lists passed to the external build script.
// Every builder is deterministic: identical inputs produce identical invocations.
package buildtool

import (
	"runtime"

	"github.com/temirov/engineci/internal/execution"
	"github.com/temirov/engineci/internal/utils"
)

// Platform identifiers used by the build script.
const (
	PlatformLinux  = "x86_64-linux"
	PlatformWin32  = "x86_64-win32"
	PlatformDarwin = "x86_64-darwin"
	PlatformJSWeb  = "js-web"
	PlatformWASM   = "wasm-web"
)

// DefaultDesktopPlatforms are the platforms the editor is bundled for.
var DefaultDesktopPlatforms = []string{PlatformLinux, PlatformWin32, PlatformDarwin}

const (
	// DefaultPython is the interpreter the build script is started with.
	DefaultPython = "python"
	// DefaultScript is the build script path relative to the repository root.
	DefaultScript = "scripts/build.py"

	passthroughSeparator = "--"
)

// Tool describes how to start the build script.
type Tool struct {
	Python           string
	Script           string
	DesktopPlatforms []string
	HostPlatform     string
	WorkingDirectory string
}

// NewTool returns a Tool with defaults filled in for empty fields.
func NewTool(python, script string, desktopPlatforms []string) Tool {
	tool := Tool{Python: python, Script: script, DesktopPlatforms: desktopPlatforms, HostPlatform: HostPlatform(runtime.GOOS)}
	if tool.Python == "" {
		tool.Python = DefaultPython
	}
	if tool.Script == "" {
		tool.Script = DefaultScript
	}
	if len(tool.DesktopPlatforms) == 0 {
		tool.DesktopPlatforms = append([]string{}, DefaultDesktopPlatforms...)
	}
	return tool
}

// HostPlatform maps a GOOS value to the build script's platform identifier.
func HostPlatform(operatingSystem string) string {
	switch operatingSystem {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformWin32
	}
}

// IsDesktopPlatform reports whether platform is one the editor ships on.
func (tool Tool) IsDesktopPlatform(platform string) bool {
	return utils.ContainsString(tool.DesktopPlatforms, platform)
}

// command assembles "<python> <script> <targets...> <options...> [-- <passthrough...>]".
func (tool Tool) command(targets []string, options []string, passthrough []string) execution.Command {
	arguments := make([]string, 0, 1+len(targets)+len(options)+1+len(passthrough))
	arguments = append(arguments, tool.Script)
	arguments = append(arguments, targets...)
	arguments = append(arguments, options...)
	if len(passthrough) > 0 {
		arguments = append(arguments, passthroughSeparator)
		arguments = append(arguments, passthrough...)
	}
	return execution.Command{
		Executable:       tool.Python,
		Arguments:        arguments,
		WorkingDirectory: tool.WorkingDirectory,
	}
}

// platformsOrDesktop returns the single requested platform, or every desktop platform when none was requested.
func (tool Tool) platformsOrDesktop(platform string) []string {
	if platform != "" {
		return []string{platform}
	}
	return tool.DesktopPlatforms
}

func option(name, value string) string {
	return "--" + name + "=" + value
}

func appendOptional(options []string, name, value string) []string {
	if value == "" {
		return options
	}
	return append(options, option(name, value))
}
