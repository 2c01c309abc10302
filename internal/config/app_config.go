// Package config loads the optional configuration file and captures the CI
// environment once at process start.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/engineci/internal/buildtool"
	"github.com/temirov/engineci/internal/treecopy"
	"github.com/temirov/engineci/internal/utils"
)

const (
	buildPythonKey              = "build.python"
	buildScriptKey              = "build.script"
	buildDesktopPlatformsKey    = "build.desktop_platforms"
	gatingMainWorkflowKey       = "gating.main_workflow"
	gatingPrivatePlatformsKey   = "gating.private_platforms"
	gatingPrivateRepoSuffixKey  = "gating.private_repository_suffix"
	defaultMainWorkflow         = "CI - Main"
	defaultPrivateRepoSuffix    = "-private"
	configurationIsDirectoryFmt = "configuration path %s is a directory"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds the settings of both tools.
type ApplicationConfiguration struct {
	Build  BuildConfiguration  `mapstructure:"build"`
	Gating GatingConfiguration `mapstructure:"gating"`
	Copy   CopyConfiguration   `mapstructure:"copy"`
}

// BuildConfiguration describes how the external build script is started.
type BuildConfiguration struct {
	Python           string   `mapstructure:"python"`
	Script           string   `mapstructure:"script"`
	DesktopPlatforms []string `mapstructure:"desktop_platforms"`
}

// GatingConfiguration decides which workflows and platforms may run.
type GatingConfiguration struct {
	MainWorkflow            string   `mapstructure:"main_workflow"`
	PrivatePlatforms        []string `mapstructure:"private_platforms"`
	PrivateRepositorySuffix string   `mapstructure:"private_repository_suffix"`
}

// CopyConfiguration lists patterns added to the built-in tree copier exclusions.
type CopyConfiguration struct {
	LocalPatterns    []string `mapstructure:"local_patterns"`
	PrivatePlatforms []string `mapstructure:"private_platforms"`
	PrivateFiles     []string `mapstructure:"private_files"`
}

// LoadApplicationConfiguration reads the configuration file from the working directory,
// or from ExplicitFilePath when given. A missing default file yields the defaults; a missing
// explicit file is an error.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	reader := viper.New()
	applyDefaults(reader)

	configurationPath := resolveConfigPath(workingDirectory, options.ExplicitFilePath)
	info, statErr := os.Stat(configurationPath)
	switch {
	case statErr == nil && info.IsDir():
		return ApplicationConfiguration{}, fmt.Errorf(configurationIsDirectoryFmt, configurationPath)
	case statErr == nil:
		reader.SetConfigFile(configurationPath)
		if readErr := reader.ReadInConfig(); readErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", configurationPath, readErr)
		}
	case os.IsNotExist(statErr) && options.ExplicitFilePath == "":
	default:
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", configurationPath, statErr)
	}

	var configuration ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&configuration); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", configurationPath, decodeErr)
	}
	configuration.Build.DesktopPlatforms = utils.DeduplicatePatterns(configuration.Build.DesktopPlatforms)
	configuration.Gating.PrivatePlatforms = utils.DeduplicatePatterns(configuration.Gating.PrivatePlatforms)
	configuration.Copy.LocalPatterns = utils.DeduplicatePatterns(configuration.Copy.LocalPatterns)
	configuration.Copy.PrivatePlatforms = utils.DeduplicatePatterns(configuration.Copy.PrivatePlatforms)
	configuration.Copy.PrivateFiles = utils.DeduplicatePatterns(configuration.Copy.PrivateFiles)
	return configuration, nil
}

func applyDefaults(reader *viper.Viper) {
	reader.SetDefault(buildPythonKey, buildtool.DefaultPython)
	reader.SetDefault(buildScriptKey, buildtool.DefaultScript)
	reader.SetDefault(buildDesktopPlatformsKey, append([]string{}, buildtool.DefaultDesktopPlatforms...))
	reader.SetDefault(gatingMainWorkflowKey, defaultMainWorkflow)
	// Platforms excluded from copies are the ones only the private repository may build.
	reader.SetDefault(gatingPrivatePlatformsKey, append([]string{}, treecopy.DefaultPrivatePlatforms...))
	reader.SetDefault(gatingPrivateRepoSuffixKey, defaultPrivateRepoSuffix)
}

func resolveConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.ConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}
