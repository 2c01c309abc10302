// Package branch maps the branch being built onto the channels and release
// settings the build tool is invoked with.
package branch

import "strings"

// Well-known branch names.
const (
	MasterBranch        = "master"
	BetaBranch          = "beta"
	DevBranch           = "dev"
	EditorDevBranch     = "editor-dev"
	EditorFeaturePrefix = "DEFEDIT-"
)

// Channel names.
const (
	ChannelStable       = "stable"
	ChannelBeta         = "beta"
	ChannelAlpha        = "alpha"
	ChannelDev          = "dev"
	ChannelEditorAlpha  = "editor-alpha"
	ChannelEditorStable = "editor-stable"
	ChannelEditorDev    = "editor-dev"
)

// Engine artifact selections.
const (
	ArtifactsArchived       = "archived"
	ArtifactsArchivedStable = "archived-stable"
)

// Configuration holds the settings derived from a branch name.
// Empty strings stand for "not set"; such values are omitted from build tool invocations.
type Configuration struct {
	Branch          string `yaml:"branch"`
	EngineChannel   string `yaml:"engine_channel,omitempty"`
	EditorChannel   string `yaml:"editor_channel,omitempty"`
	ReleaseChannel  string `yaml:"release_channel,omitempty"`
	MakeRelease     bool   `yaml:"make_release"`
	SkipEditorTests bool   `yaml:"skip_editor_tests"`
	EngineArtifacts string `yaml:"engine_artifacts,omitempty"`
}

// ResolveOptions carries the inputs besides the branch name.
type ResolveOptions struct {
	// PrivateRepository switches master to release on the stable channel.
	PrivateRepository bool
	// EngineArtifacts overrides the branch default when non-empty.
	EngineArtifacts string
}

// Resolve returns the configuration for branchName. Every branch name maps to a
// configuration; unrecognized names are treated as engine development branches.
func Resolve(branchName string, options ResolveOptions) Configuration {
	var configuration Configuration
	defaultArtifacts := ArtifactsArchived

	switch {
	case branchName == MasterBranch:
		configuration = Configuration{
			EngineChannel:  ChannelStable,
			EditorChannel:  ChannelEditorAlpha,
			ReleaseChannel: ChannelEditorStable,
		}
		if options.PrivateRepository {
			configuration.ReleaseChannel = ChannelStable
			configuration.MakeRelease = true
		}
	case branchName == BetaBranch:
		configuration = Configuration{
			EngineChannel:  ChannelBeta,
			EditorChannel:  ChannelBeta,
			ReleaseChannel: ChannelBeta,
			MakeRelease:    true,
		}
	case branchName == DevBranch:
		configuration = Configuration{
			EngineChannel:  ChannelAlpha,
			EditorChannel:  ChannelAlpha,
			ReleaseChannel: ChannelAlpha,
			MakeRelease:    true,
		}
	case branchName == EditorDevBranch:
		configuration = Configuration{
			EditorChannel:  ChannelEditorAlpha,
			ReleaseChannel: ChannelEditorAlpha,
			MakeRelease:    true,
		}
		defaultArtifacts = ""
	case strings.HasPrefix(branchName, EditorFeaturePrefix):
		configuration = Configuration{
			EditorChannel: ChannelEditorDev,
		}
		defaultArtifacts = ArtifactsArchivedStable
	default:
		configuration = Configuration{
			EngineChannel:   ChannelDev,
			EditorChannel:   ChannelDev,
			SkipEditorTests: true,
		}
	}

	configuration.Branch = branchName
	configuration.EngineArtifacts = defaultArtifacts
	if options.EngineArtifacts != "" {
		configuration.EngineArtifacts = options.EngineArtifacts
	}
	return configuration
}

// ForcesValgrind reports whether engine builds on this branch always run under valgrind.
func (configuration Configuration) ForcesValgrind() bool {
	return configuration.Branch == MasterBranch || configuration.Branch == BetaBranch
}
