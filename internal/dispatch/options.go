package dispatch

// Options carries the command line switches of the ci tool.
type Options struct {
	Platform       string
	WithASan       bool
	WithValgrind   bool
	WithVanillaLua bool
	Archive        bool
	SkipTests      bool
	SkipBuiltins   bool
	SkipDocs       bool
	// EngineArtifacts overrides the branch default artifact selection.
	EngineArtifacts string

	KeychainCert     string
	KeychainCertPass string
	WindowsCertB64   string
	WindowsCert      string
	WindowsCertPass  string

	NotarizationUsername    string
	NotarizationPassword    string
	NotarizationITCProvider string

	GitHubToken      string
	GitHubTargetRepo string
	GitHubSHA1       string

	// Branch skips branch detection when set.
	Branch string
	DryRun bool
}

// secrets lists the option values that must not appear in log lines.
func (options Options) secrets() []string {
	var values []string
	for _, value := range []string{
		options.KeychainCert,
		options.KeychainCertPass,
		options.WindowsCertB64,
		options.NotarizationPassword,
		options.GitHubToken,
	} {
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}
