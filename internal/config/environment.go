package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names consumed by the tools.
const (
	WorkflowVariable          = "GITHUB_WORKFLOW"
	RepositoryVariable        = "GITHUB_REPOSITORY"
	ReleaseTokenVariable      = "SERVICES_GITHUB_TOKEN"
	RepositoryPrivateVariable = "CI_REPOSITORY_PRIVATE"
)

// Environment is the CI metadata read from the process environment.
type Environment struct {
	Workflow     string
	Repository   string
	ReleaseToken string
	// PrivateOverride is set when CI_REPOSITORY_PRIVATE holds a valid boolean.
	PrivateOverride *bool
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ReadEnvironment captures the environment through lookup. A nil lookup reads the process environment.
func ReadEnvironment(lookup LookupFunc) Environment {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value := func(key string) string {
		raw, _ := lookup(key)
		return strings.TrimSpace(raw)
	}
	environment := Environment{
		Workflow:     value(WorkflowVariable),
		Repository:   value(RepositoryVariable),
		ReleaseToken: value(ReleaseTokenVariable),
	}
	if rawPrivate := value(RepositoryPrivateVariable); rawPrivate != "" {
		if parsed, parseErr := strconv.ParseBool(rawPrivate); parseErr == nil {
			environment.PrivateOverride = &parsed
		}
	}
	return environment
}

// RepositoryOwnerAndName splits "owner/name". ok is false for malformed identities.
func (environment Environment) RepositoryOwnerAndName() (owner string, name string, ok bool) {
	owner, name, found := strings.Cut(environment.Repository, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
