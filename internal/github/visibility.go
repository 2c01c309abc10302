// Package github answers questions about the repository a CI run belongs to.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/temirov/engineci/internal/config"
)

// VisibilitySource names where a privacy decision came from.
type VisibilitySource string

const (
	// SourceOverride means CI_REPOSITORY_PRIVATE decided.
	SourceOverride VisibilitySource = "override"
	// SourceAPI means the GitHub repositories API decided.
	SourceAPI VisibilitySource = "api"
	// SourceName means the repository name suffix decided.
	SourceName VisibilitySource = "name"
)

// Visibility is the resolved private-repository signal.
type Visibility struct {
	Private bool
	Source  VisibilitySource
}

// Client wraps a go-github client.
type Client struct {
	client *github.Client
}

// NewClient returns a client authenticated with token. An empty token yields an anonymous client.
func NewClient(ctx context.Context, token string) *Client {
	var httpClient *http.Client
	if token != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, tokenSource)
	}
	return &Client{client: github.NewClient(httpClient)}
}

// NewClientWithBaseURL points the client at a different API endpoint, such as GitHub Enterprise or a test server.
func NewClientWithBaseURL(ctx context.Context, token, baseURL string) (*Client, error) {
	client := NewClient(ctx, token)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	enterpriseClient, err := client.client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("configure GitHub base URL: %w", err)
	}
	client.client = enterpriseClient
	return client, nil
}

// RepositoryIsPrivate asks the GitHub API whether owner/name is private.
func (c *Client) RepositoryIsPrivate(ctx context.Context, owner, name string) (bool, error) {
	repository, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return false, fmt.Errorf("failed to fetch repository %s/%s: %w", owner, name, err)
	}
	return repository.GetPrivate(), nil
}

// PrivacyChecker is satisfied by *Client.
type PrivacyChecker interface {
	RepositoryIsPrivate(ctx context.Context, owner, name string) (bool, error)
}

// ResolveVisibility decides whether the CI run operates on a private repository.
// The explicit override wins, then the API when checker is non-nil and the repository
// identity is well formed, then the repository name suffix. API failures fall back to the name.
func ResolveVisibility(ctx context.Context, environment config.Environment, checker PrivacyChecker, privateSuffix string) (Visibility, error) {
	if environment.PrivateOverride != nil {
		return Visibility{Private: *environment.PrivateOverride, Source: SourceOverride}, nil
	}
	byName := Visibility{
		Private: privateSuffix != "" && strings.HasSuffix(environment.Repository, privateSuffix),
		Source:  SourceName,
	}
	owner, name, ok := environment.RepositoryOwnerAndName()
	if checker == nil || !ok {
		return byName, nil
	}
	private, err := checker.RepositoryIsPrivate(ctx, owner, name)
	if err != nil {
		return byName, err
	}
	return Visibility{Private: private, Source: SourceAPI}, nil
}
