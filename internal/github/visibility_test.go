package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/temirov/engineci/internal/config"
)

func newRepositoryServer(t *testing.T, private bool, status int) (*httptest.Server, *string) {
	t.Helper()
	var authorization string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/defold/engine", func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"full_name": "defold/engine", "private": private})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &authorization
}

func TestRepositoryIsPrivateUsesToken(t *testing.T) {
	server, authorization := newRepositoryServer(t, true, http.StatusOK)
	client, err := NewClientWithBaseURL(context.Background(), "secret-token", server.URL)
	if err != nil {
		t.Fatalf("NewClientWithBaseURL error: %v", err)
	}
	private, err := client.RepositoryIsPrivate(context.Background(), "defold", "engine")
	if err != nil {
		t.Fatalf("RepositoryIsPrivate error: %v", err)
	}
	if !private {
		t.Fatalf("expected private repository")
	}
	if *authorization != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header %q", *authorization)
	}
}

func TestRepositoryIsPrivateReportsAPIError(t *testing.T) {
	server, _ := newRepositoryServer(t, false, http.StatusNotFound)
	client, err := NewClientWithBaseURL(context.Background(), "", server.URL)
	if err != nil {
		t.Fatalf("NewClientWithBaseURL error: %v", err)
	}
	if _, err := client.RepositoryIsPrivate(context.Background(), "defold", "engine"); err == nil {
		t.Fatalf("expected error for missing repository")
	}
}

type stubChecker struct {
	private bool
	err     error
	calls   int
}

func (checker *stubChecker) RepositoryIsPrivate(context.Context, string, string) (bool, error) {
	checker.calls++
	return checker.private, checker.err
}

func TestResolveVisibility(t *testing.T) {
	truth := true
	falsehood := false
	testCases := []struct {
		name          string
		environment   config.Environment
		checker       *stubChecker
		expected      Visibility
		expectError   bool
		expectedCalls int
	}{
		{
			name:        "override_wins_over_api",
			environment: config.Environment{Repository: "defold/engine", PrivateOverride: &falsehood},
			checker:     &stubChecker{private: true},
			expected:    Visibility{Private: false, Source: SourceOverride},
		},
		{
			name:          "api_decides",
			environment:   config.Environment{Repository: "defold/engine"},
			checker:       &stubChecker{private: true},
			expected:      Visibility{Private: true, Source: SourceAPI},
			expectedCalls: 1,
		},
		{
			name:        "name_suffix_without_checker",
			environment: config.Environment{Repository: "defold/engine-private"},
			expected:    Visibility{Private: true, Source: SourceName},
		},
		{
			name:          "api_failure_falls_back_to_name",
			environment:   config.Environment{Repository: "defold/engine-private"},
			checker:       &stubChecker{err: errors.New("rate limited")},
			expected:      Visibility{Private: true, Source: SourceName},
			expectError:   true,
			expectedCalls: 1,
		},
		{
			name:        "malformed_identity_skips_api",
			environment: config.Environment{Repository: "engine"},
			checker:     &stubChecker{private: true},
			expected:    Visibility{Private: false, Source: SourceName},
		},
		{
			name:        "override_true",
			environment: config.Environment{PrivateOverride: &truth},
			expected:    Visibility{Private: true, Source: SourceOverride},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var checker PrivacyChecker
			if testCase.checker != nil {
				checker = testCase.checker
			}
			visibility, err := ResolveVisibility(context.Background(), testCase.environment, checker, "-private")
			if testCase.expectError != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if visibility != testCase.expected {
				t.Fatalf("expected %+v, got %+v", testCase.expected, visibility)
			}
			if testCase.checker != nil && testCase.checker.calls != testCase.expectedCalls {
				t.Fatalf("expected %d API calls, got %d", testCase.expectedCalls, testCase.checker.calls)
			}
		})
	}
}
