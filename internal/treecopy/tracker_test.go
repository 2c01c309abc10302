package treecopy

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/temirov/engineci/internal/execution"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, directory string, arguments ...string) {
	t.Helper()
	command := exec.Command("git", arguments...)
	command.Dir = directory
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", arguments, err, output)
	}
}

func TestGitTrackerDistinguishesUntrackedFromFailure(t *testing.T) {
	requireGit(t)
	repository := t.TempDir()
	runGit(t, repository, "init", "-q")
	writeSourceFile(t, repository, "tracked.txt", "tracked", 0o644)
	writeSourceFile(t, repository, "untracked.txt", "untracked", 0o644)
	runGit(t, repository, "add", "tracked.txt")

	tracker := GitTracker{Runner: execution.NewStreamingRunner(nil, nil)}
	tracked, err := tracker.IsTracked(context.Background(), repository, "tracked.txt")
	if err != nil || !tracked {
		t.Fatalf("expected tracked.txt to be tracked, got %t (%v)", tracked, err)
	}
	tracked, err = tracker.IsTracked(context.Background(), repository, "untracked.txt")
	if err != nil || tracked {
		t.Fatalf("expected untracked.txt to be untracked without error, got %t (%v)", tracked, err)
	}

	notARepository := t.TempDir()
	if err := os.WriteFile(filepath.Join(notARepository, "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(notARepository))
	_, err = tracker.IsTracked(context.Background(), notARepository, "file.txt")
	if !errors.Is(err, ErrTrackingCheck) {
		t.Fatalf("expected ErrTrackingCheck outside a repository, got %v", err)
	}
}

func TestCopyTreeWithGitRepository(t *testing.T) {
	requireGit(t)
	source := t.TempDir()
	runGit(t, source, "init", "-q")
	writeSourceFile(t, source, "engine/src/main.cpp", "int main() {}", 0o644)
	writeSourceFile(t, source, "engine/src/ps4/main.cpp", "private", 0o644)
	writeSourceFile(t, source, "engine/src/scratch.cpp", "untracked", 0o644)
	runGit(t, source, "add", "engine/src/main.cpp", "engine/src/ps4/main.cpp")

	target := t.TempDir()
	copier := NewCopier(DefaultPatternSet(), GitTracker{Runner: execution.NewStreamingRunner(nil, nil)}, nil)
	report, err := copier.CopyTree(context.Background(), source, target)
	if err != nil {
		t.Fatalf("CopyTree error: %v", err)
	}
	expected := Report{Copied: 1, SkippedPrivate: 1, SkippedUntracked: 1}
	if report != expected {
		t.Fatalf("expected %+v, got %+v", expected, report)
	}
	if _, statErr := os.Stat(filepath.Join(target, "engine", "src", "main.cpp")); statErr != nil {
		t.Fatalf("expected main.cpp copied: %v", statErr)
	}
}

func TestGitTrackerTreatsGlobCharactersLiterally(t *testing.T) {
	requireGit(t)
	if runtime.GOOS == "windows" {
		t.Skip("file names with glob characters are not valid on windows")
	}
	repository := t.TempDir()
	runGit(t, repository, "init", "-q")
	writeSourceFile(t, repository, "docs/ab.txt", "tracked", 0o644)
	writeSourceFile(t, repository, "docs/a*.txt", "untracked", 0o644)
	writeSourceFile(t, repository, "docs/a?.md", "untracked", 0o644)
	writeSourceFile(t, repository, "docs/ac.md", "tracked", 0o644)
	runGit(t, repository, "add", "docs/ab.txt", "docs/ac.md")

	tracker := GitTracker{Runner: execution.NewStreamingRunner(nil, nil)}
	testCases := []struct {
		relativePath string
		expected     bool
	}{
		{relativePath: "docs/ab.txt", expected: true},
		{relativePath: "docs/a*.txt", expected: false},
		{relativePath: "docs/a?.md", expected: false},
		{relativePath: "docs/ac.md", expected: true},
	}
	for _, testCase := range testCases {
		tracked, err := tracker.IsTracked(context.Background(), repository, testCase.relativePath)
		if err != nil {
			t.Fatalf("IsTracked(%s) error: %v", testCase.relativePath, err)
		}
		if tracked != testCase.expected {
			t.Fatalf("IsTracked(%s): expected %t, got %t", testCase.relativePath, testCase.expected, tracked)
		}
	}

	target := t.TempDir()
	report, err := NewCopier(DefaultPatternSet(), tracker, nil).CopyTree(context.Background(), repository, target)
	if err != nil {
		t.Fatalf("CopyTree error: %v", err)
	}
	expected := Report{Copied: 2, SkippedUntracked: 2}
	if report != expected {
		t.Fatalf("expected %+v, got %+v", expected, report)
	}
	if _, statErr := os.Stat(filepath.Join(target, "docs", "a*.txt")); !os.IsNotExist(statErr) {
		t.Fatalf("expected untracked glob-named file to stay behind, stat error: %v", statErr)
	}
}
