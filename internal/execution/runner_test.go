package execution_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/temirov/engineci/internal/execution"
)

const helperProcessEnvironmentKey = "ENGINECI_WANT_HELPER_PROCESS"

// TestHelperProcess is re-executed as a child program by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperProcessEnvironmentKey) != "1" {
		return
	}
	arguments := os.Args
	for index, argument := range arguments {
		if argument == "--" {
			arguments = arguments[index+1:]
			break
		}
	}
	exitCode := 0
	for _, argument := range arguments {
		switch {
		case strings.HasPrefix(argument, "stdout="):
			fmt.Fprintln(os.Stdout, strings.TrimPrefix(argument, "stdout="))
		case strings.HasPrefix(argument, "stderr="):
			fmt.Fprintln(os.Stderr, strings.TrimPrefix(argument, "stderr="))
		case strings.HasPrefix(argument, "long="):
			length, _ := strconv.Atoi(strings.TrimPrefix(argument, "long="))
			fmt.Fprintln(os.Stdout, strings.Repeat("x", length))
		case strings.HasPrefix(argument, "exit="):
			exitCode, _ = strconv.Atoi(strings.TrimPrefix(argument, "exit="))
		}
	}
	os.Exit(exitCode)
}

func helperCommand(t *testing.T, nonFatal bool, arguments ...string) execution.Command {
	t.Helper()
	t.Setenv(helperProcessEnvironmentKey, "1")
	return execution.Command{
		Executable: os.Args[0],
		Arguments:  append([]string{"-test.run=TestHelperProcess", "--"}, arguments...),
		NonFatal:   nonFatal,
	}
}

func TestStreamingRunnerEchoesOutputLines(t *testing.T) {
	var echoed bytes.Buffer
	runner := execution.NewStreamingRunner(&echoed, nil)
	command := helperCommand(t, false, "stdout=first line", "stdout=second line")
	command.CaptureOutput = true
	captured, runError := runner.Run(context.Background(), command)
	if runError != nil {
		t.Fatalf("Run error: %v", runError)
	}
	if !strings.Contains(echoed.String(), "first line\n") || !strings.Contains(echoed.String(), "second line\n") {
		t.Fatalf("expected both lines echoed, got %q", echoed.String())
	}
	if !strings.Contains(captured, "second line") {
		t.Fatalf("expected captured output to contain program output, got %q", captured)
	}
}

func TestStreamingRunnerMergesStandardError(t *testing.T) {
	var echoed bytes.Buffer
	runner := execution.NewStreamingRunner(&echoed, nil)
	if _, runError := runner.Run(context.Background(), helperCommand(t, false, "stderr=warning text")); runError != nil {
		t.Fatalf("Run error: %v", runError)
	}
	if !strings.Contains(echoed.String(), "warning text") {
		t.Fatalf("expected stderr line echoed, got %q", echoed.String())
	}
}

func TestStreamingRunnerReportsExitStatus(t *testing.T) {
	runner := execution.NewStreamingRunner(nil, nil)
	_, runError := runner.Run(context.Background(), helperCommand(t, false, "exit=3"))
	if !errors.Is(runError, execution.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", runError)
	}
	var exitError *execution.ExitError
	if !errors.As(runError, &exitError) {
		t.Fatalf("expected *ExitError, got %T", runError)
	}
	if exitError.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", exitError.ExitCode)
	}
}

func TestStreamingRunnerNonFatalFailure(t *testing.T) {
	runner := execution.NewStreamingRunner(nil, nil)
	if _, runError := runner.Run(context.Background(), helperCommand(t, true, "exit=1")); runError != nil {
		t.Fatalf("expected non-fatal failure to be swallowed, got %v", runError)
	}
}

func TestStreamingRunnerMissingExecutable(t *testing.T) {
	runner := execution.NewStreamingRunner(nil, nil)
	_, runError := runner.Run(context.Background(), execution.Command{Executable: "engineci-definitely-missing-binary"})
	if runError == nil {
		t.Fatalf("expected start failure")
	}
	if errors.Is(runError, execution.ErrCommandFailed) {
		t.Fatalf("start failure must not be reported as an exit status: %v", runError)
	}
}

func TestDryRunnerRecordsWithoutExecuting(t *testing.T) {
	var printed bytes.Buffer
	runner := &execution.DryRunner{Output: &printed}
	command := execution.Command{Executable: "python", Arguments: []string{"scripts/build.py", "distclean"}}
	if _, runError := runner.Run(context.Background(), command); runError != nil {
		t.Fatalf("Run error: %v", runError)
	}
	if len(runner.Commands) != 1 {
		t.Fatalf("expected one recorded command, got %d", len(runner.Commands))
	}
	if printed.String() != ">>> python scripts/build.py distclean\n" {
		t.Fatalf("unexpected dry run output %q", printed.String())
	}
}

func TestStreamingRunnerCapturesOnlyOnRequest(t *testing.T) {
	runner := execution.NewStreamingRunner(nil, nil)
	captured, runError := runner.Run(context.Background(), helperCommand(t, false, "stdout=discarded"))
	if runError != nil {
		t.Fatalf("Run error: %v", runError)
	}
	if captured != "" {
		t.Fatalf("expected no captured output, got %q", captured)
	}
}

func TestStreamingRunnerHandlesLinesAboveOneMebibyte(t *testing.T) {
	const lineLength = 2_000_000
	var echoed bytes.Buffer
	runner := execution.NewStreamingRunner(&echoed, nil)
	_, runError := runner.Run(context.Background(), helperCommand(t, false, "long="+strconv.Itoa(lineLength), "stdout=after"))
	if runError != nil {
		t.Fatalf("Run error: %v", runError)
	}
	expected := strings.Repeat("x", lineLength) + "\nafter\n"
	if !strings.Contains(echoed.String(), expected) {
		t.Fatalf("expected %d echoed bytes ending in the trailing line, got %d", len(expected), echoed.Len())
	}
}

func TestExitErrorRedactsSecrets(t *testing.T) {
	runner := execution.NewStreamingRunner(nil, nil)
	command := helperCommand(t, false, "exit=1", "password=hunter2secret")
	command.Secrets = []string{"hunter2secret"}
	_, runError := runner.Run(context.Background(), command)
	if !errors.Is(runError, execution.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", runError)
	}
	if strings.Contains(runError.Error(), "hunter2secret") || !strings.Contains(runError.Error(), "password=***") {
		t.Fatalf("expected redacted error, got %v", runError)
	}
}

func TestCommandStringRedactsSecrets(t *testing.T) {
	testCases := []struct {
		name     string
		command  execution.Command
		expected string
	}{
		{
			name:     "token",
			command:  execution.Command{Executable: "python", Arguments: []string{"scripts/build.py", "release", "--github-token=abc123"}, Secrets: []string{"abc123"}},
			expected: "python scripts/build.py release --github-token=***",
		},
		{
			name:     "empty secret ignored",
			command:  execution.Command{Executable: "python", Arguments: []string{"scripts/build.py", "distclean"}, Secrets: []string{""}},
			expected: "python scripts/build.py distclean",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if displayed := testCase.command.String(); displayed != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, displayed)
			}
		})
	}
}
