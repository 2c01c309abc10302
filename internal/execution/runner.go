// Package execution runs external programs with structured argument lists and
// streams their combined output line by line while waiting for them to exit.
package execution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	nonFatalFailureLogMessage  = "command failed, continuing"
	dryRunLogMessage           = "dry run"
	commandFailedMessageFormat = "%s: exit status %d"
	commandStartFailedFormat   = "start %s: %w"
	commandOutputFailedFormat  = "read output of %s: %w"
	redactedValue              = "***"
)

// ErrCommandFailed reports that an external program exited with a non-zero status.
var ErrCommandFailed = errors.New("command failed")

// ExitError carries the exit status of a failed external program.
type ExitError struct {
	// Command is the redacted display form of the invocation.
	Command  string
	ExitCode int
}

func (exitError *ExitError) Error() string {
	return fmt.Sprintf(commandFailedMessageFormat, exitError.Command, exitError.ExitCode)
}

// Unwrap allows errors.Is(err, ErrCommandFailed).
func (exitError *ExitError) Unwrap() error {
	return ErrCommandFailed
}

// Command describes one external program invocation.
type Command struct {
	Executable string
	Arguments  []string
	// WorkingDirectory defaults to the current process directory when empty.
	WorkingDirectory string
	// NonFatal invocations log their failure and report success to the caller.
	NonFatal bool
	// Stdin is fed to the program when set.
	Stdin io.Reader
	// CaptureOutput makes Run return the program output. Output is only echoed otherwise.
	CaptureOutput bool
	// Secrets are replaced by "***" wherever the command is displayed.
	Secrets []string
}

// String renders the command for diagnostics with secrets redacted. Arguments are never passed through a shell.
func (command Command) String() string {
	return Redact(strings.Join(append([]string{command.Executable}, command.Arguments...), " "), command.Secrets)
}

// Redact replaces every non-empty secret in text with "***".
func Redact(text string, secrets []string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		text = strings.ReplaceAll(text, secret, redactedValue)
	}
	return text
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command, echoing its output, and returns the output when CaptureOutput is set.
	Run(ctx context.Context, command Command) (string, error)
}

// StreamingRunner echoes each output line of the program to Output as it is produced.
type StreamingRunner struct {
	Output io.Writer
	Logger *zap.Logger
}

// NewStreamingRunner constructs a runner writing program output to output.
func NewStreamingRunner(output io.Writer, logger *zap.Logger) *StreamingRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if output == nil {
		output = io.Discard
	}
	return &StreamingRunner{Output: output, Logger: logger}
}

// Run starts the program, pumps its combined stdout and stderr until it exits, and
// returns the captured output. A non-zero exit yields an *ExitError unless the command is NonFatal.
// Output lines have no length limit.
func (runner *StreamingRunner) Run(ctx context.Context, command Command) (string, error) {
	// #nosec G204
	process := exec.CommandContext(ctx, command.Executable, command.Arguments...)
	process.Dir = command.WorkingDirectory
	process.Stdin = command.Stdin

	outputReader, outputWriter := io.Pipe()
	process.Stdout = outputWriter
	process.Stderr = outputWriter

	if startError := process.Start(); startError != nil {
		_ = outputWriter.Close()
		_ = outputReader.Close()
		return "", fmt.Errorf(commandStartFailedFormat, command.Executable, startError)
	}

	var capturedOutput strings.Builder
	var waitError error
	group := new(errgroup.Group)
	group.Go(func() error {
		waitError = process.Wait()
		return outputWriter.Close()
	})
	group.Go(func() error {
		lineReader := bufio.NewReader(outputReader)
		for {
			line, readError := lineReader.ReadString('\n')
			if line != "" {
				trimmedLine := strings.TrimRight(line, "\r\n")
				if command.CaptureOutput {
					capturedOutput.WriteString(trimmedLine)
					capturedOutput.WriteByte('\n')
				}
				if _, writeError := fmt.Fprintln(runner.Output, trimmedLine); writeError != nil {
					_, _ = io.Copy(io.Discard, outputReader)
					return writeError
				}
			}
			if errors.Is(readError, io.EOF) {
				return nil
			}
			if readError != nil {
				_, _ = io.Copy(io.Discard, outputReader)
				return readError
			}
		}
	})
	pumpError := group.Wait()

	if waitError != nil {
		var processExitError *exec.ExitError
		if !errors.As(waitError, &processExitError) {
			return capturedOutput.String(), fmt.Errorf("%s: %w", command.Executable, waitError)
		}
		failure := &ExitError{Command: command.String(), ExitCode: processExitError.ExitCode()}
		if command.NonFatal {
			runner.Logger.Warn(nonFatalFailureLogMessage, zap.String("command", failure.Command), zap.Int("exit_code", failure.ExitCode))
			return capturedOutput.String(), nil
		}
		return capturedOutput.String(), failure
	}
	if pumpError != nil {
		return capturedOutput.String(), fmt.Errorf(commandOutputFailedFormat, command.Executable, pumpError)
	}
	return capturedOutput.String(), nil
}

// DryRunner records and prints commands without executing them.
type DryRunner struct {
	Output   io.Writer
	Logger   *zap.Logger
	Commands []Command
}

// Run prints the redacted command prefixed with ">>>" and reports success.
func (runner *DryRunner) Run(_ context.Context, command Command) (string, error) {
	runner.Commands = append(runner.Commands, command)
	if runner.Logger != nil {
		runner.Logger.Debug(dryRunLogMessage, zap.String("command", command.String()))
	}
	if runner.Output != nil {
		fmt.Fprintln(runner.Output, ">>>", command.String())
	}
	return "", nil
}
