// Package gitexec runs the external git executable with bounded timeouts and
// captured output streams. The Executor interface is the seam that lets tool
// handlers be tested against a mock without spawning processes.
package gitexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Spec describes a single command invocation: the full argument vector
// (Args[0] is the program name), the working directory, and the time budget.
// A Spec is built fresh per call and consumed exactly once.
type Spec struct {
	Args    []string
	Dir     string
	Timeout time.Duration
}

// CommandString renders the argument vector for diagnostics. The vector is
// never passed through a shell; this string is informational only.
func (s Spec) CommandString() string {
	return strings.Join(s.Args, " ")
}

// Outcome is the result of running a Spec. Streams are trimmed of leading and
// trailing whitespace. When TimedOut is set the process was killed and no
// partial output is reported.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Executor runs a command and reports its outcome. Implementations must
// spawn at most one process per call and must not retry.
type Executor interface {
	Run(ctx context.Context, logger *logrus.Logger, spec Spec) (Outcome, error)
}

// OSExecutor is the production Executor backed by os/exec.
type OSExecutor struct{}

// NewOSExecutor constructs an Executor that spawns real processes.
func NewOSExecutor() *OSExecutor {
	return &OSExecutor{}
}

// Run executes the command described by spec. A nonzero exit is a normal
// outcome, not a Go error; errors are reserved for failures to launch or
// await the process. Exceeding the timeout terminates the child and is
// reported via Outcome.TimedOut.
func (e *OSExecutor) Run(ctx context.Context, logger *logrus.Logger, spec Spec) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	executionID := uuid.New().String()
	logger.WithFields(logrus.Fields{
		"execution_id": executionID,
		"args":         spec.Args,
		"dir":          spec.Dir,
		"timeout":      spec.Timeout.String(),
	}).Debug("Running command")

	cmd := exec.CommandContext(ctx, spec.Args[0], spec.Args[1:]...)
	cmd.Dir = spec.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		logger.WithField("execution_id", executionID).Warn("Command timed out")
		return Outcome{TimedOut: true}, nil
	}

	if runErr != nil {
		exitErr := &exec.ExitError{}
		if errors.As(runErr, &exitErr) {
			outcome := Outcome{
				ExitCode: exitErr.ExitCode(),
				Stdout:   strings.TrimSpace(stdout.String()),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
			logger.WithFields(logrus.Fields{
				"execution_id": executionID,
				"exit_code":    outcome.ExitCode,
			}).Debug("Command exited nonzero")
			return outcome, nil
		}
		// Launch failure (e.g. executable not found); no process output exists.
		return Outcome{}, runErr
	}

	return Outcome{
		ExitCode: 0,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
	}, nil
}
