// Package exec runs scanner helper commands, capturing their output and
// mapping failure modes to conventional exit codes.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// DefaultWorkDir is where helper commands run unless a directory is given.
const DefaultWorkDir = "/tmp"

// Result holds a finished command's output, duration, and exit code.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// Run executes a command under the context, capturing stdout and stderr.
// Timeouts map to exit code 124 and a missing binary to 127, so callers
// can branch on Result.ExitCode without unwrapping the error.
func Run(ctx context.Context, name string, args []string, dir string) (Result, error) {
	if dir == "" {
		dir = DefaultWorkDir
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			result.ExitCode = 124
		case errors.Is(err, exec.ErrNotFound):
			result.ExitCode = 127
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			result.ExitCode = 1
		}
	}
	return result, err
}

// RunCommand splits a flat command line on spaces and runs it. Scanner
// configurations carry commands as single strings; arguments therefore
// cannot contain spaces.
func RunCommand(ctx context.Context, command, dir string) (Result, error) {
	parts := strings.Split(command, " ")
	return Run(ctx, parts[0], parts[1:], dir)
}
