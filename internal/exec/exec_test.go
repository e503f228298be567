package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutput(t *testing.T) {
	res, err := Run(context.Background(), "echo", []string{"hello"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("expected the command output captured, got %q", res.Stdout)
	}
}

func TestRunReportsExitCode(t *testing.T) {
	res, err := Run(context.Background(), "sh", []string{"-c", "exit 3"}, "")
	if err == nil {
		t.Fatalf("expected an error for a failing command")
	}
	if res.ExitCode != 3 {
		t.Errorf("expected the command's exit code, got %d", res.ExitCode)
	}
}

func TestRunMissingBinary(t *testing.T) {
	res, _ := Run(context.Background(), "definitely-not-a-command-9f2c", nil, "")
	if res.ExitCode != 127 {
		t.Errorf("expected exit code 127 for a missing binary, got %d", res.ExitCode)
	}
}

func TestRunTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, _ := Run(ctx, "sleep", []string{"2"}, "")
	if res.ExitCode == 127 {
		t.Skip("sleep not available")
	}
	if res.ExitCode != 124 {
		t.Errorf("expected exit code 124 for a timeout, got %d", res.ExitCode)
	}
}

func TestRunCommandSplitsOnSpaces(t *testing.T) {
	res, err := RunCommand(context.Background(), "echo scan done", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "scan done" {
		t.Errorf("expected the split arguments passed through, got %q", res.Stdout)
	}
}
