package zoomvideo

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	res, err := ExecRunner{}.Run(context.Background(), "sh", []string{"-c", "echo hi; echo oops >&2; exit 3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "hi" || strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("unexpected output: %+v", res)
	}

	res, err = ExecRunner{}.Run(context.Background(), "sh", []string{"-c", "exit 0"})
	if err != nil || res.ExitCode != 0 {
		t.Errorf("expected clean exit, got %+v, %v", res, err)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "definitely-not-an-encoder-binary", nil)
	if err == nil {
		t.Fatal("expected start error")
	}
}

func TestExecRunnerCancelled(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := ExecRunner{}.Run(ctx, "sleep", []string{"5"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}
