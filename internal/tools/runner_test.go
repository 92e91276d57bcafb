package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	requireSh(t)
	res, err := ExecRunner{}.Run(context.Background(), NewCommand("sh", "-c", "echo out; echo err 1>&2"), OutputCaptured)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("unexpected exit: %d", res.ExitCode)
	}
	if strings.TrimSpace(string(res.Stdout)) != "out" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
	if strings.TrimSpace(string(res.Stderr)) != "err" {
		t.Fatalf("unexpected stderr: %q", res.Stderr)
	}
}

func TestExecRunnerNonZeroExitIsNotAnError(t *testing.T) {
	requireSh(t)
	cmd := NewCommand("sh", "-c", "echo broken 1>&2; exit 3")
	res, err := ExecRunner{}.Run(context.Background(), cmd, OutputCaptured)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("unexpected exit: %d", res.ExitCode)
	}
	if err := res.Err(cmd); !errors.Is(err, ErrProcessFailed) {
		t.Fatalf("expected ErrProcessFailed, got %v", err)
	}
	if !strings.Contains(res.Err(cmd).Error(), "broken") {
		t.Fatalf("expected stderr in failure: %v", res.Err(cmd))
	}
}

func TestExecRunnerStreamedLeavesBuffersEmpty(t *testing.T) {
	requireSh(t)
	var stdout bytes.Buffer
	runner := ExecRunner{Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: &stdout}
	res, err := runner.Run(context.Background(), NewCommand("sh", "-c", "echo live"), OutputStreamed)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Stdout) != 0 || len(res.Stderr) != 0 {
		t.Fatalf("expected empty buffers, got %q %q", res.Stdout, res.Stderr)
	}
	if strings.TrimSpace(stdout.String()) != "live" {
		t.Fatalf("unexpected streamed output: %q", stdout.String())
	}
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), NewCommand("homectl-definitely-missing-binary", "--version"), OutputCaptured)
	if !errors.Is(err, ErrProcessNotFound) {
		t.Fatalf("expected ErrProcessNotFound, got %v", err)
	}
	if res.ExitCode != 127 {
		t.Fatalf("unexpected exit: %d", res.ExitCode)
	}

	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := (ExecRunner{}).Run(context.Background(), NewCommand(missing), OutputCaptured); !errors.Is(err, ErrProcessNotFound) {
		t.Fatalf("expected ErrProcessNotFound for path, got %v", err)
	}
}

func TestExecRunnerAppendsEnv(t *testing.T) {
	requireSh(t)
	cmd := NewCommand("sh", "-c", "printf %s \"$HOMECTL_TEST_VALUE\"")
	cmd.Env = []string{"HOMECTL_TEST_VALUE=secret"}
	res, err := ExecRunner{}.Run(context.Background(), cmd, OutputCaptured)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(res.Stdout) != "secret" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}

func TestModeFor(t *testing.T) {
	if ModeFor(true) != OutputStreamed {
		t.Fatalf("verbose should stream")
	}
	if ModeFor(false) != OutputCaptured {
		t.Fatalf("quiet should capture")
	}
}

func TestWithinDirRestoresOnSuccessErrorAndPanic(t *testing.T) {
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	dir := t.TempDir()
	wantDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}

	err = WithinDir(dir, func() error {
		wd, _ := os.Getwd()
		if got, _ := filepath.EvalSymlinks(wd); got != wantDir {
			t.Fatalf("expected cwd %q, got %q", wantDir, got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("within dir: %v", err)
	}
	assertCwd(t, start)

	boom := errors.New("boom")
	if err := WithinDir(dir, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	assertCwd(t, start)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = WithinDir(dir, func() error { panic("interrupted") })
	}()
	assertCwd(t, start)
}

func TestWithinDirMissingDirectory(t *testing.T) {
	start, _ := os.Getwd()
	called := false
	err := WithinDir(filepath.Join(t.TempDir(), "absent"), func() error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatalf("expected error for missing dir")
	}
	if called {
		t.Fatalf("fn must not run when dir is missing")
	}
	assertCwd(t, start)
}

func assertCwd(t *testing.T, want string) {
	t.Helper()
	got, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if got != want {
		t.Fatalf("cwd not restored: got %q want %q", got, want)
	}
}
