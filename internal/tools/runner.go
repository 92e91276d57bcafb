package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

var (
	ErrProcessNotFound = errors.New("tools: process not found")
	ErrProcessFailed   = errors.New("tools: process failed")
)

// exitNotFound mirrors the shell's exit status for a missing executable.
const exitNotFound = 127

// OutputMode selects how a child process's output is handled.
type OutputMode int

const (
	// OutputCaptured buffers stdout and stderr and returns them in the Result.
	OutputCaptured OutputMode = iota
	// OutputStreamed passes the terminal through to the child; buffers stay empty.
	OutputStreamed
)

func (m OutputMode) String() string {
	switch m {
	case OutputStreamed:
		return "streamed"
	default:
		return "captured"
	}
}

// ModeFor maps the verbose toggle onto an output mode.
func ModeFor(verbose bool) OutputMode {
	if verbose {
		return OutputStreamed
	}
	return OutputCaptured
}

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the inherited environment.
	Env []string
}

// NewCommand builds a Command from an argv-style slice.
func NewCommand(argv ...string) Command {
	if len(argv) == 0 {
		return Command{}
	}
	return Command{Name: argv[0], Args: append([]string(nil), argv[1:]...)}
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the exit status plus whatever output was captured.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Succeeded reports a zero exit status.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Err converts a non-zero exit into ErrProcessFailed with diagnostic context.
func (r Result) Err(cmd Command) error {
	if r.Succeeded() {
		return nil
	}
	return fmt.Errorf(
		"%w: cmd=%s args=%q exit=%d stdout=%q stderr=%q",
		ErrProcessFailed,
		cmd.Name,
		strings.Join(cmd.Args, " "),
		r.ExitCode,
		strings.TrimSpace(string(r.Stdout)),
		strings.TrimSpace(string(r.Stderr)),
	)
}

// CommandRunner abstracts external process execution for the installer packages.
//
// Run never returns an error for a non-zero exit; callers inspect Result.ExitCode.
// An executable that cannot be located yields ErrProcessNotFound.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command, mode OutputMode) (Result, error)
}

// ExecRunner executes commands on the local host.
// Nil terminal streams default to the process's own stdin, stdout and stderr.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, c Command, mode OutputMode) (Result, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Result{ExitCode: exitNotFound}, fmt.Errorf("%w: empty command", ErrProcessNotFound)
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	switch mode {
	case OutputStreamed:
		cmd.Stdin = r.stdin()
		cmd.Stdout = r.stdout()
		cmd.Stderr = r.stderr()
	default:
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			// killed by a signal, typically the run context being cancelled
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.ExitCode = 1
		}
		return res, nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
		res.ExitCode = exitNotFound
		return res, fmt.Errorf("%w: %s: %v", ErrProcessNotFound, c.Name, err)
	}
	res.ExitCode = 1
	return res, err
}

func (r ExecRunner) stdin() io.Reader {
	if r.Stdin != nil {
		return r.Stdin
	}
	return os.Stdin
}

func (r ExecRunner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r ExecRunner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
