// Package prompt owns interactive operator questions.
//
// Workflow packages depend on the Operator interface only, so tests can script
// answers without a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrNoInput = errors.New("prompt: no input")

// Operator is the human driving an install.
type Operator interface {
	// Confirm asks a yes/no question; anything but an explicit yes is a refusal.
	Confirm(question string) (bool, error)
	// PromptSecret reads one line without echo when attached to a terminal.
	PromptSecret(message string) (string, error)
}

// Terminal asks questions on a reader/writer pair, normally stdin/stdout.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	hasTTY bool
}

// NewTerminal binds to the process's stdin and stdout.
func NewTerminal() *Terminal {
	fd := int(os.Stdin.Fd())
	return &Terminal{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     fd,
		hasTTY: term.IsTerminal(fd),
	}
}

// NewStream binds to arbitrary streams; secrets are read as plain lines.
func NewStream(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, fd: -1}
}

func (t *Terminal) Confirm(question string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N] ", question)
	line, err := t.readLine()
	if errors.Is(err, ErrNoInput) {
		fmt.Fprintln(t.out)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) PromptSecret(message string) (string, error) {
	fmt.Fprint(t.out, message)
	if t.hasTTY {
		raw, err := term.ReadPassword(t.fd)
		fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("prompt: read secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrNoInput
			}
			return line, nil
		}
		return "", fmt.Errorf("prompt: read: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Scripted replays fixed answers; it records every question asked.
type Scripted struct {
	Confirms []bool
	Secrets  []string
	Asked    []string
}

func (s *Scripted) Confirm(question string) (bool, error) {
	s.Asked = append(s.Asked, question)
	if len(s.Confirms) == 0 {
		return false, nil
	}
	next := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return next, nil
}

func (s *Scripted) PromptSecret(message string) (string, error) {
	s.Asked = append(s.Asked, message)
	if len(s.Secrets) == 0 {
		return "", ErrNoInput
	}
	next := s.Secrets[0]
	s.Secrets = s.Secrets[1:]
	return next, nil
}
