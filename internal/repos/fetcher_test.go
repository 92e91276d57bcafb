package repos

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dwyl/smart-home-security-system/internal/tools"
)

type repoFakeRunner struct {
	commands []tools.Command
	exits    map[string]int
}

func (r *repoFakeRunner) Run(_ context.Context, cmd tools.Command, _ tools.OutputMode) (tools.Result, error) {
	r.commands = append(r.commands, cmd)
	return tools.Result{ExitCode: r.exits[cmd.String()]}, nil
}

func TestDirFromURL(t *testing.T) {
	cases := map[string]string{
		"https://github.com/dwyl/smart-home-auth-server.git": "smart-home-auth-server",
		"https://github.com/dwyl/smart-home-firmware":        "smart-home-firmware",
		"https://github.com/dwyl/smart-home-firmware/":       "smart-home-firmware",
		"git@github.com:dwyl/smart-home-firmware.git":        "smart-home-firmware",
		"":                                                   "",
	}
	for in, want := range cases {
		if got := DirFromURL(in); got != want {
			t.Fatalf("DirFromURL(%q) = %q want %q", in, got, want)
		}
	}
}

func TestFetchContinuesAfterFailure(t *testing.T) {
	chdirTemp(t)
	runner := &repoFakeRunner{exits: map[string]int{
		"git clone https://github.com/dwyl/smart-home-auth-server.git smart-home-auth-server": 128,
	}}
	statuses := NewFetcher(runner, tools.OutputCaptured).Fetch(context.Background(), []Repository{
		{Name: "hub server", URL: "https://github.com/dwyl/smart-home-auth-server.git"},
		{Name: "firmware", URL: "https://github.com/dwyl/smart-home-firmware.git"},
	})

	if len(statuses) != 2 {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
	if statuses[0].OK() || !errors.Is(statuses[0].Err, tools.ErrProcessFailed) {
		t.Fatalf("expected first clone failure, got %v", statuses[0].Err)
	}
	if !statuses[1].OK() {
		t.Fatalf("expected second clone ok, got %v", statuses[1].Err)
	}
	if len(runner.commands) != 2 {
		t.Fatalf("expected both clones attempted, got %+v", runner.commands)
	}
	if got := runner.commands[1].String(); got != "git clone https://github.com/dwyl/smart-home-firmware.git smart-home-firmware" {
		t.Fatalf("unexpected clone command: %q", got)
	}
}

func TestFetchPullsExistingCheckout(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.MkdirAll(filepath.Join(dir, "smart-home-firmware", ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	runner := &repoFakeRunner{}
	status := NewFetcher(runner, tools.OutputCaptured).FetchOne(context.Background(), Repository{
		URL: "https://github.com/dwyl/smart-home-firmware.git",
	})
	if !status.OK() || !status.Updated {
		t.Fatalf("expected pull update, got %+v", status)
	}
	if got := runner.commands[0].String(); got != "git -C smart-home-firmware pull --ff-only" {
		t.Fatalf("unexpected command: %q", got)
	}
}

func TestFetchRejectsNonGitDirectory(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.MkdirAll(filepath.Join(dir, "smart-home-firmware"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	runner := &repoFakeRunner{}
	status := NewFetcher(runner, tools.OutputCaptured).FetchOne(context.Background(), Repository{
		URL: "https://github.com/dwyl/smart-home-firmware.git",
	})
	if !errors.Is(status.Err, ErrNotACheckout) {
		t.Fatalf("expected ErrNotACheckout, got %v", status.Err)
	}
	if len(runner.commands) != 0 {
		t.Fatalf("expected no git commands, got %+v", runner.commands)
	}
}

func TestFetchRejectsMissingURL(t *testing.T) {
	status := NewFetcher(&repoFakeRunner{}, tools.OutputCaptured).FetchOne(context.Background(), Repository{Name: "x"})
	if !errors.Is(status.Err, ErrInvalidRepository) {
		t.Fatalf("expected ErrInvalidRepository, got %v", status.Err)
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}
