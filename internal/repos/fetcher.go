// Package repos clones the external repositories an install provisions.
package repos

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dwyl/smart-home-security-system/internal/logging"
	"github.com/dwyl/smart-home-security-system/internal/tools"
)

var (
	ErrInvalidRepository = errors.New("repos: invalid repository")
	ErrNotACheckout      = errors.New("repos: destination exists but is not a git repository")
)

// Repository is one external project cloned into the working directory.
type Repository struct {
	Name  string
	URL   string
	Dir   string
	Setup []string
}

// LocalDir is the clone destination, derived from the URL when Dir is unset.
func (r Repository) LocalDir() string {
	if dir := strings.TrimSpace(r.Dir); dir != "" {
		return dir
	}
	return DirFromURL(r.URL)
}

// Label is the display name used in progress output.
func (r Repository) Label() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return r.LocalDir()
}

// DirFromURL returns the directory git clone would create for url.
func DirFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimRight(raw, "/")
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		raw = u.Path
	} else if i := strings.LastIndex(raw, ":"); i >= 0 {
		// scp-style git@host:owner/repo.git
		raw = raw[i+1:]
	}
	base := path.Base(raw)
	base = strings.TrimSuffix(base, ".git")
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Status is the per-repository fetch outcome.
type Status struct {
	Repository Repository
	Updated    bool
	Result     tools.Result
	Err        error
}

func (s Status) OK() bool {
	return s.Err == nil
}

// Fetcher clones repositories with git.
type Fetcher struct {
	runner tools.CommandRunner
	mode   tools.OutputMode
	git    string
}

func NewFetcher(runner tools.CommandRunner, mode tools.OutputMode) *Fetcher {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Fetcher{runner: runner, mode: mode, git: "git"}
}

// Fetch clones each repository in order. A failure never stops the next one.
func (f *Fetcher) Fetch(ctx context.Context, repos []Repository) []Status {
	out := make([]Status, 0, len(repos))
	for _, repo := range repos {
		out = append(out, f.FetchOne(ctx, repo))
	}
	return out
}

// FetchOne clones repo, or fast-forwards an existing checkout.
func (f *Fetcher) FetchOne(ctx context.Context, repo Repository) Status {
	status := Status{Repository: repo}
	dest := repo.LocalDir()
	if strings.TrimSpace(repo.URL) == "" || dest == "" {
		status.Err = fmt.Errorf("%w: name=%q url=%q", ErrInvalidRepository, repo.Name, repo.URL)
		return status
	}

	var cmd tools.Command
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		cmd = tools.NewCommand(f.git, "clone", repo.URL, dest)
	} else if err != nil {
		status.Err = fmt.Errorf("repos: stat %s: %w", dest, err)
		return status
	} else {
		if _, err := os.Stat(filepath.Join(dest, ".git")); err != nil {
			status.Err = fmt.Errorf("%w: %s", ErrNotACheckout, dest)
			return status
		}
		status.Updated = true
		cmd = tools.NewCommand(f.git, "-C", dest, "pull", "--ff-only")
	}

	logging.Infof("repos.fetch exec cmd=%s args=%q", cmd.Name, strings.Join(cmd.Args, " "))
	res, err := f.runner.Run(ctx, cmd, f.mode)
	status.Result = res
	if err != nil {
		status.Err = fmt.Errorf("repos: %s: %w", repo.Label(), err)
		return status
	}
	if err := res.Err(cmd); err != nil {
		status.Err = fmt.Errorf("repos: %s: %w", repo.Label(), err)
	}
	return status
}
