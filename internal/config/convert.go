package config

import (
	"strings"

	"github.com/dwyl/smart-home-security-system/internal/deps"
	"github.com/dwyl/smart-home-security-system/internal/repos"
)

// PackageManagerSpec converts the package manager section for the installer.
func (c Config) PackageManagerSpec() deps.PackageManager {
	return deps.PackageManager{
		Spec:      deps.ToolSpec{Name: c.PackageManager.Name, Probe: c.PackageManager.Probe},
		Install:   c.PackageManager.Install,
		Bootstrap: c.PackageManager.Bootstrap,
	}
}

func (c Config) ToolSpecs() []deps.ToolSpec {
	out := make([]deps.ToolSpec, 0, len(c.Tools))
	for _, tool := range c.Tools {
		out = append(out, deps.ToolSpec{
			Name:    tool.Name,
			Probe:   tool.Probe,
			Package: tool.Package,
			Group:   deps.Group(tool.Group),
		})
	}
	return out
}

func (c Config) Repos() []repos.Repository {
	out := make([]repos.Repository, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		out = append(out, repo.domain())
	}
	return out
}

// TokenRepository finds the repository the token command runs in, by name or dir.
func (c Config) TokenRepository() (repos.Repository, bool) {
	want := strings.TrimSpace(c.Token.Repository)
	if want == "" {
		return repos.Repository{}, false
	}
	for _, repo := range c.Repos() {
		if repo.Name == want || repo.LocalDir() == want {
			return repo, true
		}
	}
	return repos.Repository{}, false
}

func (r Repository) domain() repos.Repository {
	return repos.Repository{
		Name:  strings.TrimSpace(r.Name),
		URL:   strings.TrimSpace(r.URL),
		Dir:   strings.TrimSpace(r.Dir),
		Setup: r.Setup,
	}
}
