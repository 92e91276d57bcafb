package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dwyl/smart-home-security-system/internal/deps"
)

const DefaultPath = "homectl.toml"

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Verbose          bool           `toml:"verbose" yaml:"verbose"`
	EnvFile          string         `toml:"env_file" yaml:"env_file"`
	CredentialKey    string         `toml:"credential_key" yaml:"credential_key"`
	GuidanceURL      string         `toml:"guidance_url" yaml:"guidance_url"`
	PackageManager   PackageManager `toml:"package_manager" yaml:"package_manager"`
	Tools            []Tool         `toml:"tools" yaml:"tools"`
	FirmwareCommands [][]string     `toml:"firmware_commands" yaml:"firmware_commands"`
	Repositories     []Repository   `toml:"repositories" yaml:"repositories"`
	Token            Token          `toml:"token" yaml:"token"`
	Summary          string         `toml:"summary" yaml:"summary"`
}

type PackageManager struct {
	Name      string   `toml:"name" yaml:"name"`
	Probe     []string `toml:"probe" yaml:"probe"`
	Install   []string `toml:"install" yaml:"install"`
	Bootstrap []string `toml:"bootstrap" yaml:"bootstrap"`
}

type Tool struct {
	Name    string   `toml:"name" yaml:"name"`
	Probe   []string `toml:"probe" yaml:"probe"`
	Package string   `toml:"package" yaml:"package"`
	Group   string   `toml:"group" yaml:"group"`
}

type Repository struct {
	Name  string   `toml:"name" yaml:"name"`
	URL   string   `toml:"url" yaml:"url"`
	Dir   string   `toml:"dir" yaml:"dir"`
	Setup []string `toml:"setup" yaml:"setup"`
}

type Token struct {
	Repository string   `toml:"repository" yaml:"repository"`
	Command    []string `toml:"command" yaml:"command"`
}

// Load reads path over the defaults. TOML unless the extension says YAML.
// Only keys present in the file replace a default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var raw Config
	var defined func(keys ...string) bool
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		defined = yamlDefined(tree)
	default:
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
		}
		defined = meta.IsDefined
	}

	cfg := Default()
	overlay(&cfg, raw, defined)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlay(cfg *Config, raw Config, defined func(keys ...string) bool) {
	if defined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if defined("env_file") {
		cfg.EnvFile = strings.TrimSpace(raw.EnvFile)
	}
	if defined("credential_key") {
		cfg.CredentialKey = strings.TrimSpace(raw.CredentialKey)
	}
	if defined("guidance_url") {
		cfg.GuidanceURL = strings.TrimSpace(raw.GuidanceURL)
	}
	if defined("package_manager", "name") {
		cfg.PackageManager.Name = strings.TrimSpace(raw.PackageManager.Name)
	}
	if defined("package_manager", "probe") {
		cfg.PackageManager.Probe = raw.PackageManager.Probe
	}
	if defined("package_manager", "install") {
		cfg.PackageManager.Install = raw.PackageManager.Install
	}
	if defined("package_manager", "bootstrap") {
		cfg.PackageManager.Bootstrap = raw.PackageManager.Bootstrap
	}
	if defined("tools") {
		cfg.Tools = raw.Tools
	}
	if defined("firmware_commands") {
		cfg.FirmwareCommands = raw.FirmwareCommands
	}
	if defined("repositories") {
		cfg.Repositories = raw.Repositories
	}
	if defined("token", "repository") {
		cfg.Token.Repository = strings.TrimSpace(raw.Token.Repository)
	}
	if defined("token", "command") {
		cfg.Token.Command = raw.Token.Command
	}
	if defined("summary") {
		cfg.Summary = raw.Summary
	}
}

func yamlDefined(tree map[string]any) func(keys ...string) bool {
	return func(keys ...string) bool {
		node := any(tree)
		for _, key := range keys {
			m, ok := node.(map[string]any)
			if !ok {
				return false
			}
			node, ok = m[key]
			if !ok {
				return false
			}
		}
		return true
	}
}

// LoadOptional is Load, except a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.EnvFile) == "" {
		return fmt.Errorf("%w: env_file is required", ErrInvalidConfig)
	}
	if key := strings.TrimSpace(c.CredentialKey); key == "" || strings.ContainsAny(key, "= \t") {
		return fmt.Errorf("%w: credential_key=%q", ErrInvalidConfig, c.CredentialKey)
	}
	if strings.TrimSpace(c.PackageManager.Name) == "" {
		return fmt.Errorf("%w: package_manager.name is required", ErrInvalidConfig)
	}
	if len(c.PackageManager.Install) == 0 {
		return fmt.Errorf("%w: package_manager.install is required", ErrInvalidConfig)
	}
	for i, tool := range c.Tools {
		if strings.TrimSpace(tool.Name) == "" {
			return fmt.Errorf("%w: tools[%d] missing name", ErrInvalidConfig, i)
		}
		switch deps.Group(tool.Group) {
		case "", deps.GroupCore, deps.GroupFirmware:
		default:
			return fmt.Errorf("%w: tools[%d] unknown group %q", ErrInvalidConfig, i, tool.Group)
		}
	}
	if len(c.Repositories) == 0 {
		return fmt.Errorf("%w: at least one repository is required", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Repositories))
	for i, repo := range c.Repositories {
		if strings.TrimSpace(repo.URL) == "" {
			return fmt.Errorf("%w: repositories[%d] missing url", ErrInvalidConfig, i)
		}
		dir := repo.domain().LocalDir()
		if dir == "" || filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			return fmt.Errorf("%w: repositories[%d] dir %q must be a relative path inside the workspace", ErrInvalidConfig, i, dir)
		}
		if _, dup := seen[dir]; dup {
			return fmt.Errorf("%w: repositories[%d] duplicate dir %q", ErrInvalidConfig, i, dir)
		}
		seen[dir] = struct{}{}
	}
	if len(c.Token.Command) == 0 {
		return fmt.Errorf("%w: token.command is required", ErrInvalidConfig)
	}
	if _, ok := c.TokenRepository(); !ok {
		return fmt.Errorf("%w: token.repository %q matches no repository", ErrInvalidConfig, c.Token.Repository)
	}
	return nil
}
