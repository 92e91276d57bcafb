package deps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwyl/smart-home-security-system/internal/logging"
	"github.com/dwyl/smart-home-security-system/internal/prompt"
	"github.com/dwyl/smart-home-security-system/internal/tools"
)

var (
	ErrConsentRefused         = errors.New("deps: consent refused")
	ErrPackageManagerMissing  = errors.New("deps: package manager not installed")
	ErrInstallerMisconfigured = errors.New("deps: invalid installer config")
)

var DefaultBrewBootstrapCommand = []string{
	"/bin/bash",
	"-c",
	`/bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"`,
}

// PackageManager describes how to detect, bootstrap and drive the host package manager.
type PackageManager struct {
	Spec      ToolSpec
	Install   []string
	Bootstrap []string
}

// InstallerConfig wires the installer to its collaborators.
type InstallerConfig struct {
	PackageManager   PackageManager
	FirmwareCommands [][]string
	Runner           tools.CommandRunner
	Operator         prompt.Operator
	Mode             tools.OutputMode
}

// InstallResult summarizes one Ensure pass. Warnings are non-fatal failures.
type InstallResult struct {
	Installed        []string
	Warnings         []string
	Bootstrapped     bool
	FirmwareDeclined bool
}

func (r *InstallResult) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.Warnf("deps.install %s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// Installer drives the package manager to install missing tools.
type Installer struct {
	pm       PackageManager
	firmware [][]string
	runner   tools.CommandRunner
	operator prompt.Operator
	prober   *Prober
	mode     tools.OutputMode
}

func NewInstaller(cfg InstallerConfig) (*Installer, error) {
	if strings.TrimSpace(cfg.PackageManager.Spec.Name) == "" {
		return nil, fmt.Errorf("%w: missing package manager name", ErrInstallerMisconfigured)
	}
	if len(cfg.PackageManager.Install) == 0 {
		return nil, fmt.Errorf("%w: missing package manager install command", ErrInstallerMisconfigured)
	}
	if cfg.Operator == nil {
		return nil, fmt.Errorf("%w: missing operator", ErrInstallerMisconfigured)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	pm := cfg.PackageManager
	if len(pm.Bootstrap) == 0 {
		pm.Bootstrap = DefaultBrewBootstrapCommand
	}
	return &Installer{
		pm:       pm,
		firmware: cfg.FirmwareCommands,
		runner:   runner,
		operator: cfg.Operator,
		prober:   NewProber(runner),
		mode:     cfg.Mode,
	}, nil
}

// Ensure installs whatever the report lists as missing.
//
// Refusing the package manager bootstrap returns ErrConsentRefused before any
// install is attempted. A cancelled ctx stops before the next command or
// question. Every other failure is recorded as a warning.
func (i *Installer) Ensure(ctx context.Context, report Report) (InstallResult, error) {
	var result InstallResult
	if err := interrupted(ctx); err != nil {
		return result, err
	}

	pmReady := report.PackageManagerAvailable()
	if !pmReady {
		ok, err := i.bootstrap(ctx, &result)
		if err != nil {
			return result, err
		}
		pmReady = ok
	}

	missing := report.Missing()
	if !pmReady {
		if len(missing) > 0 || len(report.MissingFirmware()) > 0 {
			result.warnf("skipping installs: %s unavailable", i.pm.Spec.Name)
		}
		return result, nil
	}

	for _, spec := range missing {
		if err := interrupted(ctx); err != nil {
			return result, err
		}
		i.installPackage(ctx, spec, &result)
	}

	firmware := report.MissingFirmware()
	if len(firmware) == 0 {
		return result, nil
	}
	if err := interrupted(ctx); err != nil {
		return result, err
	}
	names := make([]string, 0, len(firmware))
	for _, spec := range firmware {
		names = append(names, spec.Name)
	}
	ok, err := i.operator.Confirm(fmt.Sprintf("Install firmware build prerequisites (%s)?", strings.Join(names, ", ")))
	if err != nil {
		return result, fmt.Errorf("deps: firmware consent: %w", err)
	}
	if !ok {
		result.FirmwareDeclined = true
		result.warnf("firmware prerequisites declined; firmware builds may fail")
		return result, nil
	}
	for _, spec := range firmware {
		i.installPackage(ctx, spec, &result)
	}
	for _, argv := range i.firmware {
		cmd := tools.NewCommand(argv...)
		if err := i.run(ctx, cmd); err != nil {
			result.warnf("firmware setup failed: %v", err)
		}
	}
	return result, nil
}

func (i *Installer) bootstrap(ctx context.Context, result *InstallResult) (bool, error) {
	name := i.pm.Spec.Name
	ok, err := i.operator.Confirm(fmt.Sprintf("%s is required to install dependencies but was not found. Install it now?", name))
	if err != nil {
		return false, fmt.Errorf("deps: %s consent: %w", name, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: %s bootstrap declined", ErrConsentRefused, name)
	}

	cmd := tools.NewCommand(i.pm.Bootstrap...)
	err = i.run(ctx, cmd)
	if cerr := interrupted(ctx); cerr != nil {
		return false, cerr
	}
	if err != nil {
		result.warnf("%s bootstrap failed: %v", name, err)
		return false, nil
	}
	after := i.prober.Probe(ctx, i.pm.Spec, nil)
	if !after.PackageManagerAvailable() {
		result.warnf("%v: bootstrap completed but %s is still unavailable", ErrPackageManagerMissing, name)
		return false, nil
	}
	result.Bootstrapped = true
	return true, nil
}

func (i *Installer) installPackage(ctx context.Context, spec ToolSpec, result *InstallResult) {
	pkg := strings.TrimSpace(spec.Package)
	if pkg == "" {
		pkg = spec.Name
	}
	argv := append(append([]string(nil), i.pm.Install...), pkg)
	if err := i.run(ctx, tools.NewCommand(argv...)); err != nil {
		result.warnf("install %s failed: %v", spec.Name, err)
		return
	}
	result.Installed = append(result.Installed, spec.Name)
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("deps: interrupted: %w", err)
	}
	return nil
}

func (i *Installer) run(ctx context.Context, cmd tools.Command) error {
	logging.Infof("deps.install exec cmd=%s args=%q", cmd.Name, strings.Join(cmd.Args, " "))
	res, err := i.runner.Run(ctx, cmd, i.mode)
	if err != nil {
		return err
	}
	return res.Err(cmd)
}
