// Package workflow sequences an install, a token refresh, or a teardown.
//
// Ownership boundary:
// - install state machine and its branch points
// - per-repository setup inside a scoped working directory
// - run outcomes (per-step status plus captured output)
//
// Steps run strictly in order. Only a refused package manager bootstrap and a
// credential failure stop an install; everything else is recorded and skipped past.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dwyl/smart-home-security-system/internal/config"
	"github.com/dwyl/smart-home-security-system/internal/credentials"
	"github.com/dwyl/smart-home-security-system/internal/deps"
	"github.com/dwyl/smart-home-security-system/internal/prompt"
	"github.com/dwyl/smart-home-security-system/internal/repos"
	"github.com/dwyl/smart-home-security-system/internal/tools"
)

var ErrMisconfigured = errors.New("workflow: invalid setup")

// Options supplies the collaborators a Workflow drives.
type Options struct {
	Runner   tools.CommandRunner
	Operator prompt.Operator
	Out      io.Writer
}

type Workflow struct {
	cfg       config.Config
	runner    tools.CommandRunner
	out       io.Writer
	mode      tools.OutputMode
	store     *credentials.Store
	prober    *deps.Prober
	installer *deps.Installer
	fetcher   *repos.Fetcher
	tokenRepo repos.Repository
}

func New(cfg config.Config, opts Options) (*Workflow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Operator == nil {
		return nil, fmt.Errorf("%w: missing operator", ErrMisconfigured)
	}
	runner := opts.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	mode := tools.ModeFor(cfg.Verbose)

	store, err := credentials.NewStore(credentials.StoreConfig{
		Path:        cfg.EnvFile,
		Key:         cfg.CredentialKey,
		GuidanceURL: cfg.GuidanceURL,
		Operator:    opts.Operator,
		Out:         out,
	})
	if err != nil {
		return nil, err
	}
	installer, err := deps.NewInstaller(deps.InstallerConfig{
		PackageManager:   cfg.PackageManagerSpec(),
		FirmwareCommands: cfg.FirmwareCommands,
		Runner:           runner,
		Operator:         opts.Operator,
		Mode:             mode,
	})
	if err != nil {
		return nil, err
	}
	tokenRepo, _ := cfg.TokenRepository()

	return &Workflow{
		cfg:       cfg,
		runner:    runner,
		out:       out,
		mode:      mode,
		store:     store,
		prober:    deps.NewProber(runner),
		installer: installer,
		fetcher:   repos.NewFetcher(runner, mode),
		tokenRepo: tokenRepo,
	}, nil
}

// Store exposes the credential store, e.g. to seed the slot from a previous run.
func (w *Workflow) Store() *credentials.Store {
	return w.store
}

// Install runs fetch, dependency check/install, credential resolution,
// per-repository setup, and token generation, then prints the summary.
//
// slot is the credential already known to the caller; empty means ask.
// A cancelled ctx aborts at the next step or repository.
func (w *Workflow) Install(ctx context.Context, slot string) (*Outcome, error) {
	o := newOutcome()
	o.log.Info().Msg("workflow.install start")

	o.enter(StateFetch)
	for _, repo := range w.cfg.Repos() {
		if err := interrupted(ctx, o); err != nil {
			return o, err
		}
		w.progress("Downloading %s...", repo.Label())
		status := w.fetcher.FetchOne(ctx, repo)
		if !status.OK() {
			w.progress("FAILED\n")
			o.warn(repo.LocalDir(), status.Err, status.Result.Stdout, status.Result.Stderr)
			continue
		}
		w.progress("OK\n")
		o.ok(repo.LocalDir(), "updated=%t", status.Updated)
	}

	if err := interrupted(ctx, o); err != nil {
		return o, err
	}
	o.enter(StateDependencyCheck)
	w.progress("Checking dependencies...")
	report := w.prober.Probe(ctx, w.cfg.PackageManagerSpec().Spec, w.cfg.ToolSpecs())
	if err := interrupted(ctx, o); err != nil {
		w.progress("\n")
		return o, err
	}
	missing := missingNames(report)
	if len(missing) == 0 {
		w.progress("OK\n")
		o.ok("", "all dependencies present")
	} else {
		w.progress("missing %s\n", strings.Join(missing, ", "))
		o.ok("", "missing=%s", strings.Join(missing, ","))
	}

	if report.AnyMissing() {
		o.enter(StateDependencyInstall)
		result, err := w.installer.Ensure(ctx, report)
		for _, msg := range result.Warnings {
			o.warn("", errors.New(msg), nil, nil)
		}
		if err != nil {
			o.abort(err)
			return o, fmt.Errorf("workflow: %s: %w", StateDependencyInstall, err)
		}
		if len(result.Installed) > 0 {
			o.ok("", "installed=%s", strings.Join(result.Installed, ","))
		}
	}

	if err := interrupted(ctx, o); err != nil {
		return o, err
	}
	o.enter(StateCredentialResolve)
	secret, err := w.store.Resolve(slot)
	if err != nil {
		o.abort(err)
		return o, fmt.Errorf("workflow: %s: %w", StateCredentialResolve, err)
	}
	o.ok(w.store.Key(), "persisted to %s", w.store.Path())
	env := w.childEnv(secret)

	o.enter(StateSetupRepos)
	for _, repo := range w.cfg.Repos() {
		if err := interrupted(ctx, o); err != nil {
			return o, err
		}
		w.setupRepo(ctx, o, repo, env)
	}

	if err := interrupted(ctx, o); err != nil {
		return o, err
	}
	w.generateToken(ctx, o, env)
	if err := interrupted(ctx, o); err != nil {
		return o, err
	}

	o.enter(StateDone)
	fmt.Fprint(w.out, w.summary())
	o.ok("", "install complete")
	return o, nil
}

// interrupted aborts o once ctx is done.
func interrupted(ctx context.Context, o *Outcome) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	state := o.State
	o.abort(err)
	return fmt.Errorf("workflow: %s: interrupted: %w", state, err)
}

// GenerateToken runs only the token step. It never fails the process; a
// failing generator is recorded as a warning.
func (w *Workflow) GenerateToken(ctx context.Context, slot string) *Outcome {
	o := newOutcome()
	w.generateToken(ctx, o, w.childEnv(strings.TrimSpace(slot)))
	o.enter(StateDone)
	return o
}

func (w *Workflow) setupRepo(ctx context.Context, o *Outcome, repo repos.Repository, env []string) {
	dir := repo.LocalDir()
	if len(repo.Setup) == 0 {
		o.skip(dir, "no setup command")
		return
	}
	w.progress("Installing %s deps...", repo.Label())
	cmd := tools.NewCommand(repo.Setup...)
	cmd.Env = env
	res, err := w.runIn(ctx, dir, cmd, w.mode)
	if err != nil {
		w.progress("FAILED\n")
		o.warn(dir, err, res.Stdout, res.Stderr)
		return
	}
	w.progress("OK\n")
	o.ok(dir, "%s", cmd)
}

func (w *Workflow) generateToken(ctx context.Context, o *Outcome, env []string) {
	o.enter(StateTokenGenerate)
	dir := w.tokenRepo.LocalDir()
	cmd := tools.NewCommand(w.cfg.Token.Command...)
	cmd.Env = env
	// the token is the command's stdout, so it is captured even when verbose
	res, err := w.runIn(ctx, dir, cmd, tools.OutputCaptured)
	if err != nil {
		fmt.Fprintln(w.out, "Token generation failed.")
		if len(res.Stderr) > 0 {
			w.out.Write(res.Stderr)
		}
		o.warn(dir, err, res.Stdout, res.Stderr)
		return
	}
	o.Token = string(res.Stdout)
	fmt.Fprintln(w.out, "Your development token:")
	w.out.Write(res.Stdout)
	o.record(StepOutcome{Target: dir, Status: StatusOK, Detail: "token generated", Stdout: res.Stdout})
}

// runIn runs cmd inside dir and folds a non-zero exit into the error.
func (w *Workflow) runIn(ctx context.Context, dir string, cmd tools.Command, mode tools.OutputMode) (tools.Result, error) {
	var res tools.Result
	err := tools.WithinDir(dir, func() error {
		r, err := w.runner.Run(ctx, cmd, mode)
		res = r
		if err != nil {
			return err
		}
		return r.Err(cmd)
	})
	return res, err
}

func (w *Workflow) childEnv(secret string) []string {
	if secret == "" {
		return nil
	}
	return []string{w.cfg.CredentialKey + "=" + secret}
}

func (w *Workflow) progress(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

func missingNames(report deps.Report) []string {
	out := make([]string, 0)
	if !report.PackageManagerAvailable() {
		out = append(out, report.PackageManager)
	}
	for _, spec := range report.Missing() {
		out = append(out, spec.Name)
	}
	for _, spec := range report.MissingFirmware() {
		out = append(out, spec.Name)
	}
	return out
}
