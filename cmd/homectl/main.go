package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwyl/smart-home-security-system/internal/config"
	"github.com/dwyl/smart-home-security-system/internal/logging"
	"github.com/dwyl/smart-home-security-system/internal/prompt"
	"github.com/dwyl/smart-home-security-system/internal/tools"
	"github.com/dwyl/smart-home-security-system/internal/workflow"
)

var errUsage = errors.New("homectl: no command given")

// app carries the collaborators every subcommand shares.
type app struct {
	runner   tools.CommandRunner
	operator prompt.Operator
	stdout   io.Writer
	stderr   io.Writer

	verbose    bool
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{
		runner:   tools.ExecRunner{},
		operator: prompt.NewTerminal(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(a.stderr, "homectl: %v\n", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "homectl",
		Short:         "Provision a local dwyl smart home development setup",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime(a.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetOut(a.stderr)
			_ = cmd.Usage()
			return errUsage
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "stream child process output and enable debug logs")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (toml or yaml, default "+config.DefaultPath+")")

	root.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Fetch repositories, install dependencies, and generate a dev token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				w, cfg, err := a.workflow()
				if err != nil {
					return err
				}
				slot, err := a.slot(w, cfg)
				if err != nil {
					return err
				}
				_, err = w.Install(cmd.Context(), slot)
				return err
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove cloned repositories and the credential file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				w, _, err := a.workflow()
				if err != nil {
					return err
				}
				w.Clean(cmd.Context())
				return nil
			},
		},
		&cobra.Command{
			Use:   "gen-token",
			Short: "Generate a fresh development token from the hub server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				w, cfg, err := a.workflow()
				if err != nil {
					return err
				}
				slot, err := a.slot(w, cfg)
				if err != nil {
					logging.Warnf("homectl.gen-token slot unavailable err=%v", err)
					slot = ""
				}
				w.GenerateToken(cmd.Context(), slot)
				return nil
			},
		},
		a.configCmd(),
	)
	return root
}

func (a *app) configCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or validate a homectl config file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := a.targetPath(args)
			if err := config.WriteTemplate(target, force); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote config template to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := a.targetPath(args)
			if _, err := config.Load(target); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Validated config at %s\n", target)
			return nil
		},
	}
	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

func (a *app) targetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if a.configPath != "" {
		return a.configPath
	}
	return config.DefaultPath
}

// loadConfig reads the explicit --config file, or the default path when present.
func (a *app) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadOptional(config.DefaultPath)
	}
	if err != nil {
		return config.Config{}, err
	}
	if a.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func (a *app) workflow() (*workflow.Workflow, config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	w, err := workflow.New(cfg, workflow.Options{
		Runner:   a.runner,
		Operator: a.operator,
		Out:      a.stdout,
	})
	if err != nil {
		return nil, config.Config{}, err
	}
	return w, cfg, nil
}

// slot seeds the credential: environment first, then the value a previous
// run persisted.
func (a *app) slot(w *workflow.Workflow, cfg config.Config) (string, error) {
	if slot := strings.TrimSpace(os.Getenv(cfg.CredentialKey)); slot != "" {
		logging.Debugf("homectl.slot source=env key=%s", cfg.CredentialKey)
		return slot, nil
	}
	slot, found, err := w.Store().Load()
	if err != nil {
		return "", err
	}
	if found {
		logging.Debugf("homectl.slot source=file path=%s", w.Store().Path())
	}
	return slot, nil
}
