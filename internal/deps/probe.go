// Package deps owns host dependency detection and installation.
//
// Ownership boundary:
// - tool availability probing
// - package manager bootstrap (consent gated)
// - package installs for missing tools and firmware prerequisites
package deps

import (
	"context"
	"errors"
	"strings"

	"github.com/dwyl/smart-home-security-system/internal/logging"
	"github.com/dwyl/smart-home-security-system/internal/tools"
)

type Group string

const (
	GroupCore     Group = "core"
	GroupFirmware Group = "firmware"
)

// ToolSpec names a host tool, how to detect it, and which package provides it.
type ToolSpec struct {
	Name    string
	Probe   []string
	Package string
	Group   Group
}

// Availability maps tool name to presence. It is rebuilt on every run.
type Availability map[string]bool

// Report is the result of one probe pass. The package manager is tracked
// separately because its absence gates every other install.
type Report struct {
	PackageManager string
	Available      Availability
	specs          []ToolSpec
}

func (r Report) PackageManagerAvailable() bool {
	return r.Available[r.PackageManager]
}

// Missing lists absent core tools in probe order.
func (r Report) Missing() []ToolSpec {
	return r.missing(GroupCore)
}

// MissingFirmware lists absent firmware prerequisites in probe order.
func (r Report) MissingFirmware() []ToolSpec {
	return r.missing(GroupFirmware)
}

func (r Report) AnyMissing() bool {
	if !r.PackageManagerAvailable() {
		return true
	}
	for _, spec := range r.specs {
		if !r.Available[spec.Name] {
			return true
		}
	}
	return false
}

func (r Report) missing(group Group) []ToolSpec {
	out := make([]ToolSpec, 0)
	for _, spec := range r.specs {
		if spec.group() != group {
			continue
		}
		if !r.Available[spec.Name] {
			out = append(out, spec)
		}
	}
	return out
}

func (s ToolSpec) group() Group {
	if s.Group == "" {
		return GroupCore
	}
	return s.Group
}

// Prober checks tool presence by attempting a lightweight invocation.
type Prober struct {
	runner tools.CommandRunner
}

func NewProber(runner tools.CommandRunner) *Prober {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Prober{runner: runner}
}

// Probe reports each tool as available iff its probe invocation starts.
// Exit codes are ignored and missing tools are never an error.
func (p *Prober) Probe(ctx context.Context, packageManager ToolSpec, specs []ToolSpec) Report {
	report := Report{
		PackageManager: packageManager.Name,
		Available:      make(Availability, len(specs)+1),
		specs:          append([]ToolSpec(nil), specs...),
	}
	report.Available[packageManager.Name] = p.available(ctx, packageManager)
	for _, spec := range specs {
		report.Available[spec.Name] = p.available(ctx, spec)
	}
	return report
}

func (p *Prober) available(ctx context.Context, spec ToolSpec) bool {
	argv := spec.Probe
	if len(argv) == 0 {
		argv = []string{spec.Name, "--version"}
	}
	res, err := p.runner.Run(ctx, tools.NewCommand(argv...), tools.OutputCaptured)
	if err == nil {
		logging.Debugf("deps.probe tool=%s available=true exit=%d", spec.Name, res.ExitCode)
		return true
	}
	if errors.Is(err, tools.ErrProcessNotFound) {
		logging.Debugf("deps.probe tool=%s available=false", spec.Name)
	} else {
		logging.Warnf("deps.probe tool=%s cmd=%q err=%v", spec.Name, strings.Join(argv, " "), err)
	}
	return false
}
