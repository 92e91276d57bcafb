package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dwyl/smart-home-security-system/internal/logging"
)

// State is one node of the install state machine.
type State string

const (
	StateStart             State = "start"
	StateFetch             State = "fetch"
	StateDependencyCheck   State = "dependency_check"
	StateDependencyInstall State = "dependency_install"
	StateCredentialResolve State = "credential_resolve"
	StateSetupRepos        State = "setup_repos"
	StateTokenGenerate     State = "token_generate"
	StateDone              State = "done"
	StateAborted           State = "aborted"
	StateClean             State = "clean"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StepOutcome records one step (or one target within a step) of a run.
type StepOutcome struct {
	State  State
	Target string
	Status Status
	Detail string
	Stdout []byte
	Stderr []byte
}

// Outcome is the ephemeral record of one workflow run.
type Outcome struct {
	RunID string
	State State
	Steps []StepOutcome
	Token string

	log zerolog.Logger
}

func newOutcome() *Outcome {
	id := uuid.NewString()
	return &Outcome{
		RunID: id,
		State: StateStart,
		log:   logging.With("run_id", id),
	}
}

// Warnings returns every step that failed without stopping the run.
func (o *Outcome) Warnings() []StepOutcome {
	return o.filter(func(s StepOutcome) bool { return s.Status == StatusWarning })
}

// Steps for one state, in the order they ran.
func (o *Outcome) For(state State) []StepOutcome {
	return o.filter(func(s StepOutcome) bool { return s.State == state })
}

// Visited reports whether the run ever entered state.
func (o *Outcome) Visited(state State) bool {
	return len(o.For(state)) > 0
}

func (o *Outcome) filter(keep func(StepOutcome) bool) []StepOutcome {
	out := make([]StepOutcome, 0)
	for _, step := range o.Steps {
		if keep(step) {
			out = append(out, step)
		}
	}
	return out
}

func (o *Outcome) enter(state State) {
	o.State = state
	o.log.Debug().Str("state", string(state)).Msg("workflow.enter")
}

func (o *Outcome) record(step StepOutcome) {
	if step.State == "" {
		step.State = o.State
	}
	o.Steps = append(o.Steps, step)
	ev := o.log.Info()
	if step.Status == StatusWarning || step.Status == StatusFailed {
		ev = o.log.Warn()
	}
	ev.Str("state", string(step.State)).
		Str("target", step.Target).
		Str("status", string(step.Status)).
		Msg(strings.TrimSpace(step.Detail))
}

func (o *Outcome) ok(target string, format string, args ...any) {
	o.record(StepOutcome{Target: target, Status: StatusOK, Detail: fmt.Sprintf(format, args...)})
}

func (o *Outcome) warn(target string, err error, stdout []byte, stderr []byte) {
	o.record(StepOutcome{
		Target: target,
		Status: StatusWarning,
		Detail: err.Error(),
		Stdout: stdout,
		Stderr: stderr,
	})
}

func (o *Outcome) skip(target string, reason string) {
	o.record(StepOutcome{Target: target, Status: StatusSkipped, Detail: reason})
}

func (o *Outcome) abort(err error) {
	o.record(StepOutcome{Status: StatusFailed, Detail: err.Error()})
	o.State = StateAborted
}
