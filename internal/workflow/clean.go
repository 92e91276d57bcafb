package workflow

import (
	"context"

	"github.com/dwyl/smart-home-security-system/internal/tools"
)

// Clean removes every cloned repository and the credential file.
// Each removal is attempted regardless of earlier failures, which are recorded.
func (w *Workflow) Clean(ctx context.Context) *Outcome {
	o := newOutcome()
	o.enter(StateClean)

	for _, repo := range w.cfg.Repos() {
		dir := repo.LocalDir()
		w.remove(ctx, o, dir, tools.NewCommand("rm", "-rf", "--", dir))
	}
	w.remove(ctx, o, w.store.Path(), tools.NewCommand("rm", "-f", "--", w.store.Path()))

	o.enter(StateDone)
	return o
}

func (w *Workflow) remove(ctx context.Context, o *Outcome, target string, cmd tools.Command) {
	w.progress("Removing %s...", target)
	res, err := w.runner.Run(ctx, cmd, w.mode)
	if err == nil {
		err = res.Err(cmd)
	}
	if err != nil {
		w.progress("FAILED\n")
		o.warn(target, err, res.Stdout, res.Stderr)
		return
	}
	w.progress("OK\n")
	o.ok(target, "removed")
}
