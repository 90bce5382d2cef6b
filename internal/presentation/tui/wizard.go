package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/aretw0/assetflow/pkg/wizard"
	"github.com/aretw0/assetflow/pkg/workflows"
)

// ErrAborted is returned when the user cancels the wizard or input ends.
var ErrAborted = errors.New("wizard aborted")

// Commands recognized at any field prompt.
const (
	CmdBack   = ":back"
	CmdCancel = ":cancel"
	CmdReset  = ":reset"
)

// Runner drives a wizard controller over line-based terminal IO.
type Runner struct {
	def    *workflows.Definition
	ctrl   *wizard.Controller
	commit ports.CommitFunc

	reader *bufio.Reader
	out    io.Writer
	render Renderer
	logger *slog.Logger
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithRenderer sets the markdown renderer (Plain by default).
func WithRenderer(r Renderer) RunnerOption {
	return func(run *Runner) { run.render = r }
}

// WithRunnerLogger sets a custom structured logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(run *Runner) { run.logger = logger }
}

// NewRunner creates a runner for ctrl, which must have been built from def.
func NewRunner(def *workflows.Definition, ctrl *wizard.Controller, commit ports.CommitFunc, in io.Reader, out io.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{
		def:    def,
		ctrl:   ctrl,
		commit: commit,
		reader: bufio.NewReader(in),
		out:    out,
		render: Plain,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run prompts for every editable field of the current step, then advances or,
// on the last step, submits. It returns the final instance once the workflow
// was submitted, or ErrAborted.
func (r *Runner) Run(ctx context.Context) (*domain.WorkflowInstance, error) {
	r.help()
	for {
		if err := ctx.Err(); err != nil {
			r.ctrl.Cancel()
			return r.ctrl.Snapshot(), err
		}
		r.show(StepMarkdown(r.def, r.ctrl.Snapshot()))

		restart, err := r.fillStep()
		if err != nil {
			r.ctrl.Cancel()
			return r.ctrl.Snapshot(), err
		}
		if restart {
			continue
		}

		if !r.ctrl.Snapshot().AtLastStep() {
			if err := r.ctrl.Next(); err != nil {
				r.reportErr(err)
			}
			continue
		}

		done, err := r.submit(ctx)
		if err != nil {
			r.ctrl.Cancel()
			return r.ctrl.Snapshot(), err
		}
		if done {
			return r.ctrl.Snapshot(), nil
		}
	}
}

func (r *Runner) help() {
	fmt.Fprintf(r.out, "Press Enter to keep a value. Commands: %s, %s, %s\n\n", CmdBack, CmdReset, CmdCancel)
}

// fillStep prompts for the current step. restart is true when a command moved
// the wizard and the step must be shown again.
func (r *Runner) fillStep() (restart bool, err error) {
	step := r.ctrl.CurrentStep()
	for _, name := range step.Fields {
		f, ok := r.def.Field(name)
		if !ok {
			f = workflows.FieldSpec{Name: name}
		}
		if f.Derived {
			continue
		}
		for {
			current := FormatValue(r.ctrl.Snapshot().Values[name])
			line, err := r.prompt(fmt.Sprintf("%s [%s]: ", f.Title(), current))
			if err != nil {
				return false, err
			}
			switch line {
			case "":
			case CmdBack:
				if err := r.ctrl.Back(); err != nil {
					return false, err
				}
				return true, nil
			case CmdReset:
				r.ctrl.Reset()
				return true, nil
			case CmdCancel:
				return false, ErrAborted
			default:
				value, perr := ParseValue(f, line)
				if perr != nil {
					fmt.Fprintf(r.out, "  %v\n", perr)
					continue
				}
				applied, uerr := r.ctrl.UpdateField(name, value)
				if uerr != nil {
					return false, uerr
				}
				r.showDerived(applied, name)
			}
			break
		}
	}
	return false, nil
}

func (r *Runner) showDerived(applied domain.Values, edited string) {
	for _, k := range applied.Keys() {
		if k == edited {
			continue
		}
		fmt.Fprintf(r.out, "  %s = %s\n", k, FormatValue(applied[k]))
	}
}

// submit commits the workflow. A failed commit can be retried in place.
func (r *Runner) submit(ctx context.Context) (done bool, err error) {
	for {
		err := r.ctrl.Submit(ctx, r.commit)
		if err == nil {
			fmt.Fprintf(r.out, "\n%s submitted.\n", r.def.Title)
			return true, nil
		}
		var cErr *domain.CommitError
		if !errors.As(err, &cErr) {
			r.reportErr(err)
			return false, nil
		}
		r.reportErr(err)
		line, perr := r.prompt("Retry submission? [y/N]: ")
		if perr != nil {
			return false, perr
		}
		if !strings.EqualFold(line, "y") && !strings.EqualFold(line, "yes") {
			// Back to editing the last step.
			return false, nil
		}
	}
}

func (r *Runner) reportErr(err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		for _, name := range vErr.Fields.Fields() {
			fmt.Fprintf(r.out, "  ! %s: %s\n", name, vErr.Fields[name])
		}
		return
	}
	r.logger.Debug("wizard operation failed", "err", err)
	fmt.Fprintf(r.out, "  ! %v\n", err)
}

func (r *Runner) show(markdown string) {
	out, err := r.render(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprintln(r.out, strings.TrimSpace(out))
}

func (r *Runner) prompt(label string) (string, error) {
	for {
		fmt.Fprint(r.out, label)
		text, err := r.reader.ReadString('\n')
		if err != nil && (text == "" || !errors.Is(err, io.EOF)) {
			if errors.Is(err, io.EOF) {
				return "", ErrAborted
			}
			return "", err
		}
		clean, serr := SanitizeInput(strings.TrimSpace(text))
		if serr != nil {
			fmt.Fprintf(r.out, "Error: %v. Please try again.\n", serr)
			continue
		}
		return clean, nil
	}
}
