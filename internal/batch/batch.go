// Package batch drives a manifest through the assembler one sample at a time,
// applying the stop/continue policy and producing the summary report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"mtbatch/internal/assembler"
	"mtbatch/internal/config"
	"mtbatch/internal/format"
	"mtbatch/internal/logging"
	"mtbatch/internal/manifest"
	"mtbatch/internal/report"
)

// ErrNoSamples is returned when the manifest yields no valid sample.
var ErrNoSamples = errors.New("no valid samples found in the input file")

const rule = "============================================================"

// SampleLoader reads and validates a manifest.
type SampleLoader interface {
	Read(path string) ([]manifest.Sample, error)
}

// SampleRunner runs the assembler for one sample.
type SampleRunner interface {
	Run(ctx context.Context, s manifest.Sample) assembler.Outcome
}

// Result is the accumulated record for one attempted sample.
type Result struct {
	SampleName string
	Succeeded  bool
	State      State
	Outcome    assembler.Outcome
}

// Batch is everything a finished (or halted) run produced.
type Batch struct {
	Samples    []manifest.Sample
	Results    []Result
	Halted     bool
	ReportPath string
}

// ExitCode is 0 when every attempted sample succeeded and 1 otherwise.
// Halting early with no failures is not a failure.
func (b *Batch) ExitCode() int {
	for _, r := range b.Results {
		if !r.Succeeded {
			return 1
		}
	}
	return 0
}

// Failed lists the attempted samples that failed, in order.
func (b *Batch) Failed() []Result {
	var out []Result
	for _, r := range b.Results {
		if !r.Succeeded {
			out = append(out, r)
		}
	}
	return out
}

// Controller owns the ordered result sequence for one batch.
type Controller struct {
	cfg    config.BatchConfig
	loader SampleLoader
	runner SampleRunner
	policy Policy
	out    io.Writer
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLoader replaces the manifest reader.
func WithLoader(l SampleLoader) Option { return func(c *Controller) { c.loader = l } }

// WithRunner replaces the assembler runner.
func WithRunner(r SampleRunner) Option { return func(c *Controller) { c.runner = r } }

// WithClock replaces time.Now for the report timestamp.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// NewController wires the default manifest reader and assembler runner, both
// printing to out (os.Stdout when nil).
func NewController(cfg config.BatchConfig, out io.Writer, opts ...Option) *Controller {
	if out == nil {
		out = os.Stdout
	}
	c := &Controller{
		cfg:    cfg,
		loader: manifest.NewReader(out),
		runner: assembler.NewRunner(cfg, out),
		policy: PolicyFor(cfg.ContinueOnError),
		out:    out,
		now:    time.Now,
		logger: logging.New("batch"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run processes manifestPath. A non-nil error means the batch could not start
// (or the report could not be written); per-sample failures are reported
// through the returned Batch and its ExitCode.
func (c *Controller) Run(ctx context.Context, manifestPath string) (*Batch, error) {
	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", c.cfg.OutputDir, err)
	}

	fmt.Fprintf(c.out, "Reading sample information from: %s\n", manifestPath)
	samples, err := c.loader.Read(manifestPath)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	c.printParameters(len(samples))
	c.logger.Info("batch started", "samples", len(samples), "policy", c.policy.String(), "output_dir", c.cfg.OutputDir)

	b := &Batch{Samples: samples}
	for i, s := range samples {
		if ctx.Err() != nil {
			b.Halted = true
			fmt.Fprintf(c.out, "\nInterrupted; %d of %d samples were not attempted\n", len(samples)-i, len(samples))
			break
		}
		fmt.Fprintf(c.out, "\n\nProcessing sample %d/%d: %s\n", i+1, len(samples), s.Name)
		res, err := c.step(ctx, s)
		if err != nil {
			return nil, err
		}
		b.Results = append(b.Results, res)

		if c.policy.Decide(res) == Halt {
			b.Halted = true
			fmt.Fprintf(c.out, "\nStopping batch processing due to failure (use --continue-on-error to override)\n")
			c.logger.Info("batch halted", "sample", s.Name, "attempted", len(b.Results), "total", len(samples))
			break
		}
	}

	fmt.Fprintf(c.out, "\n%s\nBatch Processing Complete\n%s\n", rule, rule)

	rows := Rows(b.Results)
	path, err := report.WriteSummary(rows, c.cfg.OutputDir, c.now())
	if err != nil {
		return b, err
	}
	b.ReportPath = path
	fmt.Fprintf(c.out, "\nSummary report saved to: %s\n", path)

	report.Echo(c.out, rows)
	if mode, err := format.ParseMode(c.cfg.TableFormat); err == nil {
		fmt.Fprintf(c.out, "\n%s\n", report.Table(rows, mode))
	}
	return b, nil
}

// step moves one sample through pending -> running -> succeeded|failed.
func (c *Controller) step(ctx context.Context, s manifest.Sample) (Result, error) {
	state := StatePending
	state, err := state.To(StateRunning)
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug("sample running", "sample", s.Name)

	o := c.runner.Run(ctx, s)

	next := StateFailed
	if o.Succeeded() {
		next = StateSucceeded
	}
	if state, err = state.To(next); err != nil {
		return Result{}, err
	}
	if !state.Terminal() {
		return Result{}, fmt.Errorf("%w: sample %s left in %s", ErrInvalidTransition, s.Name, state)
	}
	return Result{SampleName: s.Name, Succeeded: o.Succeeded(), State: state, Outcome: o}, nil
}

func (c *Controller) printParameters(n int) {
	fmt.Fprintf(c.out, "\nFound %d samples to process\n", n)
	fmt.Fprintf(c.out, "Parameters:\n")
	fmt.Fprintf(c.out, "  - Threads per sample: %d\n", c.cfg.Threads)
	fmt.Fprintf(c.out, "  - K-mer values: %s\n", c.cfg.KmerArg())
	fmt.Fprintf(c.out, "  - Extension rounds: %d\n", c.cfg.Rounds)
	fmt.Fprintf(c.out, "  - Organelle type: %s\n", c.cfg.OrganelleType)
	fmt.Fprintf(c.out, "  - Output directory: %s\n", c.cfg.OutputDir)
	if c.cfg.DryRun {
		fmt.Fprintf(c.out, "  - Dry run: commands are printed, not executed\n")
	}
}

// Rows converts results to the report's view.
func Rows(results []Result) []report.Result {
	rows := make([]report.Result, len(results))
	for i, r := range results {
		detail := ""
		switch r.Outcome.Reason {
		case assembler.ReasonExitStatus:
			detail = strings.TrimSpace(r.Outcome.Stderr)
		case assembler.ReasonLaunch, assembler.ReasonFault:
			if r.Outcome.Err != nil {
				detail = r.Outcome.Err.Error()
			}
		}
		rows[i] = report.Result{
			SampleName: r.SampleName,
			Succeeded:  r.Succeeded,
			ExitCode:   r.Outcome.ExitCode,
			Reason:     string(r.Outcome.Reason),
			Detail:     detail,
			Duration:   r.Outcome.Duration,
		}
	}
	return rows
}
