// Package assembler invokes the external organelle assembler for one sample and
// classifies how the invocation ended.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mtbatch/internal/config"
	"mtbatch/internal/format"
	"mtbatch/internal/logging"
	"mtbatch/internal/manifest"
)

const rule = "============================================================"

// OutputPath is the per-sample directory handed to the assembler.
func OutputPath(outputDir, sampleName string) string {
	return filepath.Join(outputDir, sampleName+"_mt")
}

// DefaultWaitDelay bounds how long output capture outlives the assembler process.
const DefaultWaitDelay = 10 * time.Second

// LogDir holds captured stdout/stderr when KeepLogs is set.
func LogDir(outputDir string) string {
	return filepath.Join(outputDir, "logs")
}

// Runner runs the assembler synchronously, one sample per call.
type Runner struct {
	cfg       config.BatchConfig
	out       io.Writer
	now       func() time.Time
	waitDelay time.Duration
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now for the Started timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithWaitDelay overrides DefaultWaitDelay.
func WithWaitDelay(d time.Duration) Option {
	return func(r *Runner) { r.waitDelay = d }
}

// NewRunner returns a Runner printing progress markers to out (os.Stdout when nil).
func NewRunner(cfg config.BatchConfig, out io.Writer, opts ...Option) *Runner {
	if out == nil {
		out = os.Stdout
	}
	r := &Runner{
		cfg:       cfg,
		out:       out,
		now:       time.Now,
		waitDelay: DefaultWaitDelay,
		logger:    logging.New("assembler"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Args builds the assembler argument vector for s.
func (r *Runner) Args(s manifest.Sample) []string {
	return []string{
		"-1", s.Read1,
		"-2", s.Read2,
		"-o", OutputPath(r.cfg.OutputDir, s.Name),
		"-R", strconv.Itoa(r.cfg.Rounds),
		"-k", r.cfg.KmerArg(),
		"-F", r.cfg.OrganelleType,
		"-t", strconv.Itoa(r.cfg.Threads),
	}
}

// Run blocks until the assembler exits for s. It never returns an error: every
// way the invocation can end is folded into the Outcome.
func (r *Runner) Run(ctx context.Context, s manifest.Sample) Outcome {
	args := r.Args(s)
	o := Outcome{
		Sample:    s,
		ExitCode:  -1,
		Command:   append([]string{r.cfg.Assembler}, args...),
		OutputDir: OutputPath(r.cfg.OutputDir, s.Name),
		Started:   r.now(),
	}

	fmt.Fprintf(r.out, "\n%s\n", rule)
	fmt.Fprintf(r.out, "Processing: %s\n", s.Name)
	fmt.Fprintf(r.out, "Started: %s\n", format.Timestamp(o.Started))
	fmt.Fprintf(r.out, "Command: %s\n", strings.Join(o.Command, " "))
	fmt.Fprintf(r.out, "%s\n\n", rule)

	if r.cfg.DryRun {
		o.Status = StatusSucceeded
		o.ExitCode = 0
		fmt.Fprintf(r.out, "[DRY RUN] %s not executed\n", s.Name)
		return o
	}

	start := time.Now()
	stdout, stderr, err := r.exec(ctx, args)
	o.Duration = time.Since(start)
	o.Stdout, o.Stderr = stdout, stderr
	r.classify(&o, err)

	if r.cfg.KeepLogs && o.Reason != ReasonLaunch {
		if err := r.keepLogs(o); err != nil {
			r.logger.Warn("could not write assembler logs", "sample", s.Name, "error", err)
		}
	}

	switch o.Reason {
	case ReasonNone:
		fmt.Fprintf(r.out, "\n[SUCCESS] %s completed successfully\n", s.Name)
	case ReasonExitStatus:
		fmt.Fprintf(r.out, "\n[FAILED] %s failed with error:\n", s.Name)
		fmt.Fprintln(r.out, o.Stderr)
	default:
		fmt.Fprintf(r.out, "\n[ERROR] Unexpected error for %s:\n", s.Name)
		fmt.Fprintln(r.out, o.Err)
	}
	r.logger.Info("assembler finished",
		"sample", s.Name, "status", o.Status, "reason", o.Reason,
		"exit_code", o.ExitCode, "duration", o.Duration)
	return o
}

// exec starts the assembler and drains stdout and stderr into separate buffers.
// Descendants of the assembler (SPAdes, bowtie2) inherit the pipe write ends;
// once the assembler itself has exited they get waitDelay to release them
// before capture is cut off, so a killed batch still reaches its report.
func (r *Runner) exec(ctx context.Context, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, r.cfg.Assembler, args...)
	cmd.WaitDelay = r.waitDelay

	outR, outW, err := os.Pipe()
	if err != nil {
		return "", "", err
	}
	defer outR.Close()
	errR, errW, err := os.Pipe()
	if err != nil {
		outW.Close()
		return "", "", err
	}
	defer errR.Close()
	cmd.Stdout, cmd.Stderr = outW, errW

	startErr := cmd.Start()
	outW.Close()
	errW.Close()
	if startErr != nil {
		return "", "", &launchError{err: startErr}
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, outR)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, errR)
		return err
	})
	waitErr := cmd.Wait()

	drained := make(chan error, 1)
	go func() { drained <- g.Wait() }()
	var copyErr error
	select {
	case copyErr = <-drained:
	case <-time.After(r.waitDelay):
		r.logger.Warn("assembler exited but its output pipes are still held open; capture truncated",
			"assembler", r.cfg.Assembler, "wait_delay", r.waitDelay)
		outR.Close()
		errR.Close()
		<-drained
	}

	if waitErr != nil {
		return outBuf.String(), errBuf.String(), waitErr
	}
	if copyErr != nil {
		return outBuf.String(), errBuf.String(), fmt.Errorf("capture output: %w", copyErr)
	}
	return outBuf.String(), errBuf.String(), nil
}

func (r *Runner) classify(o *Outcome, err error) {
	var exitErr *exec.ExitError
	var launchErr *launchError
	switch {
	case err == nil:
		o.Status, o.Reason, o.ExitCode = StatusSucceeded, ReasonNone, 0
	case errors.As(err, &exitErr):
		o.Status, o.Reason, o.ExitCode = StatusFailed, ReasonExitStatus, exitErr.ExitCode()
		o.Err = err
	case errors.As(err, &launchErr):
		o.Status, o.Reason = StatusFailed, ReasonLaunch
		o.Err = launchErr.err
	default:
		o.Status, o.Reason = StatusFailed, ReasonFault
		o.Err = err
	}
}

func (r *Runner) keepLogs(o Outcome) error {
	dir := LogDir(r.cfg.OutputDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	base := filepath.Join(dir, o.Sample.Name)
	if err := os.WriteFile(base+".stdout.log", []byte(o.Stdout), 0644); err != nil {
		return err
	}
	return os.WriteFile(base+".stderr.log", []byte(o.Stderr), 0644)
}

// launchError marks failures from cmd.Start so they are not mistaken for faults
// that happen after the process is running.
type launchError struct{ err error }

func (e *launchError) Error() string { return e.err.Error() }
func (e *launchError) Unwrap() error { return e.err }
