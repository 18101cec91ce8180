package assembler

import (
	"time"

	"mtbatch/internal/manifest"
)

// Status is the terminal classification of one assembler invocation.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Reason explains a failed Outcome. Successful outcomes carry ReasonNone.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonExitStatus Reason = "exit_status" // process ran and exited non-zero
	ReasonLaunch     Reason = "launch"      // process could not be started
	ReasonFault      Reason = "fault"       // any other error while invoking
)

// Outcome is the result of running the assembler for one sample.
type Outcome struct {
	Sample    manifest.Sample
	Status    Status
	Reason    Reason
	ExitCode  int // -1 when the process never reported an exit status
	Command   []string
	OutputDir string
	Stdout    string
	Stderr    string
	Err       error
	Started   time.Time
	Duration  time.Duration
}

// Succeeded reports whether the invocation exited 0 (or was a dry run).
func (o Outcome) Succeeded() bool { return o.Status == StatusSucceeded }
