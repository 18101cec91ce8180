package batch

// Decision is what the controller does after a sample reaches a terminal state.
type Decision int

const (
	Continue Decision = iota
	Halt
)

// Policy decides whether the batch proceeds past a finished sample.
type Policy int

const (
	// StopOnFailure halts after the first failed sample.
	StopOnFailure Policy = iota
	// ContinueOnFailure attempts every sample regardless of outcome.
	ContinueOnFailure
)

// PolicyFor maps the --continue-on-error flag to a Policy.
func PolicyFor(continueOnError bool) Policy {
	if continueOnError {
		return ContinueOnFailure
	}
	return StopOnFailure
}

// Decide inspects a finished result.
func (p Policy) Decide(r Result) Decision {
	if p == StopOnFailure && r.State == StateFailed {
		return Halt
	}
	return Continue
}

func (p Policy) String() string {
	if p == ContinueOnFailure {
		return "continue-on-failure"
	}
	return "stop-on-failure"
}
