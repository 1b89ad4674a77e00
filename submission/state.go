package submission

import (
	"errors"
	"time"
)

// State is the controller's position in the preview/confirm/submit cycle.
type State string

const (
	StateEditing    State = "Editing"
	StatePreviewing State = "Previewing"
	StateConfirming State = "Confirming"
	StateSubmitting State = "Submitting"
	StateSucceeded  State = "Succeeded"
	StateFailed     State = "Failed"
)

type AttemptOutcome string

const (
	AttemptOutcomePending AttemptOutcome = "pending"
	AttemptOutcomeSuccess AttemptOutcome = "success"
	AttemptOutcomeFailure AttemptOutcome = "failure"
)

// FailureClass tells a transport fault from a ledger rejection.
type FailureClass string

const (
	FailureClassNone      FailureClass = ""
	FailureClassTransport FailureClass = "transport"
	FailureClassMalformed FailureClass = "malformed"
	FailureClassRejected  FailureClass = "rejected"
	FailureClassLocked    FailureClass = "locked"
)

var (
	ErrValidation         = errors.New("draft has missing or invalid fields")
	ErrInvalidTransition  = errors.New("action not allowed in current state")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// Attempt is one submission of a draft. It is never persisted.
type Attempt struct {
	ID         string
	Endpoint   string
	Payload    map[string]string
	Outcome    AttemptOutcome
	Reason     string
	Class      FailureClass
	StartedAt  time.Time
	FinishedAt time.Time
}
