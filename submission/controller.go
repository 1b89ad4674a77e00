// Package submission drives the two-phase preview/confirm submission of a
// dispatch draft to the ledger.
package submission

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/forms"
	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/utils"
	"github.com/sirupsen/logrus"
)

// Submitter sends a draft to the ledger. *ledger.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, rec models.DraftRecord) (*models.LedgerEnvelope, error)
	Endpoint() string
}

// Controller is the submission state machine for one session. One
// controller serves every form tab; Bind switches the active store.
type Controller struct {
	mu        sync.Mutex
	state     State
	store     *forms.Store
	submitter Submitter
	locker    localcache.SubmitLocker
	autoAck   bool
	notice    string
	last      *Attempt
	sessionId string
	now       func() time.Time
	logger    *logrus.Logger
}

type Option func(*Controller)

// WithSubmitLocker serializes submissions of one kind across processes
// sharing a draft namespace.
func WithSubmitLocker(locker localcache.SubmitLocker) Option {
	return func(c *Controller) { c.locker = locker }
}

// WithAutoAcknowledge returns the controller to Editing as soon as an
// outcome is recorded.
func WithAutoAcknowledge(enabled bool) Option {
	return func(c *Controller) { c.autoAck = enabled }
}

func WithSessionId(id string) Option {
	return func(c *Controller) { c.sessionId = id }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(store *forms.Store, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		state:     StateEditing,
		store:     store,
		submitter: submitter,
		now:       time.Now,
		logger:    config.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Notice is the message for the last recorded outcome, empty after Acknowledge.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// LastAttempt returns a copy of the most recent attempt, or nil.
func (c *Controller) LastAttempt() *Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	a := *c.last
	a.Payload = maps.Clone(c.last.Payload)
	return &a
}

func (c *Controller) Store() *forms.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// Bind makes store the active form. Only allowed while Editing.
func (c *Controller) Bind(store *forms.Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return c.invalid("bind")
	}
	c.store = store
	c.trace("", "bound")
	return nil
}

// Preview validates the draft and moves to Previewing. On failure the
// errors are pushed into the store and the state stays Editing.
func (c *Controller) Preview() (models.ValidationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return nil, c.invalid("preview")
	}
	result := c.store.Validate()
	c.store.SetErrors(result)
	if !result.Valid() {
		return result, fmt.Errorf("%w: %s", ErrValidation, strings.Join(result.Fields(), ", "))
	}
	c.transition(StatePreviewing, "")
	return result, nil
}

// Confirm moves Previewing to Confirming.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePreviewing {
		return c.invalid("confirm")
	}
	c.transition(StateConfirming, "")
	return nil
}

// Cancel backs out of the preview without touching the draft.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePreviewing && c.state != StateConfirming {
		return c.invalid("cancel")
	}
	c.transition(StateEditing, "")
	return nil
}

// Acknowledge dismisses a recorded outcome and returns to Editing.
func (c *Controller) Acknowledge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSucceeded && c.state != StateFailed {
		return c.invalid("acknowledge")
	}
	c.notice = ""
	c.transition(StateEditing, "")
	return nil
}

// Submit sends the confirmed draft. Exactly one attempt is created per call
// from Confirming; a caller arriving while Submitting is refused. On success
// the draft is reset and its cache entry deleted; on failure both are left
// exactly as they were. The returned error is the submission failure, if any.
func (c *Controller) Submit(ctx context.Context) (*Attempt, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if c.state != StateConfirming {
		err := c.invalid("submit")
		c.mu.Unlock()
		return nil, err
	}
	store := c.store
	rec := store.Record()
	attempt := &Attempt{
		ID:        uuid.New().String(),
		Endpoint:  c.submitter.Endpoint(),
		Payload:   rec.Payload(),
		Outcome:   AttemptOutcomePending,
		StartedAt: c.now(),
	}
	c.last = attempt
	c.notice = ""
	c.transition(StateSubmitting, attempt.ID)
	c.mu.Unlock()

	ctx = utils.SetAttemptIdInContext(ctx, attempt.ID)
	ctx = utils.SetFormKindInContext(ctx, string(rec.Kind))
	if c.sessionId != "" {
		ctx = utils.SetSessionIdInContext(ctx, c.sessionId)
	}
	env, err := c.send(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	attempt.FinishedAt = c.now()
	if err != nil {
		attempt.Outcome = AttemptOutcomeFailure
		attempt.Reason = err.Error()
		attempt.Class = classify(err)
		c.notice = FailureNotice(err)
		config.LogError(c.logger, "submission", "Submit", string(attempt.Class), attempt.ID, err)
		c.transition(StateFailed, attempt.ID)
	} else {
		attempt.Outcome = AttemptOutcomeSuccess
		store.Reset(ctx)
		c.notice = SuccessNotice
		if env != nil && strings.TrimSpace(env.Message) != "" {
			c.notice = env.Message
		}
		c.transition(StateSucceeded, attempt.ID)
	}
	if c.autoAck {
		c.transition(StateEditing, attempt.ID)
	}
	out := *attempt
	out.Payload = maps.Clone(attempt.Payload)
	return &out, err
}

func (c *Controller) send(ctx context.Context, rec models.DraftRecord) (*models.LedgerEnvelope, error) {
	if c.locker != nil {
		release, err := c.locker.ObtainSubmitLock(ctx, rec.Kind)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				config.LogError(c.logger, "submission", "send", "release submit lock", string(rec.Kind), err)
			}
		}()
	}
	return c.submitter.Submit(ctx, rec)
}

// transition must be called with c.mu held.
func (c *Controller) transition(to State, attemptId string) {
	from := c.state
	c.state = to
	c.trace(attemptId, fmt.Sprintf("%s -> %s", from, to))
}

func (c *Controller) invalid(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, c.state)
}

func (c *Controller) trace(attemptId string, msg string) {
	fields := logrus.Fields{"session_id": c.sessionId}
	if c.store != nil {
		fields["form_kind"] = string(c.store.Kind())
	}
	if attemptId != "" {
		fields["attempt_id"] = attemptId
	}
	c.logger.WithFields(fields).Debug(msg)
}
