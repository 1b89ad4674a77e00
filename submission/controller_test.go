package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmdatafocus/dispatch_forms/forms"
	"github.com/mmdatafocus/dispatch_forms/ledger"
	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

type fakeSubmitter struct {
	calls   int32
	gate    chan struct{}
	entered chan struct{}
	err     error
	env     *models.LedgerEnvelope
	got     models.DraftRecord
}

func (f *fakeSubmitter) Endpoint() string { return "http://gateway.test/api" }

func (f *fakeSubmitter) Submit(ctx context.Context, rec models.DraftRecord) (*models.LedgerEnvelope, error) {
	atomic.AddInt32(&f.calls, 1)
	f.got = rec
	if f.entered != nil {
		close(f.entered)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.env != nil {
		return f.env, nil
	}
	status := 200
	return &models.LedgerEnvelope{Status: &status}, nil
}

func newOilStore(t *testing.T, cache localcache.Cache) *forms.Store {
	t.Helper()
	s, err := forms.NewStore(models.FormKindOil, cache, forms.WithClock(fixedNow))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func fillOil(t *testing.T, s *forms.Store) {
	t.Helper()
	ctx := context.Background()
	for name, value := range map[string]string{
		"vehicleNo":           "MH12AB1234",
		"destinationCategory": "Local",
		"20L":                 "10",
	} {
		if err := s.SetField(ctx, name, value); err != nil {
			t.Fatalf("SetField %s: %v", name, err)
		}
	}
}

func confirmed(t *testing.T, c *Controller) {
	t.Helper()
	if _, err := c.Preview(); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if err := c.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
}

func TestController_PreviewRefusedWithMissingFields(t *testing.T) {
	cache := localcache.NewMemory()
	store := newOilStore(t, cache)
	if err := store.SetField(context.Background(), "date", ""); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	before := store.Record()

	c := NewController(store, &fakeSubmitter{})
	result, err := c.Preview()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if c.State() != StateEditing {
		t.Fatalf("expected Editing, got %s", c.State())
	}
	fields := result.Fields()
	if fmt.Sprint(fields) != "[date destinationCategory]" {
		t.Fatalf("unexpected failing fields %v", fields)
	}
	if fmt.Sprint(store.Errors().Fields()) != fmt.Sprint(fields) {
		t.Fatalf("store errors %v do not match result %v", store.Errors().Fields(), fields)
	}
	if !store.Record().Equal(before) {
		t.Fatalf("preview changed the draft")
	}
}

func TestController_InvalidTransitions(t *testing.T) {
	c := NewController(newOilStore(t, nil), &fakeSubmitter{})

	if err := c.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Confirm from Editing: expected ErrInvalidTransition, got %v", err)
	}
	if err := c.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Cancel from Editing: expected ErrInvalidTransition, got %v", err)
	}
	if err := c.Acknowledge(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Acknowledge from Editing: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Submit from Editing: expected ErrInvalidTransition, got %v", err)
	}
}

func TestController_CancelKeepsDraft(t *testing.T) {
	store := newOilStore(t, nil)
	fillOil(t, store)
	before := store.Record()
	c := NewController(store, &fakeSubmitter{})

	confirmed(t, c)
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if c.State() != StateEditing {
		t.Fatalf("expected Editing, got %s", c.State())
	}
	if !store.Record().Equal(before) {
		t.Fatalf("cancel changed the draft")
	}
}

func TestController_SubmitSuccessResetsDraft(t *testing.T) {
	ctx := context.Background()
	cache := localcache.NewMemory()
	store := newOilStore(t, cache)
	fillOil(t, store)
	sub := &fakeSubmitter{}
	c := NewController(store, sub, WithClock(fixedNow))

	confirmed(t, c)
	attempt, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.State() != StateSucceeded || attempt.Outcome != AttemptOutcomeSuccess {
		t.Fatalf("expected success, got state %s outcome %s", c.State(), attempt.Outcome)
	}
	if attempt.Payload["type"] != "oil_dispatch" || attempt.Payload["totalMT"] != "0.18" {
		t.Fatalf("unexpected payload %v", attempt.Payload)
	}
	if sub.got.Fields["vehicleNo"] != "MH12AB1234" {
		t.Fatalf("submitter received %+v", sub.got)
	}
	if !store.Record().Equal(models.NewDraftRecord(models.FormKindOil, fixedNow())) {
		t.Fatalf("draft not reset: %+v", store.Record())
	}
	if _, ok := cache.Raw(models.FormKindOil); ok {
		t.Fatalf("cache entry not deleted")
	}
	if c.Notice() != SuccessNotice {
		t.Fatalf("unexpected notice %q", c.Notice())
	}
	if err := c.Acknowledge(); err != nil || c.State() != StateEditing {
		t.Fatalf("Acknowledge: %v, state %s", err, c.State())
	}
}

func TestController_SubmitFailureKeepsDraftAndCache(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		class  FailureClass
		notice string
	}{
		{"transport", fmt.Errorf("%w: connection refused", ledger.ErrTransport), FailureClassTransport, GenericFailureNotice},
		{"malformed", fmt.Errorf("%w: html", ledger.ErrMalformedResponse), FailureClassMalformed, GenericFailureNotice},
		{"rejected", &ledger.ApplicationError{Status: 409, Message: "Duplicate vehicle for date"}, FailureClassRejected, "Duplicate vehicle for date"},
		{"rejected without message", &ledger.ApplicationError{Status: 500}, FailureClassRejected, "Submission rejected (status 500)"},
		{"locked", localcache.ErrLocked, FailureClassLocked, LockedNotice},
	}
	for _, tc := range cases {
		ctx := context.Background()
		cache := localcache.NewMemory()
		store := newOilStore(t, cache)
		fillOil(t, store)
		before := store.Record()
		cached, _ := cache.Raw(models.FormKindOil)

		c := NewController(store, &fakeSubmitter{err: tc.err})
		confirmed(t, c)
		attempt, err := c.Submit(ctx)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if c.State() != StateFailed || attempt.Outcome != AttemptOutcomeFailure || attempt.Class != tc.class {
			t.Fatalf("%s: state %s outcome %s class %s", tc.name, c.State(), attempt.Outcome, attempt.Class)
		}
		if c.Notice() != tc.notice {
			t.Fatalf("%s: expected notice %q, got %q", tc.name, tc.notice, c.Notice())
		}
		if !store.Record().Equal(before) {
			t.Fatalf("%s: draft changed after failure", tc.name)
		}
		after, ok := cache.Raw(models.FormKindOil)
		if !ok || string(after) != string(cached) {
			t.Fatalf("%s: cache entry changed after failure", tc.name)
		}
		if err := c.Acknowledge(); err != nil || c.State() != StateEditing {
			t.Fatalf("%s: Acknowledge: %v, state %s", tc.name, err, c.State())
		}
	}
}

func TestController_AutoAcknowledge(t *testing.T) {
	store := newOilStore(t, nil)
	fillOil(t, store)
	c := NewController(store, &fakeSubmitter{err: ledger.ErrTransport}, WithAutoAcknowledge(true))

	confirmed(t, c)
	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if c.State() != StateEditing {
		t.Fatalf("expected Editing, got %s", c.State())
	}
	if c.Notice() != GenericFailureNotice {
		t.Fatalf("notice should survive auto acknowledge, got %q", c.Notice())
	}
}

func TestController_ConcurrentSubmitRefused(t *testing.T) {
	store := newOilStore(t, nil)
	fillOil(t, store)
	sub := &fakeSubmitter{gate: make(chan struct{}), entered: make(chan struct{})}
	c := NewController(store, sub)
	confirmed(t, c)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = c.Submit(context.Background())
	}()
	<-sub.entered

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}
	if err := c.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Cancel while Submitting: expected ErrInvalidTransition, got %v", err)
	}
	close(sub.gate)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first submit: %v", firstErr)
	}
	if n := atomic.LoadInt32(&sub.calls); n != 1 {
		t.Fatalf("expected one ledger call, got %d", n)
	}
}

func TestController_BindOnlyWhileEditing(t *testing.T) {
	oil := newOilStore(t, nil)
	fillOil(t, oil)
	soap, err := forms.NewStore(models.FormKindSoap, nil, forms.WithClock(fixedNow))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	c := NewController(oil, &fakeSubmitter{})

	if _, err := c.Preview(); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if err := c.Bind(soap); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Bind while Previewing: expected ErrInvalidTransition, got %v", err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := c.Bind(soap); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if c.Store().Kind() != models.FormKindSoap {
		t.Fatalf("expected soap store, got %s", c.Store().Kind())
	}
}

type fakeLocker struct {
	obtained int
	released int
	err      error
}

func (l *fakeLocker) ObtainSubmitLock(ctx context.Context, kind models.FormKind) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.obtained++
	return func(context.Context) error { l.released++; return nil }, nil
}

func TestController_SubmitLockWrapsLedgerCall(t *testing.T) {
	store := newOilStore(t, nil)
	fillOil(t, store)
	locker := &fakeLocker{}
	c := NewController(store, &fakeSubmitter{}, WithSubmitLocker(locker))

	confirmed(t, c)
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if locker.obtained != 1 || locker.released != 1 {
		t.Fatalf("lock obtained %d released %d", locker.obtained, locker.released)
	}
}
