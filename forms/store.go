// Package forms holds the draft state of one dispatch form: field mutation,
// the derived total and required-field validation.
package forms

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownField = errors.New("field is not declared for this form")
	ErrTotalField   = errors.New("derived total cannot be set directly")
)

// Store owns the DraftRecord of one form kind within a session and mirrors
// every change to the local cache.
type Store struct {
	kind   models.FormKind
	spec   *models.FormSpec
	record models.DraftRecord
	errors models.ValidationResult
	cache  localcache.Cache
	now    func() time.Time
	logger *logrus.Logger
}

type Option func(*Store)

// WithClock overrides the clock used for the default date.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore returns a store holding the default record for kind.
func NewStore(kind models.FormKind, cache localcache.Cache, opts ...Option) (*Store, error) {
	spec := kind.Spec()
	if spec == nil {
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}
	s := &Store{
		kind:   kind,
		spec:   spec,
		errors: models.ValidationResult{},
		cache:  cache,
		now:    time.Now,
		logger: config.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.record = models.NewDraftRecord(kind, s.now())
	return s, nil
}

func (s *Store) Kind() models.FormKind   { return s.kind }
func (s *Store) Spec() *models.FormSpec { return s.spec }

// Record returns a copy of the current draft.
func (s *Store) Record() models.DraftRecord { return s.record.Clone() }

// Errors returns a copy of the inline validation errors.
func (s *Store) Errors() models.ValidationResult { return maps.Clone(s.errors) }

// SetErrors replaces the inline validation errors.
func (s *Store) SetErrors(result models.ValidationResult) {
	s.errors = maps.Clone(result)
	if s.errors == nil {
		s.errors = models.ValidationResult{}
	}
}

// Hydrate replaces the draft with rec (from the cache or a remote lookup).
// The record is normalized to this kind's schema and its total recomputed.
// Hydrate does not write to the cache.
func (s *Store) Hydrate(rec models.DraftRecord) error {
	if rec.Kind != s.kind {
		return fmt.Errorf("cannot hydrate %s form with %s record", s.kind, rec.Kind)
	}
	rec = rec.Normalize()
	rec.Total = RecomputeTotal(s.kind, rec.Quantities)
	s.record = rec
	s.errors = models.ValidationResult{}
	return nil
}

// SetField writes one declared input, clears its inline error, recomputes
// the total when a quantity changed and mirrors the draft to the cache.
func (s *Store) SetField(ctx context.Context, name string, value string) error {
	if name == models.TotalField {
		return ErrTotalField
	}
	switch {
	case s.spec.IsQuantity(name):
		s.record.Quantities[name] = value
		s.record.Total = RecomputeTotal(s.kind, s.record.Quantities)
	case s.spec.Declares(name):
		s.record.Fields[name] = value
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnknownField, name, s.kind)
	}
	delete(s.errors, name)
	s.persist(ctx)
	return nil
}

// Validate checks the current draft. It does not touch the inline errors.
func (s *Store) Validate() models.ValidationResult {
	return Validate(s.record)
}

// Reset restores the default record and deletes the cached draft.
func (s *Store) Reset(ctx context.Context) {
	s.record = models.NewDraftRecord(s.kind, s.now())
	s.errors = models.ValidationResult{}
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.kind); err != nil {
		config.LogError(s.logger, "forms", "Reset", "cache delete", string(s.kind), err)
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, s.kind, s.record.Clone()); err != nil {
		config.LogError(s.logger, "forms", "SetField", "cache save", string(s.kind), err)
	}
}
