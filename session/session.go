// Package session owns the form tabs of one device session: one draft store
// per form kind, the shared submission controller and the connectivity
// monitor. A session is driven from a single goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/connectivity"
	"github.com/mmdatafocus/dispatch_forms/forms"
	"github.com/mmdatafocus/dispatch_forms/ledger"
	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/submission"
	"github.com/mmdatafocus/dispatch_forms/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownTab   = errors.New("form kind is not open in this session")
	ErrNoIdentifier = errors.New("identifying field is empty")
	ErrNotEditing   = errors.New("form is not editable while a submission is in progress")
)

// Ledger is what a session needs from the remote side.
type Ledger interface {
	submission.Submitter
	Lookup(ctx context.Context, kind models.FormKind, date string, identifier string) (map[string]any, error)
}

type Options struct {
	// Kinds are the tabs to open, in order. Empty opens every kind.
	Kinds  []models.FormKind
	Cache  localcache.Cache
	Ledger Ledger
	// Prober feeds the connectivity monitor. Nil means always online.
	Prober        connectivity.Prober
	ProbeInterval time.Duration
	// Identifiers are lookup values known at startup, keyed by kind.
	Identifiers     map[models.FormKind]string
	RemotePrefetch  bool
	AutoAcknowledge bool
	Clock           func() time.Time
	Logger          *logrus.Logger
}

type Session struct {
	id         string
	kinds      []models.FormKind
	tabs       map[models.FormKind]*forms.Store
	active     models.FormKind
	controller *submission.Controller
	monitor    *connectivity.Monitor
	cache      localcache.Cache
	ledger     Ledger
	prefetch   bool
	logger     *logrus.Logger

	stop      context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open creates the tabs, hydrates each one and binds the controller to the
// first tab. Hydration never fails the session: a missing cache entry falls
// back to a remote lookup when the identifying value is known, and any
// lookup failure falls back to the default draft.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Ledger == nil {
		return nil, errors.New("session needs a ledger client")
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = models.FormKinds()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = config.GetLogger()
	}

	s := &Session{
		id:       uuid.New().String(),
		tabs:     make(map[models.FormKind]*forms.Store, len(kinds)),
		cache:    opts.Cache,
		ledger:   opts.Ledger,
		prefetch: opts.RemotePrefetch,
		logger:   opts.Logger,
	}
	ctx = utils.SetSessionIdInContext(ctx, s.id)

	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: %q", models.ErrUnknownFormKind, kind)
		}
		if _, dup := s.tabs[kind]; dup {
			continue
		}
		store, err := forms.NewStore(kind, opts.Cache, forms.WithClock(opts.Clock), forms.WithLogger(opts.Logger))
		if err != nil {
			return nil, err
		}
		s.hydrate(ctx, store, opts.Identifiers[kind])
		s.tabs[kind] = store
		s.kinds = append(s.kinds, kind)
	}
	s.active = s.kinds[0]

	ctrlOpts := []submission.Option{
		submission.WithSessionId(s.id),
		submission.WithAutoAcknowledge(opts.AutoAcknowledge),
		submission.WithLogger(opts.Logger),
		submission.WithClock(opts.Clock),
	}
	if locker, ok := opts.Cache.(localcache.SubmitLocker); ok {
		ctrlOpts = append(ctrlOpts, submission.WithSubmitLocker(locker))
	}
	s.controller = submission.NewController(s.tabs[s.active], opts.Ledger, ctrlOpts...)

	prober := opts.Prober
	if prober == nil {
		prober = connectivity.ProberFunc(func(context.Context) bool { return true })
	}
	s.monitor = connectivity.NewMonitor(ctx, prober)
	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	s.stop = stop
	if opts.Prober != nil && opts.ProbeInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.monitor.Run(runCtx, opts.ProbeInterval)
		}()
	}
	return s, nil
}

func (s *Session) hydrate(ctx context.Context, store *forms.Store, identifier string) {
	kind := store.Kind()
	if s.cache != nil {
		if rec, ok := s.cache.Load(ctx, kind); ok {
			if err := store.Hydrate(rec); err != nil {
				config.LogError(s.logger, "session", "hydrate", "cache hydrate", string(kind), err)
			}
			return
		}
	}
	if !s.prefetch || strings.TrimSpace(identifier) == "" {
		return
	}
	rec, err := s.lookup(ctx, store, identifier)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"session_id": s.id, "form_kind": string(kind)}).
			Debugf("remote lookup skipped: %v", err)
		return
	}
	if err := store.Hydrate(rec); err != nil {
		config.LogError(s.logger, "session", "hydrate", "lookup hydrate", string(kind), err)
	}
}

func (s *Session) lookup(ctx context.Context, store *forms.Store, identifier string) (models.DraftRecord, error) {
	base := store.Record()
	data, err := s.ledger.Lookup(ctx, store.Kind(), base.Fields["date"], identifier)
	if err != nil {
		return models.DraftRecord{}, err
	}
	return ledger.LookupToRecord(store.Kind(), base, data), nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Kinds() []models.FormKind { return slices.Clone(s.kinds) }

func (s *Session) Controller() *submission.Controller { return s.controller }

func (s *Session) Monitor() *connectivity.Monitor { return s.monitor }

// Tab returns the store for kind, or nil if it is not open.
func (s *Session) Tab(kind models.FormKind) *forms.Store { return s.tabs[kind] }

// Active returns the store of the selected tab.
func (s *Session) Active() *forms.Store { return s.tabs[s.active] }

// SwitchTab selects another open form. Refused unless the controller is Editing.
func (s *Session) SwitchTab(kind models.FormKind) error {
	store, ok := s.tabs[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTab, kind)
	}
	if err := s.controller.Bind(store); err != nil {
		return err
	}
	s.active = kind
	return nil
}

// SetField edits the active tab. Edits are only accepted while Editing.
func (s *Session) SetField(ctx context.Context, name string, value string) error {
	if s.controller.State() != submission.StateEditing {
		return ErrNotEditing
	}
	return s.Active().SetField(utils.SetSessionIdInContext(ctx, s.id), name, value)
}

// Reset discards the active draft and its cache entry.
func (s *Session) Reset(ctx context.Context) error {
	if s.controller.State() != submission.StateEditing {
		return ErrNotEditing
	}
	s.Active().Reset(utils.SetSessionIdInContext(ctx, s.id))
	return nil
}

// Prefetch replaces the active draft with the ledger's record for its
// current date and identifying field, and mirrors it to the cache.
func (s *Session) Prefetch(ctx context.Context) error {
	if s.controller.State() != submission.StateEditing {
		return ErrNotEditing
	}
	ctx = utils.SetSessionIdInContext(ctx, s.id)
	store := s.Active()
	field := store.Spec().LookupField
	identifier := strings.TrimSpace(store.Record().Get(field))
	if identifier == "" {
		return fmt.Errorf("%w: %s", ErrNoIdentifier, field)
	}
	rec, err := s.lookup(ctx, store, identifier)
	if err != nil {
		return err
	}
	if err := store.Hydrate(rec); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Save(ctx, store.Kind(), store.Record()); err != nil {
			config.LogError(s.logger, "session", "Prefetch", "cache save", string(store.Kind()), err)
		}
	}
	return nil
}

// Close stops the connectivity monitor. Drafts stay in the cache.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.stop()
		s.wg.Wait()
	})
}
