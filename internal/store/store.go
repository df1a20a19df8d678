// Package store is the single owner of the in-memory project/task snapshot.
//
// A Store runs in one of three modes. In Guest mode every operation reads and
// writes the local blob. Signing in moves it to Loading while the owner's
// remote snapshot is fetched, then to Cloud, where every operation goes to
// the relational backend and is followed by a full re-fetch. Signing out
// swaps the local blob back in. The two data sets are never merged.
//
// Mutations and mode transitions are serialized. Read views never block on
// I/O and always return copies.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tgienger/seotrack/internal/bus"
	"github.com/tgienger/seotrack/internal/catalog"
	"github.com/tgienger/seotrack/internal/clock"
	seoerrors "github.com/tgienger/seotrack/internal/errors"
	"github.com/tgienger/seotrack/internal/metrics"
	"github.com/tgienger/seotrack/internal/models"
	"github.com/tgienger/seotrack/internal/objstore"
)

// Bus topics published by the store.
const (
	TopicChanged = "store.changed"
	TopicMode    = "store.mode"
)

// GuestActor is the history actor label used in guest mode
const GuestActor = "guest"

// Mode is the data source the store is bound to
type Mode string

const (
	ModeGuest   Mode = "guest"
	ModeLoading Mode = "loading"
	ModeCloud   Mode = "cloud"
)

// State is the current mode plus the identity it belongs to
type State struct {
	Mode   Mode   `json:"mode"`
	UserID string `json:"userId,omitempty"`
}

func (s State) String() string {
	if s.UserID == "" {
		return string(s.Mode)
	}
	return fmt.Sprintf("%s(%s)", s.Mode, s.UserID)
}

// Store holds the snapshot of the current mode
type Store struct {
	// opMu serializes mutations and mode transitions
	opMu sync.Mutex

	mu      sync.RWMutex
	snap    models.Snapshot
	state   State
	loading bool

	backend backend

	local   LocalStore
	remote  Remote
	objects Objects

	log       zerolog.Logger
	clock     clock.Clock
	bus       *bus.Bus
	metrics   *metrics.Metrics
	templates func() []models.TaskTemplate
	maxBytes  int64
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock sets the clock used for timestamps
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithBus sets the bus change events are published on
func WithBus(b *bus.Bus) Option {
	return func(s *Store) { s.bus = b }
}

// WithMetrics sets the metric instruments
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithTemplates replaces the task catalog new projects are seeded from
func WithTemplates(fn func() []models.TaskTemplate) Option {
	return func(s *Store) { s.templates = fn }
}

// WithMaxAttachmentBytes sets the upload size limit in both modes
func WithMaxAttachmentBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New returns a store in guest mode with an empty snapshot. Call Init to
// load the guest blob. remote and objects may be nil, in which case signing
// in yields an empty cloud snapshot and attachment uploads fail.
func New(local LocalStore, remote Remote, objects Objects, opts ...Option) *Store {
	s := &Store{
		snap:      models.EmptySnapshot(),
		state:     State{Mode: ModeGuest},
		local:     local,
		remote:    remote,
		objects:   objects,
		log:       zerolog.Nop(),
		clock:     clock.RealClock{},
		bus:       bus.New(),
		metrics:   metrics.Noop(),
		templates: catalog.All,
		maxBytes:  objstore.DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "store").Logger()
	s.backend = s.newGuestBackend(nil)
	return s
}

// Init loads the guest blob into the snapshot. If the blob exists but cannot
// be read, the snapshot stays empty and guest mutations fail until a later
// attempt reads it.
func (s *Store) Init(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	snap, err := s.local.Load(ctx)
	s.backend = s.newGuestBackend(err)
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Msg("guest data not loaded, writes disabled until it is readable")
	} else {
		s.log.Debug().Int("projects", len(snap.Projects)).Msg("guest data loaded")
	}
	s.bus.Publish(TopicChanged, "init")
}

// State returns the current mode
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether a remote fetch for a new identity is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetIdentity follows the identity signal. An empty userID means signed out.
// Setting the identity the store is already bound to does nothing.
func (s *Store) SetIdentity(ctx context.Context, userID string) {
	userID = strings.TrimSpace(userID)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	cur := s.State()
	if userID == "" {
		if cur.Mode == ModeGuest {
			return
		}
		s.enterGuest(ctx)
		return
	}
	if cur.UserID == userID {
		return
	}
	s.enterCloud(ctx, userID)
}

func (s *Store) enterGuest(ctx context.Context) {
	snap, err := s.local.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("guest data not loaded, writes disabled until it is readable")
	}
	s.backend = s.newGuestBackend(err)

	s.mu.Lock()
	s.snap = snap
	s.state = State{Mode: ModeGuest}
	s.loading = false
	s.mu.Unlock()

	s.transitioned(ctx)
	s.bus.Publish(TopicChanged, "signout")
}

func (s *Store) enterCloud(ctx context.Context, userID string) {
	s.mu.Lock()
	s.snap = models.EmptySnapshot()
	s.state = State{Mode: ModeLoading, UserID: userID}
	s.loading = true
	s.mu.Unlock()
	s.transitioned(ctx)
	s.bus.Publish(TopicChanged, "loading")

	cb, err := s.newCloudBackend(userID)
	snap := models.EmptySnapshot()
	if err != nil {
		s.log.Error().Err(err).Str("user", userID).Msg("remote backend unavailable")
	} else {
		snap = cb.fetch(ctx, snap)
	}
	if cb != nil {
		s.backend = cb
	} else {
		s.backend = unavailableBackend{err: err}
	}

	s.mu.Lock()
	s.snap = snap
	s.state = State{Mode: ModeCloud, UserID: userID}
	s.loading = false
	s.mu.Unlock()

	s.transitioned(ctx)
	s.bus.Publish(TopicChanged, "signin")
}

func (s *Store) transitioned(ctx context.Context) {
	st := s.State()
	s.metrics.RecordTransition(ctx, string(st.Mode))
	s.log.Info().Str("mode", string(st.Mode)).Str("user", st.UserID).Msg("mode changed")
	s.bus.Publish(TopicMode, st)
}

// Subscribe returns a subscription to store events with the given topic
// prefix; "store." matches everything the store publishes
func (s *Store) Subscribe(prefix string) *bus.Subscription {
	return s.bus.Subscribe(prefix)
}

// Unsubscribe cancels a subscription
func (s *Store) Unsubscribe(sub *bus.Subscription) {
	s.bus.Unsubscribe(sub)
}

func (s *Store) actor() string {
	if st := s.State(); st.UserID != "" {
		return st.UserID
	}
	return GuestActor
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// current returns a private copy of the snapshot for a mutation to work on
func (s *Store) current() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) commit(op string, next models.Snapshot) {
	s.mu.Lock()
	s.snap = next.Normalize()
	s.mu.Unlock()
	s.bus.Publish(TopicChanged, op)
}

func (s *Store) record(ctx context.Context, op string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.RecordOperation(ctx, op, string(s.backend.mode()), outcome)
}

func (s *Store) recordNoop(ctx context.Context, op string) {
	s.metrics.RecordOperation(ctx, op, string(s.backend.mode()), metrics.OutcomeNoop)
}

// unavailableBackend serves cloud mode when no remote scope could be opened
type unavailableBackend struct{ err error }

func (u unavailableBackend) mode() Mode { return ModeCloud }

func (u unavailableBackend) ready(context.Context) error { return nil }

func (u unavailableBackend) fail() error {
	if u.err == nil {
		return errors.New("remote backend not configured")
	}
	return u.err
}

func (u unavailableBackend) createProject(context.Context, models.Snapshot, models.ProjectFields) (string, models.Snapshot, error) {
	return "", models.Snapshot{}, fmt.Errorf("%w: %w", seoerrors.ErrProjectCreate, u.fail())
}

func (u unavailableBackend) updateTask(context.Context, models.Snapshot, string, *models.HistoryEntry, models.TaskUpdate) (models.Snapshot, error) {
	return models.Snapshot{}, u.fail()
}

func (u unavailableBackend) putAttachment(context.Context, string, string, []byte) (string, error) {
	return "", u.fail()
}

func (u unavailableBackend) dropAttachment(context.Context, string) {}

func (u unavailableBackend) deleteProject(context.Context, models.Snapshot, string) (models.Snapshot, error) {
	return models.Snapshot{}, u.fail()
}
