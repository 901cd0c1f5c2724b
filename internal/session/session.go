// Package session keeps one view controller per interactive view session.
//
// Each session owns its ViewState exclusively; events for a session are
// serialised by the session's own lock, so different sessions never contend.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propgrid/propgrid/internal/dataset"
	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/internal/observability"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
	"go.uber.org/zap"
)

// EventType names a user event applied to a session.
type EventType string

const (
	EventSearch   EventType = "search"
	EventSort     EventType = "sort"
	EventPage     EventType = "page"
	EventPageSize EventType = "page_size"
)

// Event is a user interaction with a view.
type Event struct {
	Type     EventType `json:"type"`
	Query    string    `json:"query,omitempty"`
	Field    string    `json:"field,omitempty"`
	Page     int       `json:"page,omitempty"`
	PageSize int       `json:"page_size,omitempty"`
}

// Page is the state of a session after its latest resolve.
type Page struct {
	SessionID       string          `json:"session_id"`
	Dataset         string          `json:"dataset"`
	State           types.ViewState `json:"state"`
	PageSizeOptions []int           `json:"page_size_options,omitempty"`
	Result          *view.Result    `json:"result"`
}

// Options configures a Manager.
type Options struct {
	// TTL is how long an idle session is kept. Defaults to 30 minutes.
	TTL time.Duration

	// DefaultPageSize is the page size of new sessions.
	DefaultPageSize int

	// PageSizeOptions restricts page size changes when non-empty.
	PageSizeOptions []int
}

// Session is one interactive view over a dataset.
type Session struct {
	ID      string
	Dataset string
	Created time.Time

	mu         sync.Mutex
	controller *view.Controller
	version    string
	lastUsed   time.Time
}

// Manager creates, serves and expires view sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	registry *dataset.Registry
	memo     *view.Memo
	stats    *observability.ViewStats
	opts     Options
	logger   *zap.Logger

	now func() time.Time
}

// NewManager creates a session manager over the datasets in registry.
// memo and stats may be nil.
func NewManager(registry *dataset.Registry, memo *view.Memo, stats *observability.ViewStats, opts Options, logger *zap.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = view.DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		registry: registry,
		memo:     memo,
		stats:    stats,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a session over the named dataset and resolves its first page.
func (m *Manager) Create(name string) (*Page, error) {
	ds, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}

	opts := []view.Option{
		view.WithPageSize(m.opts.DefaultPageSize),
		view.WithPageSizeOptions(m.opts.PageSizeOptions),
	}
	if m.memo != nil {
		opts = append(opts, view.WithMemo(m.memo, ds.Version))
	}
	c, err := view.NewController(ds.Rows, ds.Definition, opts...)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		Dataset:    name,
		Created:    now,
		controller: c,
		version:    ds.Version,
		lastUsed:   now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session", s.ID), zap.String("dataset", name))

	s.mu.Lock()
	defer s.mu.Unlock()
	return m.resolve(s)
}

// Get resolves the current page of session id.
func (m *Manager) Get(id string) (*Page, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return m.resolve(s)
}

// Apply applies ev to session id and resolves the resulting page. A rejected
// event leaves the session state unchanged.
func (m *Manager) Apply(id string, ev Event) (*Page, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.controller
	switch ev.Type {
	case EventSearch:
		c.OnSearch(ev.Query)
	case EventSort:
		if ev.Field == "" {
			c.ClearSort()
		} else if err := c.OnSort(ev.Field); err != nil {
			m.recordError(s)
			return nil, err
		}
	case EventPage:
		c.OnPageChange(ev.Page)
	case EventPageSize:
		if err := c.OnPageSizeChange(ev.PageSize); err != nil {
			m.recordError(s)
			return nil, err
		}
	default:
		return nil, gerrors.NewSessionError(gerrors.CodeUnknownEvent, fmt.Sprintf("unknown event type %q", ev.Type))
	}

	return m.resolve(s)
}

// Close ends session id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return notFound(id)
	}
	delete(m.sessions, id)
	m.logger.Debug("session closed", zap.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	threshold := m.now().Add(-m.opts.TTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastUsed.Before(threshold)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired idle sessions", zap.Int("removed", removed), zap.Int("remaining", len(m.sessions)))
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return s, nil
}

// resolve must be called with s.mu held. Sessions pick up a replaced
// dataset on their next resolve.
func (m *Manager) resolve(s *Session) (*Page, error) {
	if ds, err := m.registry.Get(s.Dataset); err == nil && ds.Version != s.version {
		s.controller.SetRows(ds.Rows, ds.Version)
		s.version = ds.Version
	}

	res, err := s.controller.Resolve()
	if err != nil {
		m.recordError(s)
		return nil, err
	}
	s.lastUsed = m.now()

	state := s.controller.State()
	if m.stats != nil {
		m.stats.RecordResolve(s.Dataset, state)
	}
	return &Page{
		SessionID:       s.ID,
		Dataset:         s.Dataset,
		State:           state,
		PageSizeOptions: s.controller.PageSizeOptions(),
		Result:          res,
	}, nil
}

func (m *Manager) recordError(s *Session) {
	if m.stats != nil {
		m.stats.RecordError(s.Dataset)
	}
}

func notFound(id string) error {
	return gerrors.NewSessionError(gerrors.CodeSessionNotFound, fmt.Sprintf("session %q not found", id))
}
