package orchestrator

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"popup-orchestrator/internal/platform/clock"
	"popup-orchestrator/internal/platform/metrics"
)

// SessionID identifies one browser tab's session.
type SessionID string

// WidgetHost is the tab-side bridge a session drives its widget through.
type WidgetHost interface {
	http.Handler
	Attached() bool
	Close() error
}

// Session pairs an orchestrator with the widget host of its tab.
type Session struct {
	ID           SessionID
	Orchestrator *Orchestrator
	Widget       WidgetHost
	CreatedAt    time.Time

	lastSeen time.Time
}

// Factory builds the parts of a new session.
type Factory func(id SessionID) (*Orchestrator, WidgetHost)

// Registry owns every live session. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	store   Store
	factory Factory
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewRegistry returns a Registry backed by an InMemoryStore.
func NewRegistry(factory Factory, clk clock.Clock, log *slog.Logger, m *metrics.Metrics) *Registry {
	return NewRegistryWithStore(NewInMemoryStore(), factory, clk, log, m)
}

// NewRegistryWithStore returns a Registry that uses store.
func NewRegistryWithStore(store Store, factory Factory, clk clock.Clock, log *slog.Logger, m *metrics.Metrics) *Registry {
	if clk == nil {
		clk = clock.Real()
	}
	return &Registry{store: store, factory: factory, clock: clk, log: log, metrics: m}
}

// Create starts a new idle session.
func (r *Registry) Create() *Session {
	id := SessionID(uuid.NewString())
	o, host := r.factory(id)
	now := r.clock.Now()
	sess := &Session{ID: id, Orchestrator: o, Widget: host, CreatedAt: now, lastSeen: now}

	r.mu.Lock()
	r.store.Put(sess)
	r.mu.Unlock()

	r.metrics.IncSessionsCreated()
	r.log.Info("session created", slog.String("session_id", string(id)))
	return sess
}

// Get returns the session and marks it as recently used.
func (r *Registry) Get(id SessionID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = r.clock.Now()
	return sess, nil
}

// Close tears a session down and forgets it.
func (r *Registry) Close(id SessionID) error {
	r.mu.Lock()
	sess, ok := r.store.Get(id)
	if ok {
		r.store.Delete(id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.release(sess)
	r.log.Info("session closed", slog.String("session_id", string(id)))
	return nil
}

// CloseAll tears every session down concurrently. It returns ctx's error if
// ctx ends first.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	all := r.store.List()
	for _, sess := range all {
		r.store.Delete(sess.ID)
	}
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, sess := range all {
		sess := sess
		g.Go(func() error {
			r.release(sess)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.log.Info("all sessions closed", slog.Int("count", len(all)))
	return nil
}

// Sweep closes sessions with no attached tab that have not been used for ttl.
// It returns how many were closed.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.clock.Now().Add(-ttl)

	r.mu.Lock()
	var idle []*Session
	for _, sess := range r.store.List() {
		if sess.lastSeen.Before(cutoff) && !sess.Widget.Attached() {
			r.store.Delete(sess.ID)
			idle = append(idle, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		r.release(sess)
		r.log.Info("idle session swept", slog.String("session_id", string(sess.ID)))
	}
	return len(idle)
}

// ActiveCount returns how many sessions are not idle.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	all := r.store.List()
	r.mu.Unlock()

	n := 0
	for _, sess := range all {
		if sess.Orchestrator.State() != StateIdle {
			n++
		}
	}
	return n
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.store.List())
}

func (r *Registry) release(sess *Session) {
	sess.Orchestrator.Reset()
	if err := sess.Widget.Close(); err != nil {
		r.log.Debug("widget host close failed",
			slog.String("session_id", string(sess.ID)),
			slog.String("error", err.Error()))
	}
}
