// Package session tracks in-flight searches so a client can cancel its own
// search by session ID.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	cancel  context.CancelFunc
	seq     uint64
	started time.Time
}

// Registry maps session IDs to the cancel function of their running
// search. A session runs at most one search; starting another under the
// same ID cancels the first.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	seq      uint64
	logger   *slog.Logger
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*entry),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start registers a search under id, generating one when id is empty. The
// returned context is cancelled by Cancel(id), by a later Start with the
// same id, or when parent ends. The caller must call finish when the search
// returns.
func (r *Registry) Start(parent context.Context, id string) (ctx context.Context, sessionID string, finish func()) {
	if id == "" {
		id = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	r.seq++
	seq := r.seq
	if prev, ok := r.sessions[id]; ok {
		prev.cancel()
		r.logger.InfoContext(parent, "search superseded", "session_id", id)
	}
	r.sessions[id] = &entry{cancel: cancel, seq: seq, started: time.Now()}
	r.mu.Unlock()

	finish = func() {
		r.mu.Lock()
		if cur, ok := r.sessions[id]; ok && cur.seq == seq {
			delete(r.sessions, id)
		}
		r.mu.Unlock()
		cancel()
	}
	return ctx, id, finish
}

// Cancel stops the search running under id and reports whether there was one.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.cancel()
	r.logger.Info("search cancelled", "session_id", id, "running_for", time.Since(e.started))
	return true
}

// CancelAll stops every running search. Used on shutdown.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.cancel()
	}
	return len(sessions)
}

// Active returns the number of running searches.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
