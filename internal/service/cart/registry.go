package cart

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type registryEntry struct {
	manager  *Manager
	lastSeen time.Time
	ready    chan struct{}
}

// Registry hands out one Manager per session id.
type Registry struct {
	mu      sync.Mutex
	deps    Deps
	logger  zerolog.Logger
	now     func() time.Time
	entries map[string]*registryEntry
}

func NewRegistry(deps Deps) *Registry {
	l := zerolog.Nop()
	if deps.Logger != nil {
		l = *deps.Logger
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		deps:    deps,
		logger:  l,
		now:     now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the manager for s.ID, creating it on first use. A new manager restores
// its snapshot and pulls the remote cart; an existing one picks up identity changes.
func (r *Registry) Get(ctx context.Context, s Session) *Manager {
	r.mu.Lock()
	e, ok := r.entries[s.ID]
	if ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return e.manager
		}
		if err := e.manager.Identify(ctx, s); err != nil {
			r.logger.Warn().Err(err).Str("session_id", s.ID).Msg("cart registry: identify")
		}
		return e.manager
	}
	m := NewManager(r.deps, s)
	e = &registryEntry{manager: m, lastSeen: r.now(), ready: make(chan struct{})}
	r.entries[s.ID] = e
	r.mu.Unlock()
	defer close(e.ready)

	if _, err := m.LoadSnapshot(ctx); err != nil {
		r.logger.Warn().Err(err).Str("session_id", s.ID).Msg("cart registry: load snapshot")
	}
	if m.CleanupExpiredGifts() > 0 {
		if err := m.SaveSnapshot(ctx); err != nil {
			r.logger.Warn().Err(err).Str("session_id", s.ID).Msg("cart registry: save snapshot")
		}
	}
	if s.Remote() {
		if err := m.Sync(ctx); err != nil {
			r.logger.Warn().Err(err).Str("session_id", s.ID).Msg("cart registry: initial sync")
		}
	}
	return m
}

// CleanupExpiredGifts sweeps expired wheel gifts in every session and returns the
// number of lines removed.
func (r *Registry) CleanupExpiredGifts(ctx context.Context) int {
	total := 0
	for _, m := range r.managers() {
		n := m.CleanupExpiredGifts()
		if n == 0 {
			continue
		}
		total += n
		if err := m.SaveSnapshot(ctx); err != nil {
			r.logger.Warn().Err(err).Str("session_id", m.Session().ID).Msg("cart registry: save snapshot")
		}
	}
	if total > 0 {
		r.logger.Info().Int("removed", total).Msg("cart registry: expired wheel gifts removed")
	}
	return total
}

// Evict drops managers not used for longer than idle. Their snapshots stay in the store.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	n := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) managers() []*Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Manager, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.manager)
	}
	return out
}
