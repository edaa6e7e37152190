package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

type connEntry struct {
	Identity domain.Identity
	RoomKey  domain.RoomKey
	Conn     core.SignalConnection
}

// Registry tracks admitted connections and which room each one is bound
// to. A connection exists here from the moment the gate admits it, before
// any room event is processed.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

func (r *Registry) Bind(sid domain.ConnID, identity domain.Identity, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &connEntry{Identity: identity, Conn: conn}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", identity.ID).Msg("bound connection")
}

func (r *Registry) Unbind(sid domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound connection")
}

func (r *Registry) Identity(sid domain.ConnID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[sid]; ok {
		return e.Identity, true
	}
	return domain.Identity{}, false
}

func (r *Registry) Conn(sid domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) SetRoom(sid domain.ConnID, key domain.RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[sid]; ok {
		e.RoomKey = key
	}
}

func (r *Registry) ClearRoom(sid domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[sid]; ok {
		e.RoomKey = ""
	}
}

func (r *Registry) RoomOf(sid domain.ConnID) (domain.RoomKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok || e.RoomKey == "" {
		return "", false
	}
	return e.RoomKey, true
}
