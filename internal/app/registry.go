package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
)

// Registry owns the connection-id to transport mapping. A connection
// lives here from socket open to socket close; nothing else holds a
// strong reference to the transport.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]core.SignalConn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnectionID]core.SignalConn)}
}

func (r *Registry) Add(conn core.SignalConn) core.ConnectionID {
	id := core.ConnectionID(uuid.NewString())
	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection registered")
	return id
}

// Remove reports whether the id was still registered, so disconnect
// handling stays idempotent.
func (r *Registry) Remove(id core.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection removed")
	return true
}

func (r *Registry) Get(id core.ConnectionID) (core.SignalConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
