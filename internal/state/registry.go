package state

import "sync"

// Registry maps guild IDs to their runtime workspace state.
type Registry struct {
	mu         sync.RWMutex
	workspaces map[uint64]*Workspace
}

var globalRegistry *Registry

func InitRegistry() {
	globalRegistry = NewRegistry()
}

func NewRegistry() *Registry {
	return &Registry{
		workspaces: make(map[uint64]*Workspace),
	}
}

func GetRegistry() *Registry {
	return globalRegistry
}

func (r *Registry) GetOrCreate(guildID uint64) *Workspace {
	r.mu.RLock()
	ws, ok := r.workspaces[guildID]
	r.mu.RUnlock()
	if ok {
		return ws
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok = r.workspaces[guildID]; ok {
		return ws
	}
	ws = newWorkspace(guildID)
	r.workspaces[guildID] = ws
	return ws
}

func (r *Registry) Get(guildID uint64) *Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workspaces[guildID]
}

// Remove drops all runtime state for a guild on permanent departure.
func (r *Registry) Remove(guildID uint64) {
	r.mu.Lock()
	delete(r.workspaces, guildID)
	r.mu.Unlock()
}

func (r *Registry) All() []*Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		out = append(out, ws)
	}
	return out
}
