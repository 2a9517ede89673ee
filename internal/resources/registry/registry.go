// Package registry implements the Resource Registries (spec.md C5): a
// thin, overlay-aware in-memory index built on top of a loader.Loader.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/resources/loader"
	"github.com/ternarybob/promptd/internal/resources/model"
)

// Filters narrows a List() call. A zero value matches everything.
type Filters struct {
	Category         string // prompts only; "" matches all categories
	EnabledOnly      bool
	RegisteredOnly   bool // elides resources not registered with the protocol
	CategoryDefaults map[string]bool
}

// Registry is the in-memory, qualified-key index of one resource type's
// Resources, populated at startup from a loader.Loader and kept current
// by the hot-reload manager's Replace/Remove calls.
type Registry struct {
	typ    model.Type
	ldr    loader.Loader
	mu     sync.RWMutex
	byKey  map[string]*model.Resource
	loaded bool
}

func New(ldr loader.Loader) *Registry {
	return &Registry{typ: ldr.Type(), ldr: ldr, byKey: make(map[string]*model.Resource)}
}

// Load populates the registry from the loader: discover() + load() for
// every id, primary-root resources taking precedence over overlay ones
// that share a qualified key (spec.md §4.5).
func (r *Registry) Load() error {
	ids, err := r.ldr.Discover()
	if err != nil {
		return err
	}

	// Load(id) already resolves primary-vs-overlay precedence per id
	// (spec.md §4.4): it tries roots in order and returns on the first
	// match, so the primary root's version always wins here.
	loaded := make(map[string]*model.Resource, len(ids))
	for _, id := range ids {
		res, ok := r.ldr.Load(id)
		if !ok {
			continue
		}
		loaded[res.QualifiedKey()] = res
	}

	r.mu.Lock()
	r.byKey = loaded
	r.loaded = true
	r.mu.Unlock()

	logger.GetLogger().Info().
		Str("type", string(r.typ)).
		Int("count", len(loaded)).
		Msg("registry loaded")
	return nil
}

// Get returns a snapshot lookup by qualified key.
func (r *Registry) Get(key string) (*model.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byKey[key]
	return res, ok
}

// List returns filtered snapshots, sorted by qualified key for
// deterministic output.
func (r *Registry) List(f Filters) []*model.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Resource, 0, len(r.byKey))
	for _, res := range r.byKey {
		if f.Category != "" && !strings.EqualFold(res.Category, f.Category) {
			continue
		}
		if f.EnabledOnly && !res.Enabled {
			continue
		}
		if f.RegisteredOnly {
			def := true
			if f.CategoryDefaults != nil {
				if d, ok := f.CategoryDefaults[res.Category]; ok {
					def = d
				}
			}
			if !res.Enabled || !res.RegisteredWithProtocol(def) {
				continue
			}
		}
		out = append(out, res)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedKey() < out[j].QualifiedKey() })
	return out
}

// Replace installs resource under key, used only by the hot-reload
// handler after a successful reload.
func (r *Registry) Replace(key string, resource *model.Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[key] = resource
}

// Remove deletes key, used on deletion events.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, key)
}

// Count returns the number of resources currently indexed.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// Type returns the resource type this registry indexes.
func (r *Registry) Type() model.Type { return r.typ }

// Loader exposes the underlying loader, used by the hot-reload manager
// to re-load a single id without reaching back through the registry.
func (r *Registry) Loader() loader.Loader { return r.ldr }

// Snapshot returns every currently-indexed resource keyed by qualified
// key, primarily for the baseline tracker (C9) and the sync compiler
// (C10), both of which need a stable full view rather than filtered
// iteration.
func (r *Registry) Snapshot() map[string]*model.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*model.Resource, len(r.byKey))
	for k, v := range r.byKey {
		out[k] = v
	}
	return out
}
