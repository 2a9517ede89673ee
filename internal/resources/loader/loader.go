// Package loader implements one Resource Loader per type (spec.md C4):
// discovery, caching, inlining of auxiliary files, and schema
// validation, backed by the path lists the Path Resolver (C1) computes.
package loader

import (
	"sort"

	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/resources/model"
)

// Loader is the contract every per-type loader satisfies (spec.md §4.4).
type Loader interface {
	Type() model.Type
	Discover() ([]string, error)
	Load(id string) (*model.Resource, bool)
	Exists(id string) bool
	LoadAll() map[string]*model.Resource
	ClearCache(id string)
	ClearCacheAll()
	Stats() model.CacheStats
	WatchDirs() []string
}

// base implements the parts of Loader that are identical across
// resource types: discovery, cache plumbing, and watch-dir reporting.
// Concrete loaders embed base and supply Load and their own
// type-specific file parsing.
type base struct {
	typ   model.Type
	roots []string
	entry string // entry filename probed for existence, e.g. "gate.yaml"
	cache *cache
}

func newBase(typ model.Type, roots []string, entry string) base {
	return base{typ: typ, roots: roots, entry: entry, cache: newCache()}
}

func (b *base) Type() model.Type { return b.typ }

func (b *base) Discover() ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	for _, root := range b.roots {
		rootIDs, err := discoverIDs(root, b.entry)
		if err != nil {
			logger.GetLogger().Warn().Err(err).Str("root", root).Str("type", string(b.typ)).Msg("discover failed for root")
			continue
		}
		for _, id := range rootIDs {
			key := normalizeID(id)
			if seen[key] {
				continue
			}
			seen[key] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (b *base) Exists(id string) bool {
	if _, ok := b.cache.peek(id); ok {
		return true
	}
	for _, root := range b.roots {
		if _, ok := locateDir(root, id, b.entry); ok {
			return true
		}
	}
	return false
}

func (b *base) ClearCache(id string) { b.cache.clear(id) }
func (b *base) ClearCacheAll()       { b.cache.clearAll() }
func (b *base) Stats() model.CacheStats { return b.cache.statsSnapshot() }

func (b *base) WatchDirs() []string {
	out := make([]string, len(b.roots))
	copy(out, b.roots)
	return out
}

// logFailure emits the single-line failure message spec.md §7 requires
// and bumps the error counter. It never causes Load to return an error
// to its caller -- only NotFound.
func (b *base) logFailure(kind model.ErrKind, id, path string, err error) {
	b.cache.recordError()
	logger.GetLogger().Warn().
		Str("type", string(b.typ)).
		Str("id", id).
		Str("path", path).
		Str("kind", kind.String()).
		Err(err).
		Msg("resource load failed")
}
