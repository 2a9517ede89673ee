// Package reload implements the Hot-Reload Manager (spec.md C7): it
// classifies raw File Observer events into typed reload events, debounces
// them per (type, id), and dispatches to per-type handlers under a
// per-key cancellation and timeout discipline.
package reload

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/watch"
)

// ChangeType is the typed classification of a reload event.
type ChangeType string

const (
	ChangeAdded            ChangeType = "added"
	ChangeModified         ChangeType = "modified"
	ChangeRemoved          ChangeType = "removed"
	ChangeConfigChanged    ChangeType = "config_changed"
	ChangeCategoryChanged  ChangeType = "category_changed"
)

// Event is the typed reload event handed to a Registration's Handler.
type Event struct {
	Type               model.Type
	Reason             string
	AffectedFiles      []string
	ChangeType         ChangeType
	ID                 string
	Category           string
	Timestamp          time.Time
	RequiresFullReload bool
}

// Handler reacts to one Event. It must never panic across the manager
// boundary; the manager recovers and logs instead of propagating.
type Handler func(ctx context.Context, ev Event) error

// Registration binds one resource type's watch directories and entry
// filename conventions to the handler responsible for keeping its
// registry current.
type Registration struct {
	Type          model.Type
	Directories   []string
	EntryFile     string   // e.g. "gate.yaml"; "" for prompts (category/id layout)
	AuxFiles      []string // e.g. ["guidance.md"]
	LegacyConfig  string   // e.g. "promptsConfig.json"; "" if not applicable
	Handler       Handler
}

type keyState struct {
	mu       sync.Mutex
	cancel   context.CancelFunc
	timer    *time.Timer
	lastFire Event
}

// Manager is the central reload coordinator.
type Manager struct {
	regs     []Registration
	debounce time.Duration
	timeout  time.Duration
	obs      *watch.Observer

	mu    sync.Mutex
	keys  map[string]*keyState
	wg    sync.WaitGroup
	drain chan struct{}
}

// New builds a Manager. Call Start to begin watching.
func New(regs []Registration) (*Manager, error) {
	var dirs []string
	seen := map[string]bool{}
	for _, r := range regs {
		for _, d := range r.Directories {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
		}
	}

	obs, err := watch.New(dirs, watch.Options{})
	if err != nil {
		return nil, err
	}

	return &Manager{
		regs:     regs,
		debounce: 200 * time.Millisecond,
		timeout:  5 * time.Second,
		obs:      obs,
		keys:     make(map[string]*keyState),
	}, nil
}

// Start begins observing and dispatching.
func (m *Manager) Start() error {
	if err := m.obs.Start(); err != nil {
		return err
	}
	go m.consume()
	return nil
}

// Stop halts the underlying observer. In-flight handlers are allowed to
// finish or time out on their own.
func (m *Manager) Stop() error {
	return m.obs.Stop()
}

// Drain blocks until every currently-scheduled or in-flight dispatch has
// completed, for tests and orderly shutdown.
func (m *Manager) Drain() {
	type due struct {
		reg Registration
		ks  *keyState
	}
	var pending []due
	m.mu.Lock()
	for _, ks := range m.keys {
		ks.mu.Lock()
		if ks.timer != nil && ks.timer.Stop() {
			for _, reg := range m.regs {
				if reg.Type == ks.lastFire.Type {
					pending = append(pending, due{reg: reg, ks: ks})
					break
				}
			}
		}
		ks.mu.Unlock()
	}
	m.mu.Unlock()
	for _, d := range pending {
		m.dispatch(d.reg, d.ks)
	}
	m.wg.Wait()
}

func (m *Manager) consume() {
	for ev := range m.obs.Changes() {
		reg, typed, ok := m.classify(ev)
		if !ok {
			logger.GetLogger().Debug().Str("path", ev.Path).Msg("reload event ignored: unclassifiable path")
			continue
		}
		m.schedule(reg, typed)
	}
}

// classify walks a raw observer event back to its owning registration
// and typed reload event (spec.md §4.7).
func (m *Manager) classify(raw watch.Event) (Registration, Event, bool) {
	for _, reg := range m.regs {
		for _, root := range reg.Directories {
			rel, err := filepath.Rel(root, raw.Path)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			segs := strings.Split(filepath.ToSlash(rel), "/")
			base := segs[len(segs)-1]

			if reg.LegacyConfig != "" && matchesLegacy(base, reg.LegacyConfig) {
				return reg, Event{
					Type: reg.Type, Reason: string(raw.Operation),
					AffectedFiles: []string{raw.Path}, ChangeType: ChangeConfigChanged,
					Timestamp: raw.Timestamp, RequiresFullReload: true,
				}, true
			}

			if reg.Type == model.TypePrompt {
				if ev, ok := classifyPrompt(reg, raw, segs); ok {
					return reg, ev, true
				}
				continue
			}

			if ev, ok := classifyFlatOrGrouped(reg, raw, segs, base); ok {
				return reg, ev, true
			}
		}
	}
	return Registration{}, Event{}, false
}

func matchesLegacy(base, pattern string) bool {
	ok, _ := filepath.Match(pattern, base)
	return ok
}

// classifyPrompt handles the category/id addressing scheme unique to
// prompts: category.yaml edits, directory-layout prompt.yaml and its
// aux files, single-file {id}.yaml, and nested tools/{tool_id}/tool.yaml
// (treated as a change to the owning prompt, since tool bodies are
// inlined into the prompt payload).
func classifyPrompt(reg Registration, raw watch.Event, segs []string) (Event, bool) {
	base := segs[len(segs)-1]

	if len(segs) == 2 && base == categoryEntryName {
		return Event{
			Type: reg.Type, Reason: string(raw.Operation),
			AffectedFiles: []string{raw.Path}, ChangeType: ChangeCategoryChanged,
			Category: segs[0], Timestamp: raw.Timestamp,
		}, true
	}

	if len(segs) == 2 && (strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")) && base != categoryEntryName {
		id := strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
		return Event{
			Type: reg.Type, Reason: string(raw.Operation), AffectedFiles: []string{raw.Path},
			ChangeType: mapChangeType(raw.Operation), ID: id, Category: segs[0], Timestamp: raw.Timestamp,
		}, true
	}

	if len(segs) >= 3 {
		category, id := segs[0], segs[1]
		if base == promptEntryName || isPromptAux(base) {
			return Event{
				Type: reg.Type, Reason: string(raw.Operation), AffectedFiles: []string{raw.Path},
				ChangeType: mapChangeType(raw.Operation), ID: id, Category: category, Timestamp: raw.Timestamp,
			}, true
		}
		if len(segs) >= 5 && segs[2] == "tools" && base == toolEntryName {
			return Event{
				Type: reg.Type, Reason: string(raw.Operation), AffectedFiles: []string{raw.Path},
				ChangeType: ChangeModified, ID: id, Category: category, Timestamp: raw.Timestamp,
			}, true
		}
	}

	return Event{}, false
}

const (
	categoryEntryName = "category.yaml"
	promptEntryName   = "prompt.yaml"
	toolEntryName     = "tool.yaml"
)

func isPromptAux(base string) bool {
	switch base {
	case "system-message.md", "user-message.md":
		return true
	default:
		return false
	}
}

// classifyFlatOrGrouped handles gate/methodology/style/script-tool's
// shared flat ({id}/entry) and grouped ({group}/{id}/entry) layouts.
func classifyFlatOrGrouped(reg Registration, raw watch.Event, segs []string, base string) (Event, bool) {
	matches := base == reg.EntryFile || containsString(reg.AuxFiles, base)
	if !matches {
		return Event{}, false
	}

	var id string
	switch len(segs) {
	case 2: // {id}/entry
		id = segs[0]
	case 3: // {group}/{id}/entry
		id = segs[1]
	default:
		return Event{}, false
	}

	return Event{
		Type: reg.Type, Reason: string(raw.Operation), AffectedFiles: []string{raw.Path},
		ChangeType: mapChangeType(raw.Operation), ID: id, Timestamp: raw.Timestamp,
	}, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mapChangeType(op watch.Operation) ChangeType {
	switch op {
	case watch.OpAdded:
		return ChangeAdded
	case watch.OpRemoved:
		return ChangeRemoved
	default:
		return ChangeModified
	}
}

// schedule debounces ev under its (type, id or category) key, cancelling
// any in-flight handler for the same key and resetting the debounce
// timer on every new event for that key.
func (m *Manager) schedule(reg Registration, ev Event) {
	key := reloadKey(ev)

	m.mu.Lock()
	ks, ok := m.keys[key]
	if !ok {
		ks = &keyState{}
		m.keys[key] = ks
	}
	m.mu.Unlock()

	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.lastFire = ev
	if ks.timer != nil {
		ks.timer.Stop()
	}
	if ks.cancel != nil {
		ks.cancel()
		ks.cancel = nil
	}

	ks.timer = time.AfterFunc(m.debounce, func() {
		m.dispatch(reg, ks)
	})
}

func reloadKey(ev Event) string {
	if ev.ChangeType == ChangeConfigChanged {
		return string(ev.Type) + ":__config__"
	}
	if ev.ChangeType == ChangeCategoryChanged {
		return string(ev.Type) + ":__category__:" + ev.Category
	}
	if ev.Category != "" {
		return string(ev.Type) + ":" + ev.Category + "/" + ev.ID
	}
	return string(ev.Type) + ":" + ev.ID
}

func (m *Manager) dispatch(reg Registration, ks *keyState) {
	ks.mu.Lock()
	ev := ks.lastFire
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	ks.cancel = cancel
	ks.mu.Unlock()

	m.wg.Add(1)
	defer m.wg.Done()
	defer cancel()

	done := make(chan struct{})
	var handlerErr error
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().Error().
					Str("type", string(ev.Type)).Str("id", ev.ID).
					Msg("reload handler panicked, recovered")
			}
		}()
		handlerErr = reg.Handler(ctx, ev)
	}()

	select {
	case <-done:
		if handlerErr != nil {
			logger.GetLogger().Warn().
				Str("type", string(ev.Type)).Str("id", ev.ID).
				Str("changeType", string(ev.ChangeType)).Err(handlerErr).
				Msg("reload handler failed")
		}
	case <-ctx.Done():
		logger.GetLogger().Warn().
			Str("type", string(ev.Type)).Str("id", ev.ID).
			Msg("reload handler timed out, abandoning")
	}
}
