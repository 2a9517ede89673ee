// Package watch implements the File Observer (spec.md C6): a pure,
// uninterpreting transport over fsnotify that collapses atomic-write
// bursts into one logical event per target path.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ternarybob/promptd/internal/logger"
)

// Operation classifies a raw filesystem event.
type Operation string

const (
	OpAdded    Operation = "added"
	OpModified Operation = "modified"
	OpRemoved  Operation = "removed"
)

// Event is the raw, uninterpreted observation the Observer emits.
type Event struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// defaultFilters mirrors spec.md §4.6's filename-filter set.
var defaultFilters = []string{
	"*.yaml", "*.md", "prompt.yaml", "gate.yaml", "methodology.yaml",
	"guidance.md", "phases.yaml", "prompts*.json",
}

// Observer watches a set of root directories (recursively) and emits
// Events on Changes(), debounced so that a .tmp/.bak atomic-write burst
// collapses to a single logical event per target path.
type Observer struct {
	roots      []string
	filters    []string
	debounce   time.Duration
	fsWatcher  *fsnotify.Watcher
	events     chan Event
	stopCh     chan struct{}
	pending    map[string]pendingEvent
	pendingMu  sync.Mutex
	running    bool
	mu         sync.Mutex
}

type pendingEvent struct {
	op       Operation
	observed time.Time
}

// Options configures an Observer. A nil Filters falls back to
// defaultFilters; Debounce defaults to 100ms.
type Options struct {
	Filters  []string
	Debounce time.Duration
}

func New(roots []string, opts Options) (*Observer, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	filters := opts.Filters
	if filters == nil {
		filters = defaultFilters
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	return &Observer{
		roots:     roots,
		filters:   filters,
		debounce:  debounce,
		fsWatcher: fsWatcher,
		events:    make(chan Event, 256),
		stopCh:    make(chan struct{}),
		pending:   make(map[string]pendingEvent),
	}, nil
}

// Changes returns the channel Events are delivered on. Callers must
// drain it; when the buffer is full, the event being flushed is dropped
// and logged rather than blocking the observer.
func (o *Observer) Changes() <-chan Event { return o.events }

// Start begins watching. It is idempotent.
func (o *Observer) Start() error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = true
	o.mu.Unlock()

	if err := o.addRoots(); err != nil {
		return err
	}

	go o.consumeFsEvents()
	go o.flushLoop()
	return nil
}

// Stop tears down the underlying watcher and halts delivery.
func (o *Observer) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return nil
	}
	o.running = false
	close(o.stopCh)
	return o.fsWatcher.Close()
}

func (o *Observer) addRoots() error {
	for _, root := range o.roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if !info.IsDir() {
				return nil
			}
			if err := o.fsWatcher.Add(path); err != nil {
				logger.GetLogger().Warn().Err(err).Str("path", path).Msg("cannot watch directory")
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (o *Observer) consumeFsEvents() {
	for {
		select {
		case <-o.stopCh:
			return
		case ev, ok := <-o.fsWatcher.Events:
			if !ok {
				return
			}
			o.handleRaw(ev)
		case err, ok := <-o.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.GetLogger().Warn().Err(err).Msg("filesystem watcher error")
		}
	}
}

func (o *Observer) handleRaw(ev fsnotify.Event) {
	// A newly-created directory needs its own watch added so nested
	// resource dirs created after startup are observed too.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := o.fsWatcher.Add(ev.Name); err != nil {
				logger.GetLogger().Warn().Err(err).Str("path", ev.Name).Msg("cannot watch new directory")
			}
			return
		}
	}

	op := classifyOp(ev.Op)
	if op == "" {
		return
	}

	target, finalOp := collapseAtomicWrite(ev.Name, op)
	if !matchesFilter(o.filters, filepath.Base(target)) {
		return
	}

	o.pendingMu.Lock()
	// The rename that completes an atomic write surfaces as a Create on
	// the target; keep the burst reported as a modification.
	if prev, ok := o.pending[target]; ok && prev.op == OpModified && finalOp == OpAdded {
		finalOp = OpModified
	}
	o.pending[target] = pendingEvent{op: finalOp, observed: time.Now()}
	o.pendingMu.Unlock()
}

// collapseAtomicWrite maps a .tmp/.bak path produced by the safe writer
// (C8) back onto the logical target path it is standing in for, so the
// burst of create/rename/remove operations around one atomic write
// surfaces as a single "modified" event on the real file.
func collapseAtomicWrite(path string, op Operation) (string, Operation) {
	switch {
	case strings.HasSuffix(path, ".tmp"):
		return strings.TrimSuffix(path, ".tmp"), OpModified
	case strings.HasSuffix(path, ".bak"):
		return strings.TrimSuffix(path, ".bak"), OpModified
	default:
		return path, op
	}
}

func classifyOp(op fsnotify.Op) Operation {
	switch {
	case op&fsnotify.Create != 0:
		return OpAdded
	case op&fsnotify.Write != 0:
		return OpModified
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return OpRemoved
	default:
		return ""
	}
}

func matchesFilter(filters []string, base string) bool {
	for _, f := range filters {
		if ok, _ := filepath.Match(f, base); ok {
			return true
		}
	}
	return false
}

func (o *Observer) flushLoop() {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.flushDue()
		}
	}
}

func (o *Observer) flushDue() {
	o.pendingMu.Lock()
	defer o.pendingMu.Unlock()

	now := time.Now()
	for path, pe := range o.pending {
		if now.Sub(pe.observed) < o.debounce {
			continue
		}
		delete(o.pending, path)

		finalOp := pe.op
		if finalOp != OpRemoved {
			if _, err := os.Stat(path); os.IsNotExist(err) {
				finalOp = OpRemoved
			}
		}

		select {
		case o.events <- Event{Path: path, Operation: finalOp, Timestamp: now}:
		default:
			logger.GetLogger().Warn().Str("path", path).Msg("observer event channel full, dropping event")
		}
	}
}
