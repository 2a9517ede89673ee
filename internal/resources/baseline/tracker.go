// Package baseline implements the Change Tracker (spec.md C9): it
// compares the current set of resource source hashes against a
// previously-persisted baseline and reports what changed.
package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/safeio"
)

// Entry is one resource's recorded hash in a baseline file.
type Entry struct {
	Type       string `json:"type"`
	SourceHash string `json:"sourceHash"`
}

// file is the on-disk shape of a baseline snapshot.
type file struct {
	Entries map[string]Entry `json:"entries"`
}

// Delta summarizes what changed since the last baseline.
type Delta struct {
	Added    []string
	Modified []string
	Removed  []string
}

func (d Delta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// Tracker computes and persists baselines under a single cache path.
type Tracker struct {
	path string
}

func New(cacheDir string) *Tracker {
	return &Tracker{path: filepath.Join(cacheDir, "resource-baseline.json")}
}

// Compare builds the Delta between the previously-persisted baseline and
// current, a snapshot of qualified-key -> Resource across every
// registry. A missing or unreadable baseline is treated as empty
// (non-fatal), per spec.md §4.9.
func (t *Tracker) Compare(current map[string]*model.Resource) Delta {
	prev, err := t.load()
	if err != nil {
		logger.GetLogger().Warn().Err(err).Str("path", t.path).Msg("failed to read resource baseline, treating as empty")
		prev = file{Entries: map[string]Entry{}}
	}

	var delta Delta
	for key, res := range current {
		old, existed := prev.Entries[key]
		if !existed {
			delta.Added = append(delta.Added, key)
			continue
		}
		if old.SourceHash != res.SourceHash {
			delta.Modified = append(delta.Modified, key)
		}
	}
	for key := range prev.Entries {
		if _, stillPresent := current[key]; !stillPresent {
			delta.Removed = append(delta.Removed, key)
		}
	}

	sort.Strings(delta.Added)
	sort.Strings(delta.Modified)
	sort.Strings(delta.Removed)
	return delta
}

// Persist rewrites the baseline from current, for graceful shutdown or
// explicit request.
func (t *Tracker) Persist(current map[string]*model.Resource) error {
	f := file{Entries: make(map[string]Entry, len(current))}
	for key, res := range current {
		f.Entries[key] = Entry{Type: string(res.Type), SourceHash: res.SourceHash}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return safeio.SafeWrite(t.path, data)
}

func (t *Tracker) load() (file, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return file{Entries: map[string]Entry{}}, nil
		}
		return file{}, err
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return file{}, err
	}
	if f.Entries == nil {
		f.Entries = map[string]Entry{}
	}
	return f, nil
}
