package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/promptd/internal/resources/safeio"
)

// ManifestEntry records one exported resource's provenance at the time
// of last export. RelativePaths lists every file the resource adapted
// to, in the order Adapt produced them; OutputHash digests their
// concatenation in that same order, so drift on any auxiliary file
// (a script or reference, not just the main skill file) is detectable.
type ManifestEntry struct {
	QualifiedKey  string   `json:"qualifiedKey"`
	RelativePaths []string `json:"relativePaths"`
	SourceHash    string   `json:"sourceHash"`
	OutputHash    string   `json:"outputHash"`
}

// Manifest is the per-client persisted export record (spec.md §3, §6).
type Manifest struct {
	ClientID string          `json:"clientId"`
	Entries  []ManifestEntry `json:"entries"`
}

func manifestPath(cacheDir, clientID string) string {
	return filepath.Join(cacheDir, "skills-sync."+clientID+".json")
}

// LoadManifest reads a client's manifest. A missing or unparseable file
// is treated as absent, per spec.md §7 ManifestCorruption: the next
// export writes a fresh one, no export is refused.
func LoadManifest(cacheDir, clientID string) *Manifest {
	data, err := os.ReadFile(manifestPath(cacheDir, clientID))
	if err != nil {
		return &Manifest{ClientID: clientID}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return &Manifest{ClientID: clientID}
	}
	return &m
}

// Save persists the manifest, sorted by qualified key for determinism.
func (m *Manifest) Save(cacheDir string) error {
	sorted := append([]ManifestEntry(nil), m.Entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QualifiedKey < sorted[j].QualifiedKey })
	m.Entries = sorted

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	return safeio.SafeWrite(manifestPath(cacheDir, m.ClientID), data)
}

// ByKey indexes Entries for lookup during diff.
func (m *Manifest) ByKey() map[string]ManifestEntry {
	out := make(map[string]ManifestEntry, len(m.Entries))
	for _, e := range m.Entries {
		out[e.QualifiedKey] = e
	}
	return out
}

// OutputHash is the content digest recorded for a generated file, or,
// given more than one, the digest of their concatenation in order
// (spec.md §3: "digest of the concatenation of all generated output
// files").
func OutputHash(contents ...[]byte) string {
	h := sha256.New()
	for _, c := range contents {
		h.Write(c)
	}
	return hex.EncodeToString(h.Sum(nil))
}
