package sync

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/promptd/internal/resources/model"
)

// DriftKind classifies one diff-report entry (spec.md §4.10 step 7).
type DriftKind string

const (
	DriftSource DriftKind = "source"
	DriftOutput DriftKind = "output"
	DriftNew    DriftKind = "new"
	DriftOrphan DriftKind = "orphan"
)

// DriftEntry is one line of a diff report.
type DriftEntry struct {
	QualifiedKey  string
	RelativePaths []string
	Kind          DriftKind
	UnifiedDiff   string // populated only for DriftOutput
}

// DiffReport is the full result of comparing the current registry state
// and on-disk output against a client's manifest.
type DiffReport struct {
	ClientID string
	Entries  []DriftEntry
}

func (r DiffReport) HasDrift() bool { return len(r.Entries) > 0 }

// Diff implements pipeline step 7: source drift (canonical changed since
// last export), output drift (generated content edited downstream), new
// resources, and orphans.
func (c *Compiler) Diff(client Client, outputRoot string, resources []*model.Resource) (DiffReport, error) {
	manifest := LoadManifest(c.CacheDir, client.ID)
	byKey := manifest.ByKey()
	prefixes := disambiguate(resources)

	seen := make(map[string]bool, len(resources))
	var entries []DriftEntry

	for _, res := range resources {
		key := res.QualifiedKey()
		seen[key] = true

		entry, existed := byKey[key]
		if !existed {
			entries = append(entries, DriftEntry{QualifiedKey: key, Kind: DriftNew})
			continue
		}

		if res.SourceHash != entry.SourceHash {
			entries = append(entries, DriftEntry{QualifiedKey: key, RelativePaths: entry.RelativePaths, Kind: DriftSource})
			continue
		}

		files, err := Adapt(client, res, prefixes[key])
		if err != nil {
			return DiffReport{}, err
		}

		expectedContents := make([][]byte, 0, len(entry.RelativePaths))
		actualContents := make([][]byte, 0, len(entry.RelativePaths))
		for _, rel := range entry.RelativePaths {
			expected := findOutputFile(files, rel)
			var expectedContent []byte
			if expected != nil {
				expectedContent = expected.Content
			}
			expectedContents = append(expectedContents, expectedContent)

			actualPath := filepath.Join(outputRoot, rel)
			actual, err := os.ReadFile(actualPath)
			if err != nil {
				if !os.IsNotExist(err) {
					return DiffReport{}, err
				}
				actual = nil
			}
			actualContents = append(actualContents, actual)
		}

		if OutputHash(actualContents...) != entry.OutputHash {
			entries = append(entries, DriftEntry{
				QualifiedKey: key, RelativePaths: entry.RelativePaths, Kind: DriftOutput,
				UnifiedDiff: concatenatedDiff(entry.RelativePaths, expectedContents, actualContents),
			})
		}
	}

	for key, entry := range byKey {
		if !seen[key] {
			entries = append(entries, DriftEntry{QualifiedKey: key, RelativePaths: entry.RelativePaths, Kind: DriftOrphan})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].QualifiedKey != entries[j].QualifiedKey {
			return entries[i].QualifiedKey < entries[j].QualifiedKey
		}
		return entries[i].Kind < entries[j].Kind
	})

	return DiffReport{ClientID: client.ID, Entries: entries}, nil
}

// concatenatedDiff builds one unified diff per file whose expected and
// actual content differ, in RelativePaths order, and joins them -- the
// output-hash mismatch that triggers this only says "something in the
// set changed", not which file.
func concatenatedDiff(relativePaths []string, expected, actual [][]byte) string {
	var b strings.Builder
	for i, rel := range relativePaths {
		if bytes.Equal(expected[i], actual[i]) {
			continue
		}
		b.WriteString(UnifiedDiff(rel, rel, expected[i], actual[i]))
	}
	return b.String()
}

func findOutputFile(files []OutputFile, relativePath string) *OutputFile {
	for i := range files {
		if files[i].RelativePath == relativePath {
			return &files[i]
		}
	}
	return nil
}
