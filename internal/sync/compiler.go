package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/registry"
	"github.com/ternarybob/promptd/internal/resources/safeio"
)

// Compiler runs the Skills Sync Compiler pipeline against a set of
// registries, independent of the running server (spec.md §4.10: "a
// build tool that does not run inside the server").
type Compiler struct {
	Registries map[model.Type]*registry.Registry
	Config     *Config
	CacheDir   string
}

// Select gathers every enabled resource across the wired registries,
// optionally narrowed to one resource type and/or one id, then applies
// the sync config's allow-list (spec.md §4.10 steps 1-2).
func (c *Compiler) Select(typeFilter model.Type, idFilter string) []*model.Resource {
	var out []*model.Resource
	for typ, reg := range c.Registries {
		if typeFilter != "" && typ != typeFilter {
			continue
		}
		for _, res := range reg.List(registry.Filters{EnabledOnly: true}) {
			if idFilter != "" && res.ID != idFilter {
				continue
			}
			if !c.Config.Allows(res.QualifiedKey()) {
				continue
			}
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedKey() < out[j].QualifiedKey() })
	return out
}

// disambiguate assigns a directory-prefix to every resource, non-empty
// only for prompts whose id recurs across more than one category within
// the selected set (spec.md §4.10 step 3).
func disambiguate(resources []*model.Resource) map[string]string {
	categoriesByID := map[string]map[string]bool{}
	for _, r := range resources {
		if r.Type != model.TypePrompt {
			continue
		}
		if categoriesByID[r.ID] == nil {
			categoriesByID[r.ID] = map[string]bool{}
		}
		categoriesByID[r.ID][r.Category] = true
	}

	prefixes := make(map[string]string, len(resources))
	for _, r := range resources {
		if r.Type == model.TypePrompt && len(categoriesByID[r.ID]) > 1 {
			prefixes[r.QualifiedKey()] = r.Category
		} else {
			prefixes[r.QualifiedKey()] = ""
		}
	}
	return prefixes
}

// ExportResult summarizes one Export call.
type ExportResult struct {
	Written  []string // relative paths, dry-run or not
	DryRun   bool
	Manifest *Manifest
}

// Export runs steps 4-6 of the pipeline: adapt every resource, write the
// output tree (skipped in dry-run mode), and persist the client manifest.
func (c *Compiler) Export(client Client, outputRoot string, resources []*model.Resource, dryRun bool) (ExportResult, error) {
	prefixes := disambiguate(resources)
	entries := make([]ManifestEntry, 0, len(resources))
	var written []string

	for _, res := range resources {
		files, err := Adapt(client, res, prefixes[res.QualifiedKey()])
		if err != nil {
			return ExportResult{}, fmt.Errorf("adapt %s for %s: %w", res.QualifiedKey(), client.ID, err)
		}

		relativePaths := make([]string, 0, len(files))
		contents := make([][]byte, 0, len(files))
		for i := range files {
			f := files[i]
			full := filepath.Join(outputRoot, f.RelativePath)

			if dryRun {
				logger.GetLogger().Info().Str("path", full).Msg("dry-run: would write file")
			} else {
				if err := writeOutputFile(full, f.Content); err != nil {
					return ExportResult{}, err
				}
			}
			written = append(written, f.RelativePath)
			relativePaths = append(relativePaths, f.RelativePath)
			contents = append(contents, f.Content)
		}
		if len(relativePaths) > 0 {
			entries = append(entries, ManifestEntry{
				QualifiedKey:  res.QualifiedKey(),
				RelativePaths: relativePaths,
				SourceHash:    res.SourceHash,
				OutputHash:    OutputHash(contents...),
			})
		}
	}

	result := ExportResult{Written: written, DryRun: dryRun}
	if dryRun {
		return result, nil
	}

	manifest := &Manifest{ClientID: client.ID, Entries: entries}
	if err := manifest.Save(c.CacheDir); err != nil {
		return ExportResult{}, fmt.Errorf("save manifest for %s: %w", client.ID, err)
	}
	result.Manifest = manifest
	return result, nil
}

func writeOutputFile(fullPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", fullPath, err)
	}
	return safeio.SafeWrite(fullPath, content)
}
