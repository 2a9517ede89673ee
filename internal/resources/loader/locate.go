package loader

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/promptd/internal/fileutil"
	"github.com/ternarybob/promptd/internal/resources/yamlutil"
)

// discoverIDs merges flat (root/{id}/{entry}) and one-level-nested
// (root/{group}/{id}/{entry}) discovery under a single root, per
// spec.md §4.3/§4.9 open question: grouped overlays are first-class for
// every resource type, not just gates.
func discoverIDs(root, entryFilename string) ([]string, error) {
	flat, err := yamlutil.DiscoverFlat(root, entryFilename)
	if err != nil {
		return nil, err
	}
	nested, err := yamlutil.DiscoverNested(root, entryFilename)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var ids []string
	for _, id := range flat {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range nested {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// locateDir finds the directory holding id's entry file under root,
// trying the flat layout first, then each immediate subdirectory as a
// group (nested layout).
func locateDir(root, id, entryFilename string) (string, bool) {
	flatDir := filepath.Join(root, id)
	if fileExists(filepath.Join(flatDir, entryFilename)) {
		return flatDir, true
	}

	groups, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	for _, g := range groups {
		if !g.IsDir() {
			continue
		}
		candidate := filepath.Join(root, g.Name(), id)
		if fileExists(filepath.Join(candidate, entryFilename)) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	return fileutil.IsFile(path)
}
