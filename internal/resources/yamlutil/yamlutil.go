// Package yamlutil implements the three file-discovery and file-load
// primitives every resource loader builds on (spec.md C3).
package yamlutil

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadOptions controls LoadFile behavior.
type LoadOptions struct {
	// Required, when false, makes a missing file a no-op (LoadFile
	// returns nil and leaves out untouched) instead of an error. Parse
	// errors always surface regardless.
	Required bool
}

// LoadFile parses a single YAML file into out. If the file does not
// exist and opts.Required is false, LoadFile is a no-op and returns
// nil. Parse errors are always surfaced.
func LoadFile(path string, out any, opts LoadOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !opts.Required {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ReadText reads a plain-text auxiliary file (e.g. a gate's guidance.md
// or a prompt's system-message.md). Missing-but-optional files return
// ("", nil).
func ReadText(path string, required bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// DiscoverFlat returns the sorted list of ids for every immediate
// subdirectory of root that contains entryFilename. Layout:
// root/{id}/{entryFilename}.
func DiscoverFlat(root, entryFilename string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", root, err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() || isIgnoredName(e.Name()) {
			continue
		}
		entryPath := root + string(os.PathSeparator) + e.Name() + string(os.PathSeparator) + entryFilename
		if _, err := os.Stat(entryPath); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DiscoverNested recursively scans one level of subdirectories beneath
// each group directory of root, supporting root/{group}/{id}/entry
// layouts. Returned ids are the bare id (not group-prefixed); callers
// that need group/id grouping should use DiscoverNestedGrouped.
func DiscoverNested(root, entryFilename string) ([]string, error) {
	grouped, err := DiscoverNestedGrouped(root, entryFilename)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, ids2 := range grouped {
		ids = append(ids, ids2...)
	}
	sort.Strings(ids)
	return ids, nil
}

// DiscoverNestedGrouped is DiscoverNested but keeps the group-directory
// association, returned as group -> sorted ids.
func DiscoverNestedGrouped(root, entryFilename string) (map[string][]string, error) {
	groups, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", root, err)
	}

	result := make(map[string][]string)
	for _, g := range groups {
		if !g.IsDir() || isIgnoredName(g.Name()) {
			continue
		}
		groupPath := root + string(os.PathSeparator) + g.Name()
		ids, err := DiscoverFlat(groupPath, entryFilename)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			result[g.Name()] = ids
		}
	}
	return result, nil
}

// isIgnoredName reports whether a directory name should never be
// treated as a resource id or category: dotfiles, underscore-prefixed
// names, and the literal "backup".
func isIgnoredName(name string) bool {
	if name == "" || name == "backup" {
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
