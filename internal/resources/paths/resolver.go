// Package paths implements the Path Resolver (spec.md C1): it locates
// the ordered list of resource root directories for each resource type
// from environment overrides, the package manifest location, and
// workspace overlays.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/promptd/internal/fileutil"
	"github.com/ternarybob/promptd/internal/resources/model"
)

// EntryProber reports whether a directory contains at least one valid
// entry of a resource type, without fully loading or validating it.
// Each resource type's loader supplies its own prober (e.g. "does any
// immediate subdirectory contain gate.yaml").
type EntryProber func(dir string) bool

// Options configures a single Resolve call.
type Options struct {
	// StartDir is where upward package-manifest search begins. Defaults
	// to the current working directory.
	StartDir string

	// BinaryDir is the fallback directory "next to the binary".
	// Defaults to filepath.Dir(os.Args[0]).
	BinaryDir string

	// WorkspaceDir, if set, contributes a workspace-local overlay root
	// at {WorkspaceDir}/.promptd/resources/{type_plural}.
	WorkspaceDir string

	// ExtraOverlays are additional overlay roots supplied by
	// configuration, in precedence order (earlier wins over later, all
	// lose to the primary root).
	ExtraOverlays []string

	// Prober decides whether a candidate directory is populated enough
	// to serve as the primary root. A nil Prober treats "directory
	// exists" as sufficient.
	Prober EntryProber
}

// envVar returns the environment variable name for a resource type,
// e.g. TypeGate -> RESOURCES_GATES_PATH, TypeScriptTool ->
// RESOURCES_SCRIPT_TOOLS_PATH.
func envVar(t model.Type) string {
	plural := strings.ReplaceAll(t.Plural(), "-", "_")
	return "RESOURCES_" + strings.ToUpper(plural) + "_PATH"
}

// Resolve returns [primary_root, overlay_root_1, ...] for the given
// resource type. The resolver de-duplicates and drops non-existent
// overlay entries; it does not create directories.
func Resolve(t model.Type, opts Options) []string {
	primary := resolvePrimary(t, opts)

	seen := map[string]bool{}
	var roots []string
	if primary != "" {
		roots = append(roots, primary)
		seen[normalize(primary)] = true
	}

	overlays := collectOverlayCandidates(t, opts)
	for _, o := range overlays {
		n := normalize(o)
		if seen[n] {
			continue
		}
		if !dirExists(o) {
			continue
		}
		seen[n] = true
		roots = append(roots, o)
	}

	return roots
}

func resolvePrimary(t model.Type, opts Options) string {
	prober := opts.Prober
	if prober == nil {
		prober = dirExists
	}

	plural := t.Plural()

	// 1. Environment override.
	if envDir := os.Getenv(envVar(t)); envDir != "" {
		if prober(envDir) {
			return envDir
		}
	}

	// 2. Walk upward from the package manifest location.
	start := opts.StartDir
	if start == "" {
		if wd, err := os.Getwd(); err == nil {
			start = wd
		}
	}
	if start != "" {
		if found := walkUpward(start, plural, prober); found != "" {
			return found
		}
	}

	// 3. Fixed relative path next to the binary.
	binDir := opts.BinaryDir
	if binDir == "" {
		binDir = filepath.Dir(os.Args[0])
	}
	fallback := filepath.Join(binDir, "resources", plural)
	if prober(fallback) {
		return fallback
	}

	// Nothing satisfied the prober. Prefer the first existing
	// candidate so a writer has a real home; otherwise hand back the
	// binary-relative path as the eventual creation target.
	if envDir := os.Getenv(envVar(t)); envDir != "" && dirExists(envDir) {
		return envDir
	}
	if start != "" {
		if candidate := firstExistingUpward(start, plural); candidate != "" {
			return candidate
		}
	}
	return fallback
}

// walkUpward tests {candidate}/resources/{plural} then the legacy
// {candidate}/{plural} at each directory from start up to the
// filesystem root, returning the first that satisfies prober.
func walkUpward(start, plural string, prober EntryProber) string {
	dir := start
	for {
		modern := filepath.Join(dir, "resources", plural)
		if prober(modern) {
			return modern
		}
		legacy := filepath.Join(dir, plural)
		if prober(legacy) {
			return legacy
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// firstExistingUpward is walkUpward without the entry-validity
// requirement, used only as a last-resort primary-root choice.
func firstExistingUpward(start, plural string) string {
	dir := start
	for {
		modern := filepath.Join(dir, "resources", plural)
		if dirExists(modern) {
			return modern
		}
		legacy := filepath.Join(dir, plural)
		if dirExists(legacy) {
			return legacy
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func collectOverlayCandidates(t model.Type, opts Options) []string {
	var overlays []string
	if opts.WorkspaceDir != "" {
		overlays = append(overlays, filepath.Join(opts.WorkspaceDir, ".promptd", "resources", t.Plural()))
	}
	overlays = append(overlays, opts.ExtraOverlays...)
	return overlays
}

func dirExists(path string) bool {
	return fileutil.IsDir(path)
}

func normalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
