package loader

import (
	"path/filepath"

	"github.com/ternarybob/promptd/internal/resources/model"
)

// Prober returns the paths.EntryProber a type's loader would use to
// decide whether a directory actually holds at least one valid entry of
// typ, rather than merely existing (spec.md §4.1: "the first directory
// that actually contains at least one valid entry of this type"). env
// wires this into paths.Options before resolving roots.
func Prober(typ model.Type) func(dir string) bool {
	switch typ {
	case model.TypeGate:
		return func(dir string) bool { return hasEntries(dir, gateEntryFile) }
	case model.TypeMethodology:
		return func(dir string) bool { return hasEntries(dir, methodologyEntryFile) }
	case model.TypeStyle:
		return func(dir string) bool { return hasEntries(dir, styleEntryFile) }
	case model.TypeScriptTool:
		return func(dir string) bool { return hasEntries(dir, scriptToolEntryFile) }
	case model.TypePrompt:
		return hasPrompts
	default:
		return nil
	}
}

func hasEntries(dir, entryFilename string) bool {
	ids, err := discoverIDs(dir, entryFilename)
	return err == nil && len(ids) > 0
}

// hasPrompts reports whether dir contains at least one category with at
// least one prompt, mirroring PromptLoader.Discover's own traversal.
func hasPrompts(dir string) bool {
	for _, category := range discoverCategories(dir) {
		categoryDir := filepath.Join(dir, category)
		if len(discoverPromptIDsInCategory(categoryDir)) > 0 {
			return true
		}
	}
	return false
}
