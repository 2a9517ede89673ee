package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/promptd/internal/resources/safeio"
)

// Pull implements pipeline step 8: produce a patch file and a
// human-readable summary capturing every output-drift entry a diff
// found, so the user can accept or reject local edits before the next
// export overwrites them.
func (c *Compiler) Pull(report DiffReport) (patchPath, summaryPath string, err error) {
	patchesDir := filepath.Join(c.CacheDir, "patches")
	if err := os.MkdirAll(patchesDir, 0o755); err != nil {
		return "", "", err
	}

	var patch strings.Builder
	var summary strings.Builder
	fmt.Fprintf(&summary, "# Pull summary for %s\n\n", report.ClientID)

	count := 0
	for _, e := range report.Entries {
		if e.Kind != DriftOutput {
			continue
		}
		patch.WriteString(e.UnifiedDiff)
		fmt.Fprintf(&summary, "- %s\n", strings.Join(e.RelativePaths, ", "))
		count++
	}
	if count == 0 {
		summary.WriteString("No local edits to pull.\n")
	}

	patchPath = filepath.Join(patchesDir, report.ClientID+".patch")
	summaryPath = filepath.Join(patchesDir, report.ClientID+"-summary.md")

	if err := safeio.SafeWrite(patchPath, []byte(patch.String())); err != nil {
		return "", "", err
	}
	if err := safeio.SafeWrite(summaryPath, []byte(summary.String())); err != nil {
		return "", "", err
	}
	return patchPath, summaryPath, nil
}
