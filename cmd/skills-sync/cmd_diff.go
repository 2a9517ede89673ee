package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/sync"
)

// errDriftDetected is returned by runDiff when the comparison finds any
// drift entry, so main's exitCodeFor can map it to exit code 2.
var errDriftDetected = errors.New("drift detected")

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare canonical resources and prior output against the current manifest",
	Long: `diff re-selects the resources "export" would select, compares their
source hashes against the last recorded manifest, and re-reads each
client's output tree to detect hand edits. Exits 0 when clean, 2 when
drift is found, 1 on any operational error.`,
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	compiler, clients, err := buildCompiler()
	if err != nil {
		return err
	}

	var typeFilter model.Type
	if resourceType != "" {
		typeFilter = model.Type(resourceType)
	}
	resources := compiler.Select(typeFilter, idFlag)

	scope := sync.Scope(scopeFlag)
	anyDrift := false

	for _, client := range clients {
		outputRoot, err := expandOutputDir(compiler.Config.OutputDirFor(client, scope))
		if err != nil {
			return err
		}

		report, err := compiler.Diff(client, outputRoot, resources)
		if err != nil {
			return fmt.Errorf("diff for %s: %w", client.ID, err)
		}

		if !report.HasDrift() {
			fmt.Printf("%s: clean\n", client.ID)
			continue
		}

		anyDrift = true
		fmt.Printf("%s: %d drift entries\n", client.ID, len(report.Entries))
		for _, e := range report.Entries {
			fmt.Printf("  [%s] %s %s\n", e.Kind, e.QualifiedKey, strings.Join(e.RelativePaths, ", "))
		}
	}

	if anyDrift {
		return errDriftDetected
	}
	return nil
}
