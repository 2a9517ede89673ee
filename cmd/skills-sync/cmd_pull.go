package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/sync"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Capture hand-edited output as a patch before the next export overwrites it",
	Long: `pull runs the same comparison as "diff" and, for every client with
output drift, writes a unified-diff patch file and a summary under the
sync cache directory so local edits can be reviewed or reapplied
instead of silently lost on the next export.`,
	RunE: runPull,
}

func runPull(cmd *cobra.Command, args []string) error {
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
			fmt.Printf("%s: nothing to pull\n", client.ID)
			continue
		}

		patchPath, summaryPath, err := compiler.Pull(report)
		if err != nil {
			return fmt.Errorf("pull for %s: %w", client.ID, err)
		}
		fmt.Printf("%s: patch written to %s (summary: %s)\n", client.ID, patchPath, summaryPath)
	}

	return nil
}
