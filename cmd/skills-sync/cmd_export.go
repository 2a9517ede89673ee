package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/promptd/internal/env"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/sync"
)

var dryRun bool

// exportCmd runs the full compile pipeline: select, adapt, write, manifest.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Compile canonical resources into client-native skill packages",
	Long: `export selects every enabled resource allowed by the sync config,
adapts each one for the target client(s), writes the resulting files
under the client's output directory, and records a manifest used by
"diff" to detect drift on the next run.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without touching disk")
}

func runExport(cmd *cobra.Command, args []string) error {
	compiler, clients, err := buildCompiler()
	if err != nil {
		return err
	}

	var typeFilter model.Type
	if resourceType != "" {
		typeFilter = model.Type(resourceType)
	}

	resources := compiler.Select(typeFilter, idFlag)
	if len(resources) == 0 {
		fmt.Println("no resources matched; nothing to export")
		return nil
	}

	scope := sync.Scope(scopeFlag)
	for _, client := range clients {
		outputRoot, err := expandOutputDir(compiler.Config.OutputDirFor(client, scope))
		if err != nil {
			return err
		}

		result, err := compiler.Export(client, outputRoot, resources, dryRun)
		if err != nil {
			return fmt.Errorf("export for %s: %w", client.ID, err)
		}

		verb := "wrote"
		if dryRun {
			verb = "would write"
		}
		fmt.Printf("%s: %s %d file(s) to %s\n", client.ID, verb, len(result.Written), outputRoot)
	}

	return nil
}

// buildCompiler wires a sync.Compiler from the same config-driven
// Environment promptd itself uses, so skills-sync always sees the exact
// resources the running server would.
func buildCompiler() (*sync.Compiler, []sync.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	environment, err := env.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build environment: %w", err)
	}

	syncCfgPath := cfg.Sync.ConfigPath
	syncCfg, err := sync.LoadConfig(syncCfgPath)
	if err != nil {
		return nil, nil, err
	}

	cacheDir := cfg.Sync.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "promptd-sync-cache")
	}

	compiler := &sync.Compiler{
		Registries: environment.Registries,
		Config:     syncCfg,
		CacheDir:   cacheDir,
	}

	clients, err := resolveClients()
	if err != nil {
		return nil, nil, err
	}

	return compiler, clients, nil
}

func resolveClients() ([]sync.Client, error) {
	if clientFlag == "" || clientFlag == "all" {
		return sync.BuiltinClients(), nil
	}

	var out []sync.Client
	for _, id := range strings.Split(clientFlag, ",") {
		client, ok := sync.FindClient(strings.TrimSpace(id))
		if !ok {
			return nil, fmt.Errorf("unknown client %q", id)
		}
		out = append(out, client)
	}
	return out, nil
}

func expandOutputDir(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~") {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~/")), nil
}
