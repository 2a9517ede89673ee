// Package main implements skills-sync, the build tool that runs the
// Skills Sync Compiler outside the running server: export canonical
// resources into client-native skill packages, diff them against
// on-disk output for drift, and pull hand-edited output back as a
// patch.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags, init()
//   - cmd_export.go - exportCmd, runExport()
//   - cmd_diff.go   - diffCmd, runDiff()
//   - cmd_pull.go   - pullCmd, runPull()
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ternarybob/promptd/internal/config"
)

var (
	configPath   string
	clientFlag   string
	scopeFlag    string
	resourceType string
	idFlag       string
)

// version is set via -ldflags at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "skills-sync",
	Short: "Compile canonical prompt/gate/methodology/style/script-tool resources into client-native skill packages",
	Long: `skills-sync runs the Skills Sync Compiler as a standalone build tool,
independent of the running promptd server.

It reads resources through the same Resource Registries promptd uses,
adapts them per client (protocol-native single-file skills or portable
multi-file skill directories), and writes the result to each client's
output directory -- detecting drift against previous exports along the
way.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&clientFlag, "client", "all", "Target client id, or \"all\"")
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "user", "Output scope: user or project")
	rootCmd.PersistentFlags().StringVar(&resourceType, "resource-type", "", "Limit to one resource type: prompt, gate, methodology, style, script-tool")
	rootCmd.PersistentFlags().StringVar(&idFlag, "id", "", "Limit to one resource id")

	rootCmd.AddCommand(
		exportCmd,
		diffCmd,
		pullCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the process exit code spec.md §6 defines
// for the skills-sync CLI: 0 success, 1 operational failure, 2 drift
// detected (diff only, handled by runDiff returning errDriftDetected).
func exitCodeFor(err error) int {
	if err == errDriftDetected {
		return 2
	}
	return 1
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
