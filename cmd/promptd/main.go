// Package main provides the entry point for promptd.
//
// promptd serves the Resource Subsystem: discovery, loading, validation,
// caching, and hot-reload of prompt/gate/methodology/style/script-tool
// resources, exposed read-only over REST and MCP.
//
// Usage:
//
//	promptd                    Start the service (default)
//	promptd serve              Start the service
//	promptd version            Show version
//	promptd status             Show service status
//	promptd stop               Stop the running service
//	promptd mcp                Start MCP server (stdio mode)
//	promptd init-config        Create example configuration file
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/promptd/internal/api"
	"github.com/ternarybob/promptd/internal/config"
	"github.com/ternarybob/promptd/internal/env"
	"github.com/ternarybob/promptd/internal/logger"
	"github.com/ternarybob/promptd/internal/mcpfacade"
	"github.com/ternarybob/promptd/internal/resources/baseline"
	"github.com/ternarybob/promptd/internal/resources/reload"
	"github.com/ternarybob/promptd/internal/service"
)

// environmentBaseline adapts a baseline.Tracker plus the Environment it
// snapshots into the no-argument service.BaselinePersister the daemon's
// shutdown sequence drives.
type environmentBaseline struct {
	tracker     *baseline.Tracker
	environment *env.Environment
}

func (b environmentBaseline) Persist() error {
	return b.tracker.Persist(b.environment.Snapshot())
}

// version is set via -ldflags at build time
var version = "dev"

var configPath string

func main() {
	api.SetVersion(version)

	args := os.Args[1:]
	command := ""
	cmdArgs := []string{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "--config=") {
			configPath = strings.TrimPrefix(arg, "--config=")
		} else if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++
		} else if strings.HasPrefix(arg, "-") {
			// Skip unknown flags for now
		} else if command == "" {
			command = arg
		} else {
			cmdArgs = append(cmdArgs, arg)
		}
	}

	if command == "" {
		command = "serve"
	}

	var err error
	switch command {
	case "serve", "start":
		err = cmdServe(cmdArgs)
	case "version", "-v", "--version":
		cmdVersion()
	case "status":
		err = cmdStatus()
	case "stop":
		err = cmdStop()
	case "mcp", "mcp-server":
		err = cmdMCP()
	case "init-config":
		err = cmdInitConfig()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`promptd - Resource Subsystem server

Usage:
  promptd [flags] [command] [args]

Commands:
  serve         Start the service (default)
  version       Show version information
  status        Show service status
  stop          Stop the running service
  mcp           Start MCP server (stdio mode)
  init-config   Create example configuration file
  help          Show this help

Flags:
  --config PATH   Path to configuration file (default: ~/.promptd/config.toml)

Environment:
  PROMPTD_CONFIG    Path to configuration file (alternative to --config)
  PROMPTD_DATA_DIR  Override data directory

Examples:
  promptd                              Start the service with defaults
  promptd --config /path/to.toml       Start with custom config
  promptd mcp                          Start MCP server for an MCP client
  promptd init-config                  Create example config file
  curl localhost:8420/health           Check service health
  curl localhost:8420/resources/prompt List prompt resources`)
}

func cmdVersion() {
	fmt.Printf("promptd version %s\n", version)
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("PROMPTD_CONFIG"); envPath != "" {
		return envPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if envDataDir := os.Getenv("PROMPTD_DATA_DIR"); envDataDir != "" {
		cfg.Service.DataDir = envDataDir
	}
	return cfg, nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger.SetupLogger(cfg)

	if running, pid := service.IsRunning(cfg); running {
		return fmt.Errorf("service already running (PID %d)", pid)
	}

	environment, err := env.New(cfg)
	if err != nil {
		return fmt.Errorf("build environment: %w", err)
	}

	tracker := baseline.New(cfg.Sync.CacheDir)
	delta := tracker.Compare(environment.Snapshot())
	if !delta.IsEmpty() {
		logger.GetLogger().Info().
			Int("added", len(delta.Added)).
			Int("modified", len(delta.Modified)).
			Int("removed", len(delta.Removed)).
			Msg("resource baseline changed since last run")
	}

	var reloader service.Reloader
	if cfg.Resources.WatchEnabled {
		manager, err := reload.New(environment.ReloadRegistrations())
		if err != nil {
			return fmt.Errorf("build hot-reload manager: %w", err)
		}
		reloader = manager
	}

	apiServer := api.NewServer(cfg, environment)
	persister := environmentBaseline{tracker: tracker, environment: environment}
	daemon := service.NewDaemon(cfg, reloader, persister)

	if err := daemon.Start(apiServer.Handler()); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Printf("promptd v%s started on %s\n", version, cfg.Address())
	fmt.Printf("API: http://%s/resources/prompt\n", cfg.Address())

	daemon.Wait()
	return nil
}

func cmdStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	running, pid := service.IsRunning(cfg)
	if running {
		fmt.Printf("promptd: running (PID %d)\n", pid)
		fmt.Printf("Address: %s\n", cfg.Address())
		fmt.Printf("Config: %s\n", getConfigPath())
		fmt.Printf("Data: %s\n", cfg.Service.DataDir)
	} else {
		fmt.Println("promptd: stopped")
	}
	return nil
}

func cmdStop() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	running, pid := service.IsRunning(cfg)
	if !running {
		fmt.Println("promptd is not running")
		return nil
	}

	fmt.Printf("Stopping promptd (PID %d)...\n", pid)
	if err := service.StopRunning(cfg); err != nil {
		return err
	}
	fmt.Println("promptd stopped")
	return nil
}

func cmdMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	logger.SetupLogger(cfg)

	environment, err := env.New(cfg)
	if err != nil {
		return fmt.Errorf("build environment: %w", err)
	}

	mcpServer := mcpfacade.NewServer(environment)
	return mcpServer.ServeStdio()
}

func cmdInitConfig() error {
	path := getConfigPath()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := config.WriteExampleConfig(path); err != nil {
		return err
	}

	fmt.Printf("Created example configuration: %s\n", path)
	return nil
}
