// Package config provides configuration management for promptd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the service configuration.
type Config struct {
	Service   ServiceConfig   `toml:"service"`
	API       APIConfig       `toml:"api"`
	MCP       MCPConfig       `toml:"mcp"`
	Resources ResourcesConfig `toml:"resources"`
	Sync      SyncConfig      `toml:"sync"`
	Logging   LoggingConfig   `toml:"logging"`
	Security  SecurityConfig  `toml:"security"`
}

// ServiceConfig contains service-level settings.
type ServiceConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	DataDir         string `toml:"data_dir"`
	PIDFile         string `toml:"pid_file"`
	ShutdownTimeout int    `toml:"shutdown_timeout_seconds"`
	MaxRequestSize  int64  `toml:"max_request_size_bytes"`
}

// APIConfig contains API settings.
type APIConfig struct {
	Enabled        bool     `toml:"enabled"`
	APIKey         string   `toml:"api_key"`
	RateLimit      int      `toml:"rate_limit_per_minute"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RequestTimeout int      `toml:"request_timeout_seconds"`
}

// MCPConfig contains MCP server settings.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// ResourceTypeConfig overrides the Path Resolver for one resource type.
type ResourceTypeConfig struct {
	Root         string      `toml:"root"`
	OverlayRoots StringSlice `toml:"overlay_roots"`
	LegacyJSON   bool        `toml:"legacy_json"` // prompts only
}

// ResourcesConfig contains per-type root overrides and overlay roots
// consumed by internal/resources/paths.Options.ExtraOverlays.
type ResourcesConfig struct {
	WorkspaceDir  string             `toml:"workspace_dir"`
	Prompts       ResourceTypeConfig `toml:"prompts"`
	Gates         ResourceTypeConfig `toml:"gates"`
	Methodologies ResourceTypeConfig `toml:"methodologies"`
	Styles        ResourceTypeConfig `toml:"styles"`
	ScriptTools   ResourceTypeConfig `toml:"script_tools"`
	WatchEnabled  bool               `toml:"watch_enabled"`
	DebounceMs    int                `toml:"debounce_ms"`
}

// SyncClientConfig names the default output directory for one client.
type SyncClientConfig struct {
	OutputDir string `toml:"output_dir"`
}

// SyncConfig configures the Skills Sync Compiler's default behavior
// when no per-invocation flags override it.
type SyncConfig struct {
	ConfigPath string                      `toml:"config_path"`
	CacheDir   string                      `toml:"cache_dir"`
	Clients    map[string]SyncClientConfig `toml:"clients"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string      `toml:"level"`
	Format     string      `toml:"format"`
	Output     StringSlice `toml:"output"`
	TimeFormat string      `toml:"time_format"`
	MaxSizeMB  int         `toml:"max_size_mb"`
	MaxBackups int         `toml:"max_backups"`
	MaxAgeDays int         `toml:"max_age_days"`
	Compress   bool        `toml:"compress"`
}

// StringSlice is a custom type that can unmarshal from either a string or []string.
type StringSlice []string

// UnmarshalTOML implements toml.Unmarshaler for flexible config parsing.
func (s *StringSlice) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		*s = []string{v}
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string in array, got %T", item)
			}
			result[i] = str
		}
		*s = result
	default:
		return fmt.Errorf("expected string or array, got %T", data)
	}
	return nil
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	TLSEnabled  bool   `toml:"tls_enabled"`
	TLSCertFile string `toml:"tls_cert_file"`
	TLSKeyFile  string `toml:"tls_key_file"`
	CORSEnabled bool   `toml:"cors_enabled"`
}

// DefaultConfig returns the default configuration with all values set.
// Environment variables PROMPTD_HOST and PROMPTD_PORT can override defaults.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()

	host := "127.0.0.1"
	if envHost := os.Getenv("PROMPTD_HOST"); envHost != "" {
		host = envHost
	}

	port := 8420
	if envPort := os.Getenv("PROMPTD_PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil {
			port = p
		}
	}

	return &Config{
		Service: ServiceConfig{
			Host:            host,
			Port:            port,
			DataDir:         dataDir,
			PIDFile:         filepath.Join(dataDir, "promptd.pid"),
			ShutdownTimeout: 30,
			MaxRequestSize:  10 * 1024 * 1024,
		},
		API: APIConfig{
			Enabled:        true,
			APIKey:         "",
			RateLimit:      100,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			RequestTimeout: 60,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Resources: ResourcesConfig{
			WatchEnabled: true,
			DebounceMs:   200,
		},
		Sync: SyncConfig{
			CacheDir: filepath.Join(dataDir, "sync-cache"),
			Clients:  map[string]SyncClientConfig{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     StringSlice{"file"},
			TimeFormat: "15:04:05.000",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Security: SecurityConfig{
			TLSEnabled:  false,
			TLSCertFile: "",
			TLSKeyFile:  "",
			CORSEnabled: true,
		},
	}
}

// DefaultDataDir returns the default data directory based on OS.
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "promptd")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "promptd")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "promptd")
	default:
		xdgData := os.Getenv("XDG_DATA_HOME")
		if xdgData != "" {
			return filepath.Join(xdgData, "promptd")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".promptd")
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.toml")
}

// Load loads configuration from a file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.expandPaths()

	return cfg, nil
}

// LoadFromString loads configuration from a TOML string, merging with defaults.
func LoadFromString(tomlStr string) (*Config, error) {
	cfg := DefaultConfig()

	expanded := os.ExpandEnv(tomlStr)

	if _, err := toml.Decode(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parse config string: %w", err)
	}

	cfg.expandPaths()
	return cfg, nil
}

// expandPaths expands tilde in path fields.
func (c *Config) expandPaths() {
	home, _ := os.UserHomeDir()

	expandTilde := func(path string) string {
		if strings.HasPrefix(path, "~/") {
			return filepath.Join(home, path[2:])
		}
		return path
	}

	c.Service.DataDir = expandTilde(c.Service.DataDir)
	c.Service.PIDFile = expandTilde(c.Service.PIDFile)
	c.Sync.CacheDir = expandTilde(c.Sync.CacheDir)
	c.Resources.WorkspaceDir = expandTilde(c.Resources.WorkspaceDir)
	c.Security.TLSCertFile = expandTilde(c.Security.TLSCertFile)
	c.Security.TLSKeyFile = expandTilde(c.Security.TLSKeyFile)
}

// Save saves the configuration to a file in TOML format.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

// WriteExampleConfig writes an example config file with comments.
func WriteExampleConfig(path string) error {
	example := `# promptd configuration file
# All values shown are defaults - uncomment and modify as needed

[service]
host = "127.0.0.1"
port = 8420
# data_dir = "~/.promptd"
# pid_file = "~/.promptd/promptd.pid"
shutdown_timeout_seconds = 30
max_request_size_bytes = 10485760

[api]
enabled = true
api_key = ""
rate_limit_per_minute = 100
allowed_origins = ["http://localhost:*", "http://127.0.0.1:*"]
request_timeout_seconds = 60

[mcp]
enabled = true

[resources]
# workspace_dir = "/path/to/workspace"
watch_enabled = true
debounce_ms = 200

[resources.prompts]
# root = "/path/to/resources/prompts"
# overlay_roots = ["/path/to/overlay/prompts"]
legacy_json = false

[resources.gates]
# root = "/path/to/resources/gates"

[resources.methodologies]
# root = "/path/to/resources/methodologies"

[resources.styles]
# root = "/path/to/resources/styles"

[resources.script_tools]
# root = "/path/to/resources/script-tools"

[sync]
# config_path = "/path/to/sync.yaml"
# cache_dir = "~/.promptd/sync-cache"

[logging]
level = "info"
format = "text"
output = ["file"]
time_format = "15:04:05.000"
max_size_mb = 100
max_backups = 5
max_age_days = 30
compress = true

[security]
tls_enabled = false
# tls_cert_file = "/path/to/cert.pem"
# tls_key_file = "/path/to/key.pem"
cors_enabled = true
`

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return os.WriteFile(path, []byte(example), 0644)
}

// Address returns the full address string for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}

// LogPath returns the path to the service log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Service.DataDir, "logs", "service.log")
}

// PIDPath returns the path to the PID file.
func (c *Config) PIDPath() string {
	if c.Service.PIDFile != "" {
		return c.Service.PIDFile
	}
	return filepath.Join(c.Service.DataDir, "promptd.pid")
}

// EnsureDirectories creates all necessary directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Service.DataDir,
		filepath.Dir(c.LogPath()),
		c.Sync.CacheDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Service.Port)
	}

	if c.Service.ShutdownTimeout < 1 {
		return fmt.Errorf("shutdown_timeout_seconds must be at least 1")
	}

	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate_limit_per_minute cannot be negative")
	}

	if c.Security.TLSEnabled {
		if c.Security.TLSCertFile == "" || c.Security.TLSKeyFile == "" {
			return fmt.Errorf("TLS enabled but cert/key files not specified")
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	clone.API.AllowedOrigins = make([]string, len(c.API.AllowedOrigins))
	copy(clone.API.AllowedOrigins, c.API.AllowedOrigins)

	clone.Logging.Output = make(StringSlice, len(c.Logging.Output))
	copy(clone.Logging.Output, c.Logging.Output)

	clone.Sync.Clients = make(map[string]SyncClientConfig, len(c.Sync.Clients))
	for k, v := range c.Sync.Clients {
		clone.Sync.Clients[k] = v
	}

	return &clone
}
