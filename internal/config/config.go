// Package config handles the configuration directory, backend settings and file paths.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// AppName is the application directory name.
	AppName = "todoshell"

	// BackendFile holds the project URL and anon key.
	BackendFile = "backend.json"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// LocalDBFile is the SQLite database of the local backend.
	LocalDBFile = "local.db"

	// LogFile receives debug logs when --debug is set.
	LogFile = "debug.log"
)

// Backend kinds.
const (
	BackendSupabase = "supabase"
	BackendLocal    = "local"
)

// ErrNotConfigured is returned by Validate when the backend cannot be used.
var ErrNotConfigured = errors.New("backend not configured")

// FallbackOwner is attached to new tasks when no session identity is known.
const FallbackOwner = "temp1@example.com"

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging to LogPath.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// NoColor disables terminal colours.
	NoColor bool

	// Backend selects the gateway implementation.
	Backend string

	// URL and AnonKey address the remote project.
	URL     string
	AnonKey string

	// Table is the tasks collection name.
	Table string

	// HTTPTimeout bounds a single backend round trip.
	HTTPTimeout time.Duration

	// SessionPoll is how often the session file is checked for changes
	// made by other processes.
	SessionPoll time.Duration

	// LocalAutoConfirm marks local sign-ups as verified immediately.
	LocalAutoConfirm bool

	// Log is the component logger. Never nil after New.
	Log *zap.Logger
}

// backendSettings is the on-disk form of backend.json.
type backendSettings struct {
	Backend string `json:"backend"`
	URL     string `json:"url"`
	AnonKey string `json:"anon_key"`
	Table   string `json:"table"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todoshell or $HOME/.config/todoshell.
// Settings come from backend.json and are overridden by environment variables.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:              dir,
		Backend:          BackendSupabase,
		Table:            "tasks",
		HTTPTimeout:      10 * time.Second,
		SessionPoll:      750 * time.Millisecond,
		LocalAutoConfirm: true,
		Log:              zap.NewNop(),
	}

	if err := cfg.loadBackendFile(); err != nil {
		return nil, err
	}

	cfg.Backend = getEnvString("TODOSHELL_BACKEND", cfg.Backend)
	cfg.URL = strings.TrimRight(getEnvString("SUPABASE_URL", cfg.URL), "/")
	cfg.AnonKey = getEnvString("SUPABASE_ANON_KEY", cfg.AnonKey)
	cfg.Table = getEnvString("TODOSHELL_TABLE", cfg.Table)
	cfg.HTTPTimeout = getEnvDuration("TODOSHELL_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.SessionPoll = getEnvDuration("TODOSHELL_SESSION_POLL", cfg.SessionPoll)
	cfg.LocalAutoConfirm = getEnvBool("TODOSHELL_LOCAL_AUTOCONFIRM", cfg.LocalAutoConfirm)
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColor = true
	}

	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSupabase:
		var missing []string
		if c.URL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.AnonKey == "" {
			missing = append(missing, "SUPABASE_ANON_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: set %s or write %s", ErrNotConfigured, strings.Join(missing, ", "), c.BackendPath())
		}
	case BackendLocal:
	default:
		return fmt.Errorf("%w: unknown backend: %s", ErrNotConfigured, c.Backend)
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("%w: table name must not be empty", ErrNotConfigured)
	}
	return nil
}

// BackendPath returns the path to the backend settings file.
func (c *Config) BackendPath() string {
	return filepath.Join(c.Dir, BackendFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// LocalDBPath returns the path to the local backend database.
func (c *Config) LocalDBPath() string {
	return filepath.Join(c.Dir, LocalDBFile)
}

// LogPath returns the path to the debug log.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

func (c *Config) loadBackendFile() error {
	data, err := os.ReadFile(c.BackendPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", BackendFile, err)
	}
	var s backendSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", BackendFile, err)
	}
	if s.Backend != "" {
		c.Backend = s.Backend
	}
	if s.URL != "" {
		c.URL = strings.TrimRight(s.URL, "/")
	}
	if s.AnonKey != "" {
		c.AnonKey = s.AnonKey
	}
	if s.Table != "" {
		c.Table = s.Table
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
