package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production" - automation endpoints are development-only
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Browser     BrowserConfig   `toml:"browser"`
	Publisher   PublisherConfig `toml:"publisher"`
	Session     SessionConfig   `toml:"session"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Images      ImagesConfig    `toml:"images"`
	Mailer      MailerConfig    `toml:"mailer"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger      BadgerConfig `toml:"badger"`
	Screenshots string       `toml:"screenshots"` // Directory for failure screenshots
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// BrowserConfig controls how browser contexts are acquired
type BrowserConfig struct {
	RemoteURL      string        `toml:"remote_url"`      // ws:// endpoint of a managed browser; empty launches locally
	Headless       bool          `toml:"headless"`
	UserAgent      string        `toml:"user_agent"`
	Locale         string        `toml:"locale"`
	Timezone       string        `toml:"timezone"`
	WindowWidth    int           `toml:"window_width"`
	WindowHeight   int           `toml:"window_height"`
	DefaultTimeout time.Duration `toml:"default_timeout"` // Per-action wait bound inherited by all pages
}

// PublisherConfig parameterizes the editor automation engine.
// Timeouts and thresholds live here so engine variants are config
// profiles, not code forks.
type PublisherConfig struct {
	HomeURL            string        `toml:"home_url"`
	LoginURL           string        `toml:"login_url"`
	NewNoteURL         string        `toml:"new_note_url"`
	PlaceholderPath    string        `toml:"placeholder_path"` // URL path fragment of an unsaved draft
	LoginTimeout       time.Duration `toml:"login_timeout"`
	HydrationMaxRounds int           `toml:"hydration_max_rounds"`
	HydrationInterval  time.Duration `toml:"hydration_interval"`
	HydrationMinNodes  int           `toml:"hydration_min_nodes"` // DOM node count treated as "hydrated"
	SaveTimeout        time.Duration `toml:"save_timeout"`
	TitleChunkSize     int           `toml:"title_chunk_size"`
	BodyChunkSize      int           `toml:"body_chunk_size"`
	ChunkDelayMin      time.Duration `toml:"chunk_delay_min"`
	ChunkDelayMax      time.Duration `toml:"chunk_delay_max"`
}

// SessionConfig controls where the authentication snapshot lives
type SessionConfig struct {
	Path   string `toml:"path"`    // On-disk snapshot path
	EnvVar string `toml:"env_var"` // Env var holding an inline snapshot (takes precedence)
}

type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
	Timeout   string `toml:"timeout"`
}

type GeminiConfig struct {
	APIKey     string `toml:"api_key"`
	ImageModel string `toml:"image_model"`
}

// ImagesConfig configures the image-provider fallback chain
type ImagesConfig struct {
	Providers []ImageProviderConfig `toml:"providers"`
	Timeout   time.Duration         `toml:"timeout"`
}

type ImageProviderConfig struct {
	Name   string `toml:"name"`
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

type MailerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	UseTLS   bool   `toml:"use_tls"`
	Mailbox  string `toml:"mailbox"`
}

// DefaultConfig returns configuration defaults targeting note.com's editor
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8230,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/noteagent",
			},
			Screenshots: "./data/screenshots",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Browser: BrowserConfig{
			Headless:       true,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Locale:         "ja-JP",
			Timezone:       "Asia/Tokyo",
			WindowWidth:    1280,
			WindowHeight:   900,
			DefaultTimeout: 25 * time.Second,
		},
		Publisher: PublisherConfig{
			HomeURL:            "https://note.com",
			LoginURL:           "https://note.com/login",
			NewNoteURL:         "https://editor.note.com/new",
			PlaceholderPath:    "/new",
			LoginTimeout:       45 * time.Second,
			HydrationMaxRounds: 6,
			HydrationInterval:  3 * time.Second,
			HydrationMinNodes:  400,
			SaveTimeout:        30 * time.Second,
			TitleChunkSize:     12,
			BodyChunkSize:      120,
			ChunkDelayMin:      80 * time.Millisecond,
			ChunkDelayMax:      260 * time.Millisecond,
		},
		Session: SessionConfig{
			Path:   "./data/session.json",
			EnvVar: "NOTEAGENT_SESSION_JSON",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 4096,
			Timeout:   "120s",
		},
		Gemini: GeminiConfig{
			ImageModel: "gemini-2.5-flash-image",
		},
		Images: ImagesConfig{
			Timeout: 60 * time.Second,
		},
		Mailer: MailerConfig{
			Port:    993,
			UseTLS:  true,
			Mailbox: "INBOX",
		},
	}
}

// LoadFromFiles loads configuration with precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier ones; missing files are an error.
func LoadFromFiles(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants at startup
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "production" {
		return fmt.Errorf("invalid environment %q: must be development or production", c.Environment)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Publisher.HydrationMaxRounds <= 0 {
		return fmt.Errorf("publisher.hydration_max_rounds must be positive")
	}
	if c.Publisher.TitleChunkSize <= 0 || c.Publisher.BodyChunkSize <= 0 {
		return fmt.Errorf("publisher chunk sizes must be positive")
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(cfg *Config, port int, host string) {
	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
}

// applyEnvOverrides maps NOTEAGENT_* environment variables onto the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOTEAGENT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NOTEAGENT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("NOTEAGENT_ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("NOTEAGENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NOTEAGENT_BADGER_PATH"); v != "" {
		cfg.Storage.Badger.Path = v
	}
	if v := os.Getenv("NOTEAGENT_BROWSER_REMOTE_URL"); v != "" {
		cfg.Browser.RemoteURL = v
	}
	if v := os.Getenv("NOTEAGENT_BROWSER_HEADLESS"); v != "" {
		cfg.Browser.Headless = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("NOTEAGENT_CLAUDE_API_KEY"); v != "" {
		cfg.Claude.APIKey = v
	}
	if v := os.Getenv("NOTEAGENT_GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("NOTEAGENT_IMAP_PASSWORD"); v != "" {
		cfg.Mailer.Password = v
	}
}
