package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/petdesk/internal/pathx"
)

// Credential backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the resolved petdesk configuration.
type Config struct {
	APIURL            string
	Timeout           time.Duration
	PageSize          int
	CredentialBackend string
	CredentialPath    string
	RedisAddr         string
	LogLevel          string
	LogFormat         string
	LogFile           string
	// RefreshInterval is the console auto-refresh period; zero disables it.
	RefreshInterval time.Duration
}

const (
	defaultConfigPath = "~/.config/petdesk/config.toml"
	defaultAPIURL     = "https://pet-manager-api.geia.vip"
	defaultTimeout    = 10
	defaultPageSize   = 10
	defaultTOMLCreds  = "~/.config/petdesk/credentials.toml"
	defaultSQLCreds   = "~/.config/petdesk/credentials.db"
	defaultRedisAddr  = "127.0.0.1:6379"
	defaultLogFile    = "~/.local/state/petdesk/petdesk.log"

	sqliteInMemory = ":memory:"

	envAPIURL   = "PETDESK_API_URL"
	envLogLevel = "PETDESK_LOG_LEVEL"
)

type fileConfig struct {
	APIURL            string `toml:"api_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	PageSize          int    `toml:"page_size"`
	CredentialBackend string `toml:"credential_backend"`
	CredentialPath    string `toml:"credential_path"`
	RedisAddr         string `toml:"redis_addr"`
	LogLevel          string `toml:"log_level"`
	LogFormat         string `toml:"log_format"`
	LogFile           string `toml:"log_file"`
	RefreshSeconds    int    `toml:"refresh_seconds"`
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config at path, falling back to defaults when the file is
// missing. PETDESK_API_URL and PETDESK_LOG_LEVEL override the file.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	resolved, err := pathx.Expand(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer func() { _ = file.Close() }()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v, ok := os.LookupEnv(envAPIURL); ok && strings.TrimSpace(v) != "" {
		raw.APIURL = v
	}
	if v, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(v) != "" {
		raw.LogLevel = v
	}
	return normalize(raw)
}

func normalize(raw fileConfig) (Config, error) {
	cfg := Config{
		APIURL:            strings.TrimSpace(raw.APIURL),
		Timeout:           time.Duration(raw.TimeoutSeconds) * time.Second,
		PageSize:          raw.PageSize,
		CredentialBackend: strings.ToLower(strings.TrimSpace(raw.CredentialBackend)),
		CredentialPath:    strings.TrimSpace(raw.CredentialPath),
		RedisAddr:         strings.TrimSpace(raw.RedisAddr),
		LogLevel:          strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		LogFormat:         strings.ToLower(strings.TrimSpace(raw.LogFormat)),
		LogFile:           strings.TrimSpace(raw.LogFile),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if raw.TimeoutSeconds <= 0 {
		cfg.Timeout = defaultTimeout * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if raw.RefreshSeconds > 0 {
		cfg.RefreshInterval = time.Duration(raw.RefreshSeconds) * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = pathx.MustExpand(cfg.LogFile)

	switch cfg.CredentialBackend {
	case "":
		cfg.CredentialBackend = BackendFile
	case BackendFile, BackendSQLite, BackendRedis, BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown credential_backend %q", raw.CredentialBackend)
	}
	if cfg.CredentialPath == "" {
		switch cfg.CredentialBackend {
		case BackendSQLite:
			cfg.CredentialPath = defaultSQLCreds
		default:
			cfg.CredentialPath = defaultTOMLCreds
		}
	}
	if cfg.CredentialPath != sqliteInMemory {
		cfg.CredentialPath = pathx.MustExpand(cfg.CredentialPath)
	}
	if cfg.CredentialBackend == BackendRedis && cfg.RedisAddr == "" {
		cfg.RedisAddr = defaultRedisAddr
	}

	if _, err := ParseBaseURL(cfg.APIURL); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BaseURL returns the parsed API URL.
func (c Config) BaseURL() (*url.URL, error) {
	return ParseBaseURL(c.APIURL)
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	return filepath.Dir(c.LogFile)
}

// ParseBaseURL normalizes raw to scheme and host. A missing scheme means
// https; any path, query or fragment is dropped.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
