package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDepartment    = "General"
	DefaultAdminRoleName = "Admin"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Discord       DiscordConfig       `mapstructure:"discord"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
}

// DatabaseConfig points at the two SQLite files. Handles are opened per unit
// of work, so there are no pool sizes here.
type DatabaseConfig struct {
	UsersPath   string        `mapstructure:"users_path" validate:"required"`
	FilesPath   string        `mapstructure:"files_path" validate:"required"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type SecurityConfig struct {
	SessionSecret string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"required,min=1m"`
	CookieName    string        `mapstructure:"cookie_name"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
	BCryptCost    int           `mapstructure:"bcrypt_cost" validate:"required,min=4,max=15"`
	APIKey        string        `mapstructure:"api_key"`
}

type StorageConfig struct {
	DownloadsDir string `mapstructure:"downloads_dir"`
	LogsDir      string `mapstructure:"logs_dir"`
	MaxFileSize  int64  `mapstructure:"max_file_size"`
}

type IngestConfig struct {
	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
	DownloadTimeout   time.Duration `mapstructure:"download_timeout"`
	DownloadsPerSec   float64       `mapstructure:"downloads_per_second"`
	DownloadBurst     int           `mapstructure:"download_burst"`
	DefaultDepartment string        `mapstructure:"default_department"`
}

type DiscordConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Token         string `mapstructure:"token"`
	AdminRoleName string `mapstructure:"admin_role_name"`
	APIBaseURL    string `mapstructure:"api_base_url"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- DEFAULTS -----------------

func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}

	if c.Database.UsersPath == "" {
		c.Database.UsersPath = "user_data.db"
	}
	if c.Database.FilesPath == "" {
		c.Database.FilesPath = "files_data.db"
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = 5 * time.Second
	}

	if c.Security.SessionTTL == 0 {
		c.Security.SessionTTL = 12 * time.Hour
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = "filehub_session"
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}

	if c.Storage.DownloadsDir == "" {
		c.Storage.DownloadsDir = "downloads"
	}
	if c.Storage.LogsDir == "" {
		c.Storage.LogsDir = "Logs"
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 100 << 20
	}

	if c.Ingest.Workers == 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.QueueSize == 0 {
		c.Ingest.QueueSize = 100
	}
	if c.Ingest.DownloadTimeout == 0 {
		c.Ingest.DownloadTimeout = 60 * time.Second
	}
	if c.Ingest.DownloadsPerSec == 0 {
		c.Ingest.DownloadsPerSec = 5
	}
	if c.Ingest.DownloadBurst == 0 {
		c.Ingest.DownloadBurst = 10
	}
	if c.Ingest.DefaultDepartment == "" {
		c.Ingest.DefaultDepartment = DefaultDepartment
	}

	if c.Discord.AdminRoleName == "" {
		c.Discord.AdminRoleName = DefaultAdminRoleName
	}

	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
		if c.Environment == "production" {
			c.Observability.Logging.Format = "json"
		}
	}
}

// LoadConfigFromEnv builds the config for container deployments, reading the
// same variable names the bot has always used.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 0),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 0),
			OpenAPIPath:  getEnv("OPENAPI_PATH", ""),
		},
		Database: DatabaseConfig{
			UsersPath: getEnv("USER_DATABASE", ""),
			FilesPath: getEnv("FILES_DATABASE", ""),
		},
		Security: SecurityConfig{
			SessionSecret: getEnv("SECRET_KEY", ""),
			SessionTTL:    getEnvAsDuration("SESSION_TTL", 0),
			CookieSecure:  getEnvAsBool("COOKIE_SECURE", true),
			BCryptCost:    getEnvAsInt("BCRYPT_COST", 0),
			APIKey:        getEnv("API_KEY", ""),
		},
		Storage: StorageConfig{
			DownloadsDir: getEnv("DOWNLOADS_DIR", ""),
			LogsDir:      getEnv("LOGS_DIR", ""),
			MaxFileSize:  int64(getEnvAsInt("MAX_FILE_SIZE", 0)),
		},
		Ingest: IngestConfig{
			Workers:           getEnvAsInt("INGEST_WORKERS", 0),
			QueueSize:         getEnvAsInt("INGEST_QUEUE_SIZE", 0),
			DownloadTimeout:   getEnvAsDuration("DOWNLOAD_TIMEOUT", 0),
			DefaultDepartment: getEnv("DEFAULT_DEPARTMENT", ""),
		},
		Discord: DiscordConfig{
			Enabled:       getEnvAsBool("DISCORD_ENABLED", true),
			Token:         getEnv("DISCORD_TOKEN", ""),
			AdminRoleName: getEnv("ADMIN_ROLE_NAME", ""),
			APIBaseURL:    strings.TrimSpace(getEnv("API_BASE_URL", "")),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", false),
				Path:    getEnv("METRICS_PATH", ""),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", ""),
				Format: getEnv("LOG_FORMAT", ""),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Ingest.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("ingest config: %v", err))
	}

	if err := c.Discord.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("discord config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.UsersPath == "" || c.FilesPath == "" {
		return errors.New("users_path and files_path are required")
	}
	if c.UsersPath == c.FilesPath {
		return errors.New("users_path and files_path must be different files")
	}
	return nil
}

// DSN returns the sqlite3 connection string for a database file.
func (c *DatabaseConfig) DSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on", path, c.BusyTimeout.Milliseconds())
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}

func (c *IngestConfig) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.QueueSize < 1 {
		return errors.New("queue_size must be at least 1")
	}
	return nil
}

func (c *DiscordConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	if c.APIBaseURL != "" {
		if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
			return fmt.Errorf("invalid api_base_url: %w", err)
		}
	}
	return nil
}
