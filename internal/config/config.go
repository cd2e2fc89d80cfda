package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"tourbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	API        APIConfig        `yaml:"api"`
	Supabase   SupabaseConfig   `yaml:"supabase"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Map        MapConfig        `yaml:"map"`
	Images     ImagesConfig     `yaml:"images"`
	Stripe     StripeConfig     `yaml:"stripe"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Backup     BackupConfig     `yaml:"backup"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

// APIAuthConfig covers both service clients (api keys) and end users
// (Supabase access tokens signed with JWTSecret).
type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
	JWTSecret    string         `yaml:"jwt_secret"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SupabaseConfig struct {
	URL      string        `yaml:"url"`
	AnonKey  string        `yaml:"anon_key"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DatabaseConfig configures the local store used when no Supabase URL is set.
type DatabaseConfig struct {
	Driver       string         `yaml:"driver"`
	Path         string         `yaml:"path"`
	FixturesPath string         `yaml:"fixtures_path"`
	Postgres     PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN renders a lib/pq connection string.
func (p PostgresConfig) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type CalendarConfig struct {
	MaxRangeDays    int           `yaml:"max_range_days"`
	Timezone        string        `yaml:"timezone"`
	SelectionTTL    time.Duration `yaml:"selection_ttl"`
	RateLimitClicks int           `yaml:"rate_limit_clicks"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
}

// Location resolves Timezone, falling back to the process local zone.
func (c CalendarConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type MapConfig struct {
	ClientID  string `yaml:"client_id"`
	ScriptURL string `yaml:"script_url"`
	Zoom      int    `yaml:"zoom"`
}

type ImagesConfig struct {
	AllowedHosts []string `yaml:"allowed_hosts"`
	Fallback     string   `yaml:"fallback"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key"`
}

type JobsConfig struct {
	SweepSchedule  string `yaml:"sweep_schedule"`
	BackupSchedule string `yaml:"backup_schedule"`
}

// BackupConfig applies to the local SQLite store only.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Supabase.URL != "" {
		u, err := url.Parse(c.Supabase.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("supabase.url %q is not an absolute URL", c.Supabase.URL)
		}
		if c.Supabase.AnonKey == "" {
			return errors.New("supabase.anon_key is required when supabase.url is set")
		}
	} else if c.Database.Driver == "sqlite3" && c.Database.Path == "" {
		return errors.New("database path is required without supabase.url")
	}

	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Calendar.MaxRangeDays < 1 {
		return fmt.Errorf("calendar.max_range_days must be positive, got %d", c.Calendar.MaxRangeDays)
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return fmt.Errorf("api key %q has empty key", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client %q", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// key auth switches on once keys are configured
	if len(c.API.Auth.APIKeys) > 0 {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Supabase.Timeout == 0 {
		c.Supabase.Timeout = 10 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}

	if c.Calendar.MaxRangeDays == 0 {
		c.Calendar.MaxRangeDays = models.DefaultMaxRangeDays
	}
	if c.Calendar.SelectionTTL == 0 {
		c.Calendar.SelectionTTL = models.DefaultSelectionTTL
	}
	if c.Calendar.RateLimitClicks == 0 {
		c.Calendar.RateLimitClicks = models.RateLimitClicks
	}
	if c.Calendar.RateLimitWindow == 0 {
		c.Calendar.RateLimitWindow = models.RateLimitWindow
	}

	if c.Map.ScriptURL == "" {
		c.Map.ScriptURL = models.DefaultMapScriptURL
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = models.DefaultMapZoom
	}

	if len(c.Images.AllowedHosts) == 0 {
		c.Images.AllowedHosts = []string{"raw.githubusercontent.com"}
		if u, err := url.Parse(c.Supabase.URL); err == nil && u.Host != "" {
			c.Images.AllowedHosts = append(c.Images.AllowedHosts, u.Host)
		}
	}
	if c.Images.Fallback == "" {
		c.Images.Fallback = models.DefaultPostImage
	}

	if c.Jobs.SweepSchedule == "" {
		c.Jobs.SweepSchedule = "@every 10m"
	}
	if c.Jobs.BackupSchedule == "" {
		c.Jobs.BackupSchedule = "@daily"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
