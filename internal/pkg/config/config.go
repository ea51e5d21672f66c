package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	OSRM      OSRMConfig      `mapstructure:"osrm"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Location  LocationConfig  `mapstructure:"location"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort    string `mapstructure:"host_port"`
	Namespace   string `mapstructure:"namespace"`
	TaskQueue   string `mapstructure:"task_queue"`
	RefreshCron string `mapstructure:"refresh_cron"`
}

type OverpassConfig struct {
	URL     string        `mapstructure:"url"`
	BBox    domain.Bounds `mapstructure:"bbox"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OSRMConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendValkey   = "valkey"
)

type FeedbackConfig struct {
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
}

type SnapshotConfig struct {
	Backend string `mapstructure:"backend"`
	Key     string `mapstructure:"key"`
	File    string `mapstructure:"file"`
}

type LocationConfig struct {
	IPLookupURL string        `mapstructure:"ip_lookup_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PULPULUCK_OSRM_TIMEOUT → osrm.timeout
	v.SetEnvPrefix("PULPULUCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pulpuluck")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "pulpuluck")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "fountain-refresh")
	v.SetDefault("temporal.refresh_cron", "*/30 * * * *")

	// Yerevan
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.bbox.min_lat", 40.1)
	v.SetDefault("overpass.bbox.min_lon", 44.4)
	v.SetDefault("overpass.bbox.max_lat", 40.3)
	v.SetDefault("overpass.bbox.max_lon", 44.7)
	v.SetDefault("overpass.timeout", 30*time.Second)

	v.SetDefault("osrm.url", "https://router.project-osrm.org")
	v.SetDefault("osrm.timeout", 8*time.Second)
	v.SetDefault("feedback.backend", BackendFile)
	v.SetDefault("feedback.file", "fountain-feedback.json")
	v.SetDefault("snapshot.backend", BackendValkey)
	v.SetDefault("snapshot.key", "fountains:snapshot")
	v.SetDefault("snapshot.file", "fountain-snapshot.json")
	v.SetDefault("location.ip_lookup_url", "http://ip-api.com/json/?fields=status,message,lat,lon")
	v.SetDefault("location.timeout", 5*time.Second)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Feedback.Backend {
	case BackendFile:
		if c.Feedback.File == "" {
			errs = append(errs, "feedback.file is required for the file backend")
		}
	case BackendPostgres:
		errs = append(errs, c.Database.validate()...)
	default:
		errs = append(errs, fmt.Sprintf("feedback.backend must be %q or %q, got %q", BackendFile, BackendPostgres, c.Feedback.Backend))
	}

	switch c.Snapshot.Backend {
	case BackendValkey:
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey snapshot backend")
		}
	case BackendFile:
		if c.Snapshot.File == "" {
			errs = append(errs, "snapshot.file is required for the file backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("snapshot.backend must be %q or %q, got %q", BackendValkey, BackendFile, c.Snapshot.Backend))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Overpass.URL == "" {
		errs = append(errs, "overpass.url is required")
	}
	b := c.Overpass.BBox
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon ||
		!(domain.GeoPoint{Lat: b.MinLat, Lon: b.MinLon}).Valid() ||
		!(domain.GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon}).Valid() {
		errs = append(errs, fmt.Sprintf("overpass.bbox is not a valid box: %+v", b))
	}
	if c.OSRM.URL == "" {
		errs = append(errs, "osrm.url is required")
	}
	if c.OSRM.Timeout <= 0 {
		errs = append(errs, "osrm.timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (d DatabaseConfig) validate() []string {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user is required")
	}
	if d.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	return errs
}
