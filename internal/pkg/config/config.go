package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	RateLimit    int `mapstructure:"rate_limit"`
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
}

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type GeocoderConfig struct {
	URL       string `mapstructure:"url"`
	UserAgent string `mapstructure:"user_agent"`
	Timeout   int    `mapstructure:"timeout"`
	CacheTTL  int    `mapstructure:"cache_ttl"`
}

func (g GeocoderConfig) TimeoutDuration() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

type RoutingConfig struct {
	DrivingURL string `mapstructure:"driving_url"`
	WalkingURL string `mapstructure:"walking_url"`
	CyclingURL string `mapstructure:"cycling_url"`
	Timeout    int    `mapstructure:"timeout"`
}

func (r RoutingConfig) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

type PlannerConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	Versions string `mapstructure:"versions"`
	Timeout  int    `mapstructure:"timeout"`
}

// VersionList splits the comma-separated API version order.
func (p PlannerConfig) VersionList() []string {
	var out []string
	for _, v := range strings.Split(p.Versions, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p PlannerConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

type ExecutorConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
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

	// Environment variables: GEOPLAN_GEOCODER_USER_AGENT → geocoder.user_agent
	v.SetEnvPrefix("GEOPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The provider's own variable names are honoured for the key.
	_ = v.BindEnv("planner.api_key", "GEOPLAN_PLANNER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")

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
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geoplan")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "geoplan")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("geocoder.url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocoder.user_agent", "geoplan/1.0 (ops@example.com)")
	v.SetDefault("geocoder.timeout", 15)
	v.SetDefault("geocoder.cache_ttl", 3600)
	v.SetDefault("routing.driving_url", "https://router.project-osrm.org/route/v1/driving")
	v.SetDefault("routing.walking_url", "https://routing.openstreetmap.de/routed-foot/route/v1/foot")
	v.SetDefault("routing.cycling_url", "https://routing.openstreetmap.de/routed-bike/route/v1/cycling")
	v.SetDefault("routing.timeout", 20)
	v.SetDefault("planner.api_key", "")
	v.SetDefault("planner.model", "gemini-2.0-flash")
	v.SetDefault("planner.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("planner.versions", "v1beta,v1")
	v.SetDefault("planner.timeout", 30)
	v.SetDefault("executor.parallelism", 1)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "geoplan-plans")
}

// Validate checks that required configuration fields are present and sane.
// A missing planner key is not an error: the assistant endpoint then answers
// 503 while the direct geocode and route endpoints keep working.
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
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Geocoder.URL == "" {
		errs = append(errs, "geocoder.url is required")
	}
	if strings.TrimSpace(c.Geocoder.UserAgent) == "" {
		errs = append(errs, "geocoder.user_agent is required by the Nominatim usage policy")
	}
	if c.Geocoder.Timeout <= 0 {
		errs = append(errs, "geocoder.timeout must be positive")
	}
	if c.Geocoder.CacheTTL < 0 {
		errs = append(errs, "geocoder.cache_ttl must not be negative")
	}
	if c.Routing.DrivingURL == "" || c.Routing.WalkingURL == "" || c.Routing.CyclingURL == "" {
		errs = append(errs, "routing.driving_url, routing.walking_url and routing.cycling_url are required")
	}
	if c.Routing.Timeout <= 0 {
		errs = append(errs, "routing.timeout must be positive")
	}
	if len(c.Planner.VersionList()) == 0 {
		errs = append(errs, "planner.versions must list at least one API version")
	}
	if c.Planner.Timeout <= 0 {
		errs = append(errs, "planner.timeout must be positive")
	}
	if c.Executor.Parallelism < 1 || c.Executor.Parallelism > 16 {
		errs = append(errs, fmt.Sprintf("executor.parallelism must be 1-16, got %d", c.Executor.Parallelism))
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
