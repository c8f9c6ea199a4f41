package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/clanmetrics/wom-monitor/internal/analysis"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig        `yaml:"server"`
	WOM        WOMConfig           `yaml:"wom"`
	Redis      RedisConfig         `yaml:"redis"`
	Polling    PollingConfig       `yaml:"polling"`
	Cache      CacheConfig         `yaml:"cache"`
	Thresholds analysis.Thresholds `yaml:"thresholds"`
	Colors     map[string]string   `yaml:"colors"`
	Retention  RetentionConfig     `yaml:"retention"`
	ChurnRisk  ChurnRiskConfig     `yaml:"churn_risk"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// WOMConfig holds Wise Old Man API configuration
type WOMConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	UserAgent      string `yaml:"user_agent"`
	GroupID        int64  `yaml:"group_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c WOMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the optional snapshot cache backend configuration
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PollingConfig holds roster polling configuration
type PollingConfig struct {
	IntervalSeconds   int    `yaml:"interval_seconds"`
	GainsMetric       string `yaml:"gains_metric"`
	GainsPeriod       string `yaml:"gains_period"`
	AchievementsLimit int    `yaml:"achievements_limit"`
}

// Interval returns the polling interval as a duration
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// CacheConfig holds per-key TTLs for the snapshot cache
type CacheConfig struct {
	RosterTTLSeconds  int `yaml:"roster_ttl_seconds"`
	GainsTTLSeconds   int `yaml:"gains_ttl_seconds"`
	DetailsTTLSeconds int `yaml:"details_ttl_seconds"`
}

// RosterTTL returns the roster snapshot TTL as a duration
func (c CacheConfig) RosterTTL() time.Duration {
	return time.Duration(c.RosterTTLSeconds) * time.Second
}

// GainsTTL returns the gains snapshot TTL as a duration
func (c CacheConfig) GainsTTL() time.Duration {
	return time.Duration(c.GainsTTLSeconds) * time.Second
}

// DetailsTTL returns the group details TTL as a duration
func (c CacheConfig) DetailsTTL() time.Duration {
	return time.Duration(c.DetailsTTLSeconds) * time.Second
}

// RetentionConfig holds the retention table day thresholds
type RetentionConfig struct {
	Periods []int `yaml:"periods"`
}

// ChurnRiskConfig holds the churn-risk filter window. The bounds are
// pointers so that an explicit 0 (an "everyone up to max" window) is
// distinguishable from an unset field.
type ChurnRiskConfig struct {
	MinDays *int `yaml:"min_days"`
	MaxDays *int `yaml:"max_days"`
}

// Window returns the configured churn-risk day window, with defaults
// for any unset bound.
func (c ChurnRiskConfig) Window() (minDays, maxDays int) {
	minDays = analysis.DefaultChurnMinDays
	maxDays = analysis.DefaultChurnMaxDays
	if c.MinDays != nil {
		minDays = *c.MinDays
	}
	if c.MaxDays != nil {
		maxDays = *c.MaxDays
	}
	return minDays, maxDays
}

// ColorMap converts the configured status colors into the analysis
// package's color map, layering overrides on top of the defaults.
func (c *Config) ColorMap() analysis.ColorMap {
	colors := analysis.DefaultColors()
	for status, color := range c.Colors {
		if color != "" {
			colors[analysis.Status(status)] = color
		}
	}
	return colors
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Fail fast on broken thresholds: a non-increasing ordering is a
	// configuration bug, not a per-record condition.
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid activity thresholds: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.WOM.BaseURL == "" {
		cfg.WOM.BaseURL = "https://api.wiseoldman.net/v2"
	}
	if cfg.WOM.UserAgent == "" {
		cfg.WOM.UserAgent = "wom-monitor/1.0"
	}
	if cfg.WOM.TimeoutSeconds == 0 {
		cfg.WOM.TimeoutSeconds = 30
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Polling.IntervalSeconds == 0 {
		cfg.Polling.IntervalSeconds = 300
	}
	if cfg.Polling.GainsMetric == "" {
		cfg.Polling.GainsMetric = "overall"
	}
	if cfg.Polling.GainsPeriod == "" {
		cfg.Polling.GainsPeriod = "week"
	}
	if cfg.Polling.AchievementsLimit == 0 {
		cfg.Polling.AchievementsLimit = 50
	}
	if cfg.Cache.RosterTTLSeconds == 0 {
		cfg.Cache.RosterTTLSeconds = 300
	}
	if cfg.Cache.GainsTTLSeconds == 0 {
		cfg.Cache.GainsTTLSeconds = 600
	}
	if cfg.Cache.DetailsTTLSeconds == 0 {
		cfg.Cache.DetailsTTLSeconds = 900
	}
	if cfg.Thresholds == (analysis.Thresholds{}) {
		cfg.Thresholds = analysis.DefaultThresholds()
	}
	if len(cfg.Retention.Periods) == 0 {
		cfg.Retention.Periods = append([]int(nil), analysis.DefaultRetentionPeriods...)
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env
// vars, so the API key can live in .env locally and in real env vars in
// a hosted deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if apiKey := os.Getenv("WOM_API_KEY"); apiKey != "" {
		cfg.WOM.APIKey = apiKey
	}
	if baseURL := os.Getenv("WOM_BASE_URL"); baseURL != "" {
		cfg.WOM.BaseURL = baseURL
	}
	if groupID := os.Getenv("WOM_GROUP_ID"); groupID != "" {
		id, err := strconv.ParseInt(groupID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid WOM_GROUP_ID %q: %w", groupID, err)
		}
		cfg.WOM.GroupID = id
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	return cfg, nil
}
