package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log        LogConfig      `mapstructure:"log"`
	API        APIConfig      `mapstructure:"api"`
	Session    SessionConfig  `mapstructure:"session"`
	Query      QueryConfig    `mapstructure:"query"`
	Audit      AuditConfig    `mapstructure:"audit"`
	MySQL      DatabaseConfig `mapstructure:"mysql"`
	ClickHouse DatabaseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Mock       MockConfig     `mapstructure:"mock"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json | console
}

// APIConfig describes the remote Admin API. Mode "proxy" targets the local
// reverse proxy used in development, "direct" the public HTTPS endpoint.
type APIConfig struct {
	Mode      string        `mapstructure:"mode"`
	ProxyURL  string        `mapstructure:"proxy_url"`
	DirectURL string        `mapstructure:"direct_url"`
	Key       string        `mapstructure:"key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig trips the client after FailThreshold consecutive failures;
// 0 disables it.
type BreakerConfig struct {
	FailThreshold int           `mapstructure:"fail_threshold"`
	OpenFor       time.Duration `mapstructure:"open_for"`
}

// BaseURL resolves the base URL selected by Mode.
func (c APIConfig) BaseURL() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", "proxy":
		return strings.TrimRight(c.ProxyURL, "/"), nil
	case "direct":
		return strings.TrimRight(c.DirectURL, "/"), nil
	default:
		return "", fmt.Errorf("unknown api mode %q", c.Mode)
	}
}

type SessionConfig struct {
	Backend      string        `mapstructure:"backend"` // file | redis
	FilePath     string        `mapstructure:"file_path"`
	ScopedPath   string        `mapstructure:"scoped_path"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	HandshakeTTL time.Duration `mapstructure:"handshake_ttl"`
}

type QueryConfig struct {
	StaleTime      time.Duration `mapstructure:"stale_time"`
	GCTime         time.Duration `mapstructure:"gc_time"`
	Retries        int           `mapstructure:"retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
	PageSize       int           `mapstructure:"page_size"`
}

type AuditConfig struct {
	Sinks     []string      `mapstructure:"sinks"`  // log | kafka | sql
	Driver    string        `mapstructure:"driver"` // mysql | clickhouse
	Topic     string        `mapstructure:"topic"`
	BatchSize int           `mapstructure:"batch_size"`
	BatchWait time.Duration `mapstructure:"batch_wait"`
}

// HasSink reports whether the named sink is enabled.
func (c AuditConfig) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

// MockConfig drives the local mock of the Admin API.
type MockConfig struct {
	Addr      string          `mapstructure:"addr"`
	APIKey    string          `mapstructure:"api_key"`
	OTPCode   string          `mapstructure:"otp_code"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	RPS     int  `mapstructure:"rps"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (TREEGAR_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	// env override (TREEGAR_API_KEY, TREEGAR_SESSION_BACKEND, ...)
	v.SetEnvPrefix("TREEGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
