// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// corpus source, the search service and its backing stores.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Search    SearchConfig    `yaml:"search"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings. RateLimit is requests per minute
// per client address; zero disables limiting. X-Forwarded-For is only read
// from peers inside TrustedProxies (addresses or CIDR prefixes).
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	RateLimit       int           `yaml:"rateLimit"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	TrustedProxies  []string      `yaml:"trustedProxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated as a
// single-host prefix.
func (s ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, entry := range s.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("server: invalid trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("server: invalid trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Corpus source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// CorpusConfig selects where the document list, document contents and noise
// words are read from.
type CorpusConfig struct {
	Source         string `yaml:"source"`
	DocsFile       string `yaml:"docsFile"`
	NoiseWordsFile string `yaml:"noiseWordsFile"`
	BaseDir        string `yaml:"baseDir"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
}

// RedisConfig holds Redis connection and caching parameters. An empty Addr
// disables the query cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// MaxResultsLimit is the most documents a query may return.
const MaxResultsLimit = 5

// SearchConfig controls how many documents a query may return. MaxResults
// may not exceed MaxResultsLimit.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxResults   int `yaml:"maxResults"`
}

// AnalyticsConfig controls search-event collection and snapshotting.
type AnalyticsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	BufferSize       int           `yaml:"bufferSize"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration values the services cannot run with.
func (c *Config) Validate() error {
	switch c.Corpus.Source {
	case SourceFile:
		if c.Corpus.DocsFile == "" || c.Corpus.NoiseWordsFile == "" {
			return fmt.Errorf("corpus: docsFile and noiseWordsFile are required for the file source")
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("corpus: unknown source %q", c.Corpus.Source)
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search: defaultLimit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search: maxResults (%d) is below defaultLimit (%d)", c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Search.MaxResults > MaxResultsLimit {
		return fmt.Errorf("search: maxResults (%d) exceeds %d", c.Search.MaxResults, MaxResultsLimit)
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  5 * time.Second,
			RateLimit:       600,
			CORSOrigins:     []string{"*"},
		},
		Corpus: CorpusConfig{
			Source:         SourceFile,
			DocsFile:       "docs.txt",
			NoiseWordsFile: "noisewords.txt",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "littlesearch",
			User:            "littlesearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "littlesearch-analytics",
			Topics: KafkaTopics{
				SearchEvents: "search-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Search: SearchConfig{
			DefaultLimit: 5,
			MaxResults:   5,
		},
		Analytics: AnalyticsConfig{
			Enabled:          true,
			BufferSize:       10000,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads LSE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LSE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v, ok := os.LookupEnv("LSE_SERVER_TRUSTED_PROXIES"); ok {
		cfg.Server.TrustedProxies = nil
		if v != "" {
			cfg.Server.TrustedProxies = strings.Split(v, ",")
		}
	}
	if v := os.Getenv("LSE_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("LSE_CORPUS_DOCS_FILE"); v != "" {
		cfg.Corpus.DocsFile = v
	}
	if v := os.Getenv("LSE_CORPUS_NOISE_WORDS_FILE"); v != "" {
		cfg.Corpus.NoiseWordsFile = v
	}
	if v := os.Getenv("LSE_CORPUS_BASE_DIR"); v != "" {
		cfg.Corpus.BaseDir = v
	}
	if v := os.Getenv("LSE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("LSE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("LSE_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("LSE_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("LSE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("LSE_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("LSE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("LSE_REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LSE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LSE_ANALYTICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Analytics.Enabled = enabled
		}
	}
	if v := os.Getenv("LSE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LSE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
