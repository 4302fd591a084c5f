package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Env           string `yaml:"env"`
	ShortID       `yaml:"short_id"`
	URLValidation `yaml:"url_validation"`
	Cache         `yaml:"cache"`
	Analytics     `yaml:"analytics"`
	Storage       `yaml:"storage"`
	HTTPServer    `yaml:"http_server"`
	Postgres      `yaml:"postgres"`
	Redis         `yaml:"redis"`
	Logger        `yaml:"logger"`
}

// RestrictPrivateHosts reports whether loopback and private hosts are
// rejected. Always true in prod.
func (c *Config) RestrictPrivateHosts() bool {
	return c.Env == EnvProd || c.URLValidation.BlockPrivateHosts
}

type ShortID struct {
	Length      int `yaml:"length"`
	MinLength   int `yaml:"min_length"`
	MaxLength   int `yaml:"max_length"`
	MaxAttempts int `yaml:"max_attempts"`
}

var defaultShortID = ShortID{
	Length:      8,
	MinLength:   6,
	MaxLength:   10,
	MaxAttempts: 5,
}

type URLValidation struct {
	BlockPrivateHosts bool `yaml:"block_private_hosts"`
}

type Cache struct {
	TTL            time.Duration `yaml:"ttl"`
	EvictionPeriod time.Duration `yaml:"eviction_period"`
}

var defaultCache = Cache{
	TTL:            time.Hour,
	EvictionPeriod: 2 * time.Minute,
}

type Analytics struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

var defaultAnalytics = Analytics{
	Concurrency: 64,
	Timeout:     5 * time.Second,
}

type Storage struct {
	Driver string `yaml:"driver"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	KeyPrefix    string        `yaml:"key_prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
}

var defaultRedis = Redis{
	Host:         "localhost",
	Port:         6379,
	KeyPrefix:    "shortlink:",
	DialTimeout:  5 * time.Second,
	ReadTimeout:  3 * time.Second,
	WriteTimeout: 3 * time.Second,
	PoolSize:     10,
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type Logger struct {
	Level   string `yaml:"level"`
	JSON    bool   `yaml:"json"`
	Concise bool   `yaml:"concise"`
}

var defaultLogger = Logger{
	Level:   "info",
	Concise: true,
}

// SlogLevel parses Level, falling back to info for unknown values.
func (l *Logger) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}

	switch c.Storage.Driver {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.ShortID.MinLength > c.ShortID.MaxLength {
		return fmt.Errorf("short_id.min_length %d exceeds max_length %d", c.ShortID.MinLength, c.ShortID.MaxLength)
	}
	if c.ShortID.Length < c.ShortID.MinLength || c.ShortID.Length > c.ShortID.MaxLength {
		return fmt.Errorf("short_id.length %d outside [%d, %d]", c.ShortID.Length, c.ShortID.MinLength, c.ShortID.MaxLength)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortID = defaultShortID
	cfg.Cache = defaultCache
	cfg.Analytics = defaultAnalytics
	cfg.Storage = Storage{Driver: DriverPostgres}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.Logger = defaultLogger
}
