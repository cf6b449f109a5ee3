package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "SHOPAPI_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Store struct {
		Driver string `koanf:"driver"` // mongo | mysql | memory
	} `koanf:"store"`

	Mongo struct {
		URI      string        `koanf:"uri"`
		Database string        `koanf:"database"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"mongo"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Enabled  bool   `koanf:"enabled"`
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Rabbit struct {
		Enabled      bool   `koanf:"enabled"`
		URL          string `koanf:"url"`
		Exchange     string `koanf:"exchange"`
		ShippedQueue string `koanf:"shipped_queue"`
		Prefetch     int    `koanf:"prefetch"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Enabled          bool     `koanf:"enabled"`
		Brokers          []string `koanf:"brokers"`
		GroupID          string   `koanf:"group_id"`
		TopicFulfillment string   `koanf:"topic_fulfillment"`
	} `koanf:"kafka"`

	Security struct {
		Signing   string        `koanf:"signing"` // hs256 | rs256
		JWTSecret string        `koanf:"jwt_secret"`
		RSAPubPEM string        `koanf:"rsa_pub_pem"`
		RSAPriPEM string        `koanf:"rsa_pri_pem"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
		Clients   []Client      `koanf:"clients"`
	} `koanf:"security"`

	GraphQL struct {
		MaxDepth int `koanf:"max_depth"`
	} `koanf:"graphql"`
}

// Client is a machine client allowed to use the client-credentials flow.
type Client struct {
	ID      string   `koanf:"id"`
	Secret  string   `koanf:"secret"`
	Perms   []string `koanf:"perms"`
	Enabled bool     `koanf:"enabled"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) per-environment file, optional
	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())
	}

	// 3) environment variables, e.g. SHOPAPI_MONGO__URI, SHOPAPI_SECURITY__JWT_SECRET
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Store.Driver {
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo.uri and mongo.database required")
		}
	case "mysql":
		if c.MySQL.DSN == "" {
			return fmt.Errorf("mysql.dsn required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver must be mongo, mysql or memory, got %q", c.Store.Driver)
	}
	switch strings.ToLower(c.Security.Signing) {
	case "", "hs256":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret required")
		}
	case "rs256":
		if c.Security.RSAPubPEM == "" {
			return fmt.Errorf("security.rsa_pub_pem required")
		}
	default:
		return fmt.Errorf("security.signing must be hs256 or rs256, got %q", c.Security.Signing)
	}
	if c.Security.TTL <= 0 {
		return fmt.Errorf("security.ttl must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required")
	}
	if c.Rabbit.Enabled && c.Rabbit.URL == "" {
		return fmt.Errorf("rabbitmq.url required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required")
	}
	return nil
}
