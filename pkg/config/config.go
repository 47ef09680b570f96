package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Orders  OrdersConfig  `mapstructure:"orders"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

type ServerConfig struct {
	Name            string        `mapstructure:"name"`
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

func (c *GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MySQLConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// MongoDBConfig.Driver is "mongo" or "memory". The memory driver keeps
// everything in process and exists for local runs and tests.
type MongoDBConfig struct {
	Driver          string `mapstructure:"driver"`
	URI             string `mapstructure:"uri"`
	Database        string `mapstructure:"database"`
	AuditCollection string `mapstructure:"audit_collection"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Key       string `mapstructure:"key"`
	Secret    string `mapstructure:"secret"`
	Endpoint  string `mapstructure:"endpoint"`
	PublicURL string `mapstructure:"public_url"`
	LocalRoot string `mapstructure:"local_root"`
	LocalURL  string `mapstructure:"local_url"`
	Folder    string `mapstructure:"folder"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

type ChatConfig struct {
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	RatePerMinute float64 `mapstructure:"rate_per_minute"`
	Burst         int     `mapstructure:"burst"`
}

const (
	ConsistencyBestEffort    = "best_effort"
	ConsistencyTransactional = "transactional"
)

type OrdersConfig struct {
	Consistency       string `mapstructure:"consistency"`
	StrictTransitions bool   `mapstructure:"strict_transitions"`
}

type CacheConfig struct {
	CatalogTTL   time.Duration `mapstructure:"catalog_ttl"`
	PrincipalTTL time.Duration `mapstructure:"principal_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "gemora-api")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 9090)

	v.SetDefault("etcd.endpoints", []string{})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/gemora/services/")
	v.SetDefault("etcd.lease_ttl", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("mysql.enabled", false)
	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.username", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "gemora")
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.max_open_conns", 20)

	v.SetDefault("mongodb.driver", "mongo")
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "gemora")
	v.SetDefault("mongodb.audit_collection", "audit_logs")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.key", "")
	v.SetDefault("storage.secret", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.public_url", "")
	v.SetDefault("storage.local_root", "./uploads")
	v.SetDefault("storage.local_url", "/uploads")
	v.SetDefault("storage.folder", "gemora")
	v.SetDefault("storage.max_bytes", 10<<20)

	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.model", "gemini-2.5-flash")
	v.SetDefault("chat.rate_per_minute", 20)
	v.SetDefault("chat.burst", 5)

	v.SetDefault("orders.consistency", ConsistencyBestEffort)
	v.SetDefault("orders.strict_transitions", false)

	v.SetDefault("cache.catalog_ttl", 5*time.Minute)
	v.SetDefault("cache.principal_ttl", 30*time.Minute)
}

// Load reads the YAML file at configPath, if present, and overlays GEMORA_*
// environment variables (GEMORA_MONGODB_URI, GEMORA_AUTH_JWT_SECRET, ...).
// A .env file in the working directory is loaded first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GEMORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Orders.Consistency {
	case ConsistencyBestEffort, ConsistencyTransactional:
	default:
		return fmt.Errorf("orders.consistency must be %q or %q, got %q",
			ConsistencyBestEffort, ConsistencyTransactional, c.Orders.Consistency)
	}
	switch c.MongoDB.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("mongodb.driver must be mongo or memory, got %q", c.MongoDB.Driver)
	}
	switch c.Storage.Driver {
	case "s3", "local":
	default:
		return fmt.Errorf("storage.driver must be s3 or local, got %q", c.Storage.Driver)
	}
	return nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}
