package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lock      LockConfig      `mapstructure:"lock"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxUploadMB bounds multipart bodies (exercise videos).
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
}

// Storage backends accepted in database.driver.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	// URI and Name are used by the mongo driver.
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
	// DSN is used by the postgres driver.
	DSN string `mapstructure:"dsn"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	// Duration string in config.yaml, e.g. "24h".
	Expiration time.Duration `mapstructure:"expiration"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// MaxRetries follows go-redis: 0 means its default, -1 disables retries.
	MaxRetries int `mapstructure:"max_retries"`
}

// LockConfig selects how owner locks are held: "local" (in-process) or
// "redis" (shared lease, needed when several instances run).
type LockConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type CacheConfig struct {
	HomeTTL time.Duration `mapstructure:"home_ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Tracing export is
	// disabled when empty.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	// A missing config file is fine; defaults and env vars still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	return config, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("database.name", "fitness_content")
	v.SetDefault("database.dsn", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "2s")
	v.SetDefault("redis.max_retries", 1)
	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("cache.home_ttl", "5m")
	v.SetDefault("telemetry.service_name", "fitness-content")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("log.level", "info")
}
