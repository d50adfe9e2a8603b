package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	S3         S3Config
	Resilience ResilienceConfig
	Diagnosis  DiagnosisConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	IsDevelopment  bool
}

type StorageConfig struct {
	Driver      string
	HistorySlot string
	ProfileSlot string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
}

type ResilienceConfig struct {
	MaxAttempts         int
	InitialDelayMs      int
	MaxDelayMs          int
	BreakerTimeoutSec   int
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
}

type DiagnosisConfig struct {
	SubmitDelayMs  int
	MaxNotesLength int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverS3     = "s3"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/symptom-checker")

	v.SetEnvPrefix("SYMPTOM_CHECKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
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
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("invalid config: s3.bucket is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("invalid config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.HistorySlot == "" || c.Storage.ProfileSlot == "" {
		return fmt.Errorf("invalid config: storage slots must be named")
	}
	if c.Storage.HistorySlot == c.Storage.ProfileSlot {
		return fmt.Errorf("invalid config: history and profile slots must differ")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	if c.Resilience.BreakerFailureRatio <= 0 || c.Resilience.BreakerFailureRatio > 1 {
		return fmt.Errorf("invalid config: resilience.breakerFailureRatio must be in (0, 1]")
	}
	return nil
}

func (d DiagnosisConfig) SubmitDelay() time.Duration {
	return time.Duration(d.SubmitDelayMs) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.isDevelopment", false)

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.historySlot", "diagnoses")
	v.SetDefault("storage.profileSlot", "userProfile")

	v.SetDefault("sqlite.path", "./data/symptom-checker.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "symptom-checker:")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.prefix", "symptom-checker/")
	v.SetDefault("s3.usePathStyle", false)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.accessKeyID", "")
	v.SetDefault("s3.secretAccessKey", "")

	v.SetDefault("resilience.maxAttempts", 3)
	v.SetDefault("resilience.initialDelayMs", 100)
	v.SetDefault("resilience.maxDelayMs", 2000)
	v.SetDefault("resilience.breakerTimeoutSec", 30)
	v.SetDefault("resilience.breakerMinRequests", 5)
	v.SetDefault("resilience.breakerFailureRatio", 0.6)

	v.SetDefault("diagnosis.submitDelayMs", 0)
	v.SetDefault("diagnosis.maxNotesLength", 2000)

	v.SetDefault("rateLimit.maxRequestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
