package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Persistence drivers for the entity store.
const (
	PersistenceMemory   = "memory"
	PersistencePostgres = "postgres"
)

// Sibling cancellation policies applied when a student accepts a placement.
const (
	SiblingPolicyPending              = "pending"
	SiblingPolicyPendingAndSuccessful = "pending_and_successful"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Persistence PersistenceConfig
	Discovery   DiscoveryConfig
	Events      EventsConfig
	Lifecycle   LifecycleConfig
	Seed        SeedConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// PersistenceConfig selects where mutated entities are flushed after each operation.
type PersistenceConfig struct {
	Driver     string
	Retries    int
	RetryDelay time.Duration
}

// DiscoveryConfig governs caching of student discovery listings.
type DiscoveryConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// EventsConfig toggles Kafka lifecycle event publishing.
type EventsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// LifecycleConfig carries the tunable placement rules.
type LifecycleConfig struct {
	SiblingCancelPolicy    string
	AutoPublishOnApproval  bool
	MaxStudentApplications int
	MaxRepInternships      int
}

// SeedConfig points at an optional YAML file with initial accounts.
type SeedConfig struct {
	File string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  positiveOr(v.GetInt("LOG_MAX_SIZE_MB"), 100),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
	}

	driver := strings.ToLower(v.GetString("STORE_PERSISTENCE"))
	if driver != PersistencePostgres {
		driver = PersistenceMemory
	}
	cfg.Persistence = PersistenceConfig{
		Driver:     driver,
		Retries:    v.GetInt("PERSIST_RETRIES"),
		RetryDelay: parseDuration(v.GetString("PERSIST_RETRY_DELAY"), time.Second),
	}

	cfg.Discovery = DiscoveryConfig{
		CacheEnabled: v.GetBool("ENABLE_DISCOVERY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("DISCOVERY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Events = EventsConfig{
		Enabled: v.GetBool("ENABLE_EVENTS"),
		Brokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:   v.GetString("KAFKA_TOPIC"),
	}

	policy := strings.ToLower(v.GetString("SIBLING_CANCEL_POLICY"))
	if policy != SiblingPolicyPendingAndSuccessful {
		policy = SiblingPolicyPending
	}
	cfg.Lifecycle = LifecycleConfig{
		SiblingCancelPolicy:    policy,
		AutoPublishOnApproval:  v.GetBool("AUTO_PUBLISH_ON_APPROVAL"),
		MaxStudentApplications: positiveOr(v.GetInt("MAX_STUDENT_APPLICATIONS"), 3),
		MaxRepInternships:      positiveOr(v.GetInt("MAX_REP_INTERNSHIPS"), 5),
	}

	cfg.Seed = SeedConfig{File: v.GetString("SEED_FILE")}

	return cfg
}

// DevJWTSecret is the fallback signing secret; Load refuses it in production.
const DevJWTSecret = "dev_secret"

var defaults = []struct {
	key   string
	value interface{}
}{
	{"ENV", EnvDevelopment},
	{"PORT", 8080},
	{"API_PREFIX", "/api/v1"},

	{"DB_HOST", "localhost"},
	{"DB_PORT", 5432},
	{"DB_USER", "postgres"},
	{"DB_PASSWORD", "postgres"},
	{"DB_NAME", "placement"},
	{"DB_SSL_MODE", "disable"},
	{"DB_MAX_OPEN_CONNS", 10},
	{"DB_MAX_IDLE_CONNS", 5},

	{"REDIS_HOST", "localhost"},
	{"REDIS_PORT", 6379},
	{"REDIS_DB", 0},

	{"JWT_SECRET", DevJWTSecret},
	{"JWT_EXPIRATION", "24h"},
	{"JWT_ISSUER", "placement-api"},

	{"LOG_LEVEL", "info"},
	{"LOG_FORMAT", "json"},
	{"LOG_MAX_SIZE_MB", 100},
	{"LOG_MAX_BACKUPS", 5},

	{"STORE_PERSISTENCE", PersistenceMemory},
	{"PERSIST_RETRIES", 3},
	{"PERSIST_RETRY_DELAY", "1s"},

	{"ENABLE_DISCOVERY_CACHE", false},
	{"DISCOVERY_CACHE_TTL", "5m"},

	{"ENABLE_EVENTS", false},
	{"KAFKA_BROKERS", "localhost:9092"},
	{"KAFKA_TOPIC", "placement.lifecycle"},

	{"SIBLING_CANCEL_POLICY", SiblingPolicyPending},
	{"AUTO_PUBLISH_ON_APPROVAL", false},
	{"MAX_STUDENT_APPLICATIONS", 3},
	{"MAX_REP_INTERNSHIPS", 5},
}

func setDefaults(v *viper.Viper) {
	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}
}

// Validate rejects settings that are only acceptable on a developer machine.
func (c *Config) Validate() error {
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == DevJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Persistence.Driver == PersistencePostgres && c.Database.Name == "" {
		return errors.New("DB_NAME is required when STORE_PERSISTENCE=postgres")
	}
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
