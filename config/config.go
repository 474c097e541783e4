package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Session  SessionConfig  `yaml:"session"`
	Markup   MarkupConfig   `yaml:"markup"`
	Supplier SupplierConfig `yaml:"supplier"`
	Email    EmailConfig    `yaml:"email"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
}

type HTTPConfig struct {
	Address    string `yaml:"address" env:"HTTP_ADDRESS"`
	SwaggerDir string `yaml:"swagger_dir" env:"HTTP_SWAGGER_DIR"`
}

type GRPCConfig struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type MongoConfig struct {
	URI               string        `yaml:"uri" env:"MONGODB_URL"`
	Database          string        `yaml:"database" env:"MONGODB_DATABASE"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" env:"MONGODB_CONNECT_TIMEOUT"`
	MaxPoolSize       uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
	RetryAttempts     int           `yaml:"retry_attempts" env:"MONGODB_RETRY_ATTEMPTS"`
	RetryInterval     time.Duration `yaml:"retry_interval" env:"MONGODB_RETRY_INTERVAL"`
	SessionCollection string        `yaml:"session_collection"`
	EventCollection   string        `yaml:"event_collection"`
	OrderCollection   string        `yaml:"order_collection"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers             []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	NotificationsTopic  string   `yaml:"notifications_topic" env:"KAFKA_NOTIFICATIONS_TOPIC"`
	SecurityEventsTopic string   `yaml:"security_events_topic" env:"KAFKA_SECURITY_EVENTS_TOPIC"`
	GroupID             string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

type SessionConfig struct {
	Backend        string        `yaml:"backend" env:"SESSION_BACKEND"`
	Secret         string        `yaml:"secret" env:"SESSION_SECRET"`
	TTL            time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	StoreTimeout   time.Duration `yaml:"store_timeout" env:"SESSION_STORE_TIMEOUT"`
	AuditTimeout   time.Duration `yaml:"audit_timeout" env:"SESSION_AUDIT_TIMEOUT"`
	EventRetention time.Duration `yaml:"event_retention" env:"SESSION_EVENT_RETENTION"`
	MaxOffers      int           `yaml:"max_offers" env:"SESSION_MAX_OFFERS"`
}

type MarkupConfig struct {
	Fee string `yaml:"fee" env:"MARKUP_FEE"`
}

type SupplierConfig struct {
	BaseURL  string        `yaml:"base_url" env:"SUPPLIER_BASE_URL"`
	Token    string        `yaml:"token" env:"SUPPLIER_TOKEN"`
	Version  string        `yaml:"version" env:"SUPPLIER_VERSION"`
	Timeout  time.Duration `yaml:"timeout" env:"SUPPLIER_TIMEOUT"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"SUPPLIER_CACHE_TTL"`
}

type EmailConfig struct {
	PostmarkServerToken  string `yaml:"postmark_server_token" env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `yaml:"postmark_account_token" env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `yaml:"sender_email" env:"SENDER_EMAIL"`
	SupportEmail         string `yaml:"support_email" env:"SUPPORT_EMAIL"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes" env:"WORKER_EXPIRATION_SWEEP_MINUTES"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type AdminConfig struct {
	Token string `yaml:"token" env:"ADMIN_TOKEN"`
}

// Default returns the configuration used for every field the YAML file and
// the environment leave unset.
func Default() Config {
	return Config{
		Env:  EnvDevelopment,
		HTTP: HTTPConfig{Address: ":8080"},
		GRPC: GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Mongo: MongoConfig{
			URI:               "mongodb://localhost:27017",
			Database:          "flightshop",
			ConnectTimeout:    10 * time.Second,
			MaxPoolSize:       100,
			RetryAttempts:     3,
			RetryInterval:     5 * time.Second,
			SessionCollection: "booking_sessions",
			EventCollection:   "security_events",
			OrderCollection:   "orders",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			NotificationsTopic: "booking_notifications",
			GroupID:            "flightshop-worker",
		},
		Session: SessionConfig{
			Backend:        BackendMongo,
			TTL:            30 * time.Minute,
			StoreTimeout:   3 * time.Second,
			AuditTimeout:   2 * time.Second,
			EventRetention: 30 * 24 * time.Hour,
			MaxOffers:      20,
		},
		Markup: MarkupConfig{Fee: "15.00"},
		Supplier: SupplierConfig{
			BaseURL:  "https://api.duffel.com",
			Version:  "v2",
			Timeout:  30 * time.Second,
			CacheTTL: 2 * time.Minute,
		},
		Worker: WorkerConfig{ExpirationSweepMinutes: 5},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads the YAML file at path over the defaults and then applies
// environment overrides. A .env file in the working directory is loaded first
// if present.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendMongo, BackendPostgres:
	default:
		return errors.Newf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.MaxOffers <= 0 {
		return errors.New("session max_offers must be positive")
	}
	if c.Env == EnvProduction {
		if c.Session.Secret == "" {
			return errors.New("session secret is required in production")
		}
		if c.Supplier.Token == "" {
			return errors.New("supplier token is required in production")
		}
		if c.Admin.Token == "" {
			return errors.New("admin token is required in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
