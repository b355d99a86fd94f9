package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   string          `yaml:"storage" env:"STORAGE"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	OTP       OTPConfig       `yaml:"otp"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Contact   ContactConfig   `yaml:"contact"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port         string        `yaml:"port" env:"PORT"`
	CORSOrigins  []string      `yaml:"corsOrigins" env:"CORS_ALLOWED_ORIGINS"`
	ReadTimeout  time.Duration `yaml:"readTimeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"SERVER_WRITE_TIMEOUT"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI"`
	Database string `yaml:"database" env:"MONGO_DATABASE"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwtSecret" env:"JWT_SECRET"`
	SessionTTL   time.Duration `yaml:"sessionTTL" env:"SESSION_TTL"`
	GuestTTL     time.Duration `yaml:"guestTTL" env:"GUEST_TOKEN_TTL"`
	CookieName   string        `yaml:"cookieName" env:"SESSION_COOKIE_NAME"`
	CookieSecure bool          `yaml:"cookieSecure" env:"SESSION_COOKIE_SECURE"`
}

type OTPConfig struct {
	TTL         time.Duration `yaml:"ttl" env:"OTP_TTL"`
	Length      int           `yaml:"length" env:"OTP_LENGTH"`
	ResetWindow time.Duration `yaml:"resetWindow" env:"OTP_RESET_WINDOW"`
}

// SMTPConfig configures outgoing mail. An empty Host selects the log mailer.
type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// KafkaConfig configures the activity stream. No brokers disables publishing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
}

type RateLimitConfig struct {
	Requests  int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS"`
	Window    time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	GlobalRPS float64       `yaml:"globalRps" env:"RATE_LIMIT_GLOBAL_RPS"`
	Burst     int           `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

type ContactConfig struct {
	AdminEmail string `yaml:"adminEmail" env:"CONTACT_ADMIN_EMAIL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8080",
			CORSOrigins:  []string{"*"},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Storage: StorageMongo,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "quizroom",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Auth: AuthConfig{
			SessionTTL: 7 * 24 * time.Hour,
			GuestTTL:   24 * time.Hour,
			CookieName: "quizroom_session",
		},
		OTP: OTPConfig{
			TTL:         10 * time.Minute,
			Length:      6,
			ResetWindow: 10 * time.Minute,
		},
		SMTP:  SMTPConfig{Port: 587, From: "no-reply@quizroom.local"},
		Kafka: KafkaConfig{Topic: "room-activities"},
		RateLimit: RateLimitConfig{
			Requests:  5,
			Window:    15 * time.Minute,
			GlobalRPS: 20,
			Burst:     40,
		},
		Contact: ContactConfig{AdminEmail: "admin@quizroom.local"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.Storage != StorageMongo && c.Storage != StorageMemory {
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Storage == StorageMongo && c.Auth.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.Server.Port == "" {
		return errors.New("missing server port")
	}
	if c.OTP.Length <= 0 || c.OTP.TTL <= 0 {
		return errors.New("otp length and ttl must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit requests and window must be positive")
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}
