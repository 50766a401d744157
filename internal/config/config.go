package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"restaurant_pos_backend/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration. Values are resolved in the
// order defaults, then the optional YAML file named by CONFIG_PATH, then
// environment variables.
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Auth      Auth      `yaml:"auth"`
	Storage   Storage   `yaml:"storage"`
	NATS      NATS      `yaml:"nats"`
	Telemetry Telemetry `yaml:"telemetry"`
	Log       Log       `yaml:"log"`
}

type Server struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	SchemaPath   string `yaml:"schema_path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

type Storage struct {
	ReceiptDir string `yaml:"receipt_dir"`
	UploadDir  string `yaml:"upload_dir"`
}

type NATS struct {
	URL string `yaml:"url"`
}

type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DSN renders the lib/pq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func defaults() *Config {
	return &Config{
		Server: Server{
			Port:            "8080",
			GinMode:         "release",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{
			Host:         "localhost",
			Port:         "5432",
			User:         "restaurant_pos",
			Password:     "restaurant_pos",
			Name:         "restaurant_pos_db",
			SSLMode:      "disable",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Auth: Auth{
			TokenTTL: utils.DefaultAccessTokenTTL,
			Issuer:   "restaurant-pos-backend",
		},
		Storage: Storage{
			ReceiptDir: "storage/receipts",
			UploadDir:  "storage/products",
		},
		Telemetry: Telemetry{ServiceName: "restaurant-pos-backend"},
		Log:       Log{Level: "info"},
	}
}

// Load resolves the configuration and validates it.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = utils.Getenv("PORT", c.Server.Port)
	c.Server.GinMode = utils.Getenv("GIN_MODE", c.Server.GinMode)
	c.Server.AllowedOrigins = utils.GetenvList("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	c.Server.ShutdownTimeout = utils.GetenvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Host = utils.Getenv("DB_HOST", c.Database.Host)
	c.Database.Port = utils.Getenv("DB_PORT", c.Database.Port)
	c.Database.User = utils.Getenv("DB_USER", c.Database.User)
	c.Database.Password = utils.Getenv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = utils.Getenv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = utils.Getenv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SchemaPath = utils.Getenv("DB_SCHEMA_PATH", c.Database.SchemaPath)
	c.Database.MaxOpenConns = utils.GetenvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = utils.GetenvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Auth.JWTSecret = utils.Getenv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = utils.GetenvDuration("JWT_TTL", c.Auth.TokenTTL)
	c.Auth.Issuer = utils.Getenv("JWT_ISSUER", c.Auth.Issuer)

	c.Storage.ReceiptDir = utils.Getenv("RECEIPT_DIR", c.Storage.ReceiptDir)
	c.Storage.UploadDir = utils.Getenv("UPLOAD_DIR", c.Storage.UploadDir)

	c.NATS.URL = utils.Getenv("NATS_URL", c.NATS.URL)

	c.Telemetry.OTLPEndpoint = utils.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = utils.Getenv("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)

	c.Log.Level = utils.Getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = utils.GetenvBool("LOG_PRETTY", c.Log.Pretty)
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	} else if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("database host and name are required"))
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		c.Database.MaxIdleConns = c.Database.MaxOpenConns
	}
	return errors.Join(errs...)
}
