package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Security   SecurityConfig   `json:"security"`
	WhatsApp   WhatsAppConfig   `json:"whatsapp"`
	Notifier   NotifierConfig   `json:"notifier"`
	AWS        AWSConfig        `json:"aws"`
	Storage    StorageConfig    `json:"storage"`
	Redis      RedisConfig      `json:"redis"`
	Kafka      KafkaConfig      `json:"kafka"`
	Commission CommissionConfig `json:"commission"`
	Logging    LoggingConfig    `json:"logging"`
	Workers    WorkersConfig    `json:"workers"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	CORSOrigins     []string      `json:"cors_origins"`
	FrontendURL     string        `json:"frontend_url"`
	PublicURL       string        `json:"public_url"`
}

// DatabaseConfig represents database configuration. Driver is one of
// postgres, mysql or sqlite; DSN, when set, is used verbatim.
type DatabaseConfig struct {
	Driver         string        `json:"driver"`
	DSN            string        `json:"dsn"`
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	ConnectRetries int           `json:"connect_retries"`
	Debug          bool          `json:"debug"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// WhatsAppConfig holds the Cloud API credentials and the webhook verify secret
type WhatsAppConfig struct {
	APIBaseURL    string        `json:"api_base_url"`
	APIVersion    string        `json:"api_version"`
	PhoneNumberID string        `json:"phone_number_id"`
	AccessToken   string        `json:"access_token"`
	VerifyToken   string        `json:"verify_token"`
	Timeout       time.Duration `json:"timeout"`
}

// NotifierConfig selects the outbound message gateway
type NotifierConfig struct {
	Provider     string        `json:"provider"` // whatsapp, sns
	CountryCode  string        `json:"country_code"`
	MessageDelay time.Duration `json:"message_delay"`
}

// AWSConfig
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"`
	S3Bucket        string `json:"s3_bucket"`
	SNSSenderID     string `json:"sns_sender_id"`
}

// StorageConfig selects where generated invoice PDFs are written
type StorageConfig struct {
	Driver   string `json:"driver"` // local, s3
	LocalDir string `json:"local_dir"`
	S3Prefix string `json:"s3_prefix"`
}

// RedisConfig. An empty address keeps webhook dedupe in memory.
type RedisConfig struct {
	Address   string        `json:"address"`
	Username  string        `json:"username"`
	Password  string        `json:"password"`
	DB        int           `json:"db"`
	DedupeTTL time.Duration `json:"dedupe_ttl"`
}

// KafkaConfig. No brokers disables the activity event stream.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// CommissionConfig holds the default percentage rates applied to accepted trades
type CommissionConfig struct {
	SupplierRate decimal.Decimal `json:"supplier_rate"`
	BuyerRate    decimal.Decimal `json:"buyer_rate"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
	File        string `json:"file"`
	MaxSizeMB   int    `json:"max_size_mb"`
	MaxBackups  int    `json:"max_backups"`
	MaxAgeDays  int    `json:"max_age_days"`
}

// WorkersConfig
type WorkersConfig struct {
	ExpirySchedule string `json:"expiry_schedule"`
}

// Default returns the configuration used when no file or environment overrides are present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"*"},
			FrontendURL:     "http://localhost:3000",
			PublicURL:       "http://localhost:5000",
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "broker_portal",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    time.Hour,
			ConnectRetries: 5,
		},
		Security: SecurityConfig{
			TokenTTL: 24 * time.Hour,
		},
		WhatsApp: WhatsAppConfig{
			APIBaseURL: "https://graph.facebook.com",
			APIVersion: "v22.0",
			Timeout:    10 * time.Second,
		},
		Notifier: NotifierConfig{
			Provider:     "whatsapp",
			CountryCode:  "+91",
			MessageDelay: time.Second,
		},
		AWS: AWSConfig{
			Region: "ap-south-1",
		},
		Storage: StorageConfig{
			Driver:   "local",
			LocalDir: "invoices",
			S3Prefix: "invoices/",
		},
		Redis: RedisConfig{
			DedupeTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic: "broker-activity",
		},
		Commission: CommissionConfig{
			SupplierRate: decimal.RequireFromString("2.5"),
			BuyerRate:    decimal.RequireFromString("2.5"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Workers: WorkersConfig{
			ExpirySchedule: "0 * * * * *",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	setString(&config.Server.Host, "SERVER_HOST")
	if err := setInt(&config.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&config.Server.Port, "SERVER_PORT"); err != nil {
		return err
	}
	setString(&config.Server.FrontendURL, "FRONTEND_URL")
	setString(&config.Server.PublicURL, "PUBLIC_URL")
	setList(&config.Server.CORSOrigins, "CORS_ORIGINS")

	setString(&config.Database.Driver, "DATABASE_DRIVER")
	setString(&config.Database.DSN, "DATABASE_DSN")
	setString(&config.Database.Host, "DB_HOST")
	setString(&config.Database.Host, "DATABASE_HOST")
	if err := setInt(&config.Database.Port, "DATABASE_PORT"); err != nil {
		return err
	}
	setString(&config.Database.User, "DB_USER")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DB_PASS")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DB_NAME")
	setString(&config.Database.DBName, "DATABASE_DBNAME")

	setString(&config.Security.JWTSecret, "JWT_SECRET")
	if err := setDuration(&config.Security.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}

	setString(&config.WhatsApp.AccessToken, "WHATSAPP_ACCESS_TOKEN")
	setString(&config.WhatsApp.PhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	setString(&config.WhatsApp.VerifyToken, "WHATSAPP_VERIFY_TOKEN")
	setString(&config.WhatsApp.APIVersion, "WHATSAPP_API_VERSION")

	setString(&config.Notifier.Provider, "NOTIFIER_PROVIDER")
	setString(&config.Notifier.CountryCode, "NOTIFIER_COUNTRY_CODE")
	if err := setDuration(&config.Notifier.MessageDelay, "NOTIFIER_MESSAGE_DELAY"); err != nil {
		return err
	}

	setString(&config.AWS.Region, "AWS_REGION")
	setString(&config.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&config.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&config.AWS.Endpoint, "AWS_ENDPOINT")
	setString(&config.AWS.S3Bucket, "S3_BUCKET")
	setString(&config.AWS.SNSSenderID, "SNS_SENDER_ID")

	setString(&config.Storage.Driver, "STORAGE_DRIVER")
	setString(&config.Storage.LocalDir, "STORAGE_DIR")

	setString(&config.Redis.Address, "REDIS_ADDR")
	setString(&config.Redis.Password, "REDIS_PASSWORD")

	setList(&config.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&config.Kafka.Topic, "KAFKA_TOPIC")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.File, "LOG_FILE")

	setString(&config.Workers.ExpirySchedule, "EXPIRY_SCHEDULE")
	return nil
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Notifier.Provider {
	case "whatsapp", "sns":
	default:
		return fmt.Errorf("unsupported notifier provider %q", c.Notifier.Provider)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.AWS.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Commission.SupplierRate.IsNegative() || c.Commission.BuyerRate.IsNegative() {
		return fmt.Errorf("commission rates must not be negative")
	}
	return nil
}

// GetDatabaseURL returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.DBName)
	case "sqlite":
		return c.DBName + ".db"
	default:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
	}
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
