package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBDSN      string `mapstructure:"DB_DSN"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	ChapaSecretKey string `mapstructure:"CHAPA_SECRET_KEY"`
	ChapaBaseURL   string `mapstructure:"CHAPA_BASE_URL"`

	TelebirrAppID     string `mapstructure:"TELEBIRR_APP_ID"`
	TelebirrAppKey    string `mapstructure:"TELEBIRR_APP_KEY"`
	TelebirrShortCode string `mapstructure:"TELEBIRR_SHORT_CODE"`
	TelebirrBaseURL   string `mapstructure:"TELEBIRR_BASE_URL"`

	BankName          string `mapstructure:"BANK_NAME"`
	BankAccountName   string `mapstructure:"BANK_ACCOUNT_NAME"`
	BankAccountNumber string `mapstructure:"BANK_ACCOUNT_NUMBER"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
}

const devJWTSecret = "dev-jwt-secret"

var defaults = map[string]any{
	"APP_ENV":             "development",
	"PORT":                "8080",
	"LOG_LEVEL":           "info",
	"DB_DSN":              "",
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "gebeya",
	"DB_SSLMODE":          "disable",
	"JWT_SECRET":          devJWTSecret,
	"PUBLIC_BASE_URL":     "http://localhost:8080",
	"CHAPA_SECRET_KEY":    "",
	"CHAPA_BASE_URL":      "https://api.chapa.co",
	"TELEBIRR_APP_ID":     "",
	"TELEBIRR_APP_KEY":    "",
	"TELEBIRR_SHORT_CODE": "",
	"TELEBIRR_BASE_URL":   "",
	"BANK_NAME":           "Commercial Bank of Ethiopia",
	"BANK_ACCOUNT_NAME":   "",
	"BANK_ACCOUNT_NUMBER": "",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"KAFKA_BROKERS":       "",
	"KAFKA_TOPIC":         "gebeya.orders",
}

// Load reads .env when present, then the process environment, which wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if !cfg.IsDev() && (strings.TrimSpace(cfg.JWTSecret) == "" || cfg.JWTSecret == devJWTSecret) {
		return nil, fmt.Errorf("config: JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
	}
	return cfg, nil
}

// DSN returns DB_DSN when set, otherwise a key=value DSN built from the parts.
func (c *Config) DSN() string {
	if dsn := strings.TrimSpace(c.DBDSN); dsn != "" {
		return dsn
	}
	return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
		" dbname=" + c.DBName + " port=" + c.DBPort + " sslmode=" + c.DBSSLMode
}

func (c *Config) IsDev() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "" || env == "development" || env == "dev"
}

func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
