// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod test"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"DATABASE_URL" env-required:"true" validate:"required"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	FrontendURL             string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:5173"`
	CORSAllowedOrigins      []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:5174"`
	GRPCHealthAddress       string        `yaml:"grpc_health_address" env:"GRPC_HEALTH_ADDRESS"`
	ResetTokenTTL           time.Duration `yaml:"reset_token_ttl" env:"RESET_TOKEN_TTL" env-default:"1h"`
	SchedulerInterval       time.Duration `yaml:"scheduler_interval" env:"SCHEDULER_INTERVAL" env-default:"1h"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	PayPal                  `yaml:"paypal"`
	Cloudinary              `yaml:"cloudinary"`
	SMTP                    `yaml:"smtp"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":4000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true" validate:"required"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"168h"`
	CookieName   string        `yaml:"cookie_name" env:"JWT_COOKIE_NAME" env-default:"token"`
	CookieSecure bool          `yaml:"cookie_secure" env:"JWT_COOKIE_SECURE"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кэш.
type RedisConnection struct {
	AddressRedis  string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	PasswordRedis string        `yaml:"password" env:"REDIS_PASSWORD"`
	UserRedis     string        `yaml:"user" env:"REDIS_USER"`
	DBRedis       int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries    int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	DialTimeout   time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	TimeoutRedis  time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"5m"`
}

// RabbitMQ настройки брокера уведомлений. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// PayPal настройки платёжного шлюза.
type PayPal struct {
	PayPalMode         string `yaml:"mode" env:"PAYPAL_MODE" env-default:"sandbox" validate:"oneof=sandbox live"`
	PayPalBaseURL      string `yaml:"base_url" env:"PAYPAL_BASE_URL"`
	PayPalClientID     string `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
	PayPalWebhookID    string `yaml:"webhook_id" env:"PAYPAL_WEBHOOK_ID"`
	PayPalCurrency     string `yaml:"currency" env:"PAYPAL_CURRENCY" env-default:"USD"`
}

// BaseURL возвращает адрес API PayPal: явно заданный или по режиму sandbox/live.
func (p PayPal) BaseURL() string {
	if p.PayPalBaseURL != "" {
		return p.PayPalBaseURL
	}
	if p.PayPalMode == "live" {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}

// Cloudinary настройки хранилища медиафайлов.
type Cloudinary struct {
	CloudinaryCloudName string `yaml:"cloud_name" env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `yaml:"api_key" env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `yaml:"api_secret" env:"CLOUDINARY_API_SECRET"`
	CloudinaryBaseURL   string `yaml:"base_url" env:"CLOUDINARY_BASE_URL" env-default:"https://api.cloudinary.com/v1_1"`
}

// SMTP настройки почтового транспорта.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// RateLimit ограничение частоты запросов к /auth на одного клиента.
type RateLimit struct {
	RateLimitRPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	RateLimitBurst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// Load читает конфиг из YAML-файла по пути CONFIG_PATH (переменные окружения
// имеют приоритет) либо, если путь не задан, только из окружения.
func Load() (*Config, error) {
	const op = "config.Load"
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ: %t\n"+
			"PayPal: %s (%s)\n"+
			"Cloudinary: %s\n"+
			"CORS: %v\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.RabbitMQURL != "",
		c.PayPalMode,
		c.PayPal.BaseURL(),
		c.CloudinaryCloudName,
		c.CORSAllowedOrigins,
	)
}
