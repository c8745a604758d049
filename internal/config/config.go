package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Exam      ExamConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	// PubSubEnabled включает рассылку событий инвалидации JWT между инстансами
	PubSubEnabled bool `mapstructure:"pubsub_enabled"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	ExpirationHrs   int           `mapstructure:"expirationHrs"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // Интервал очистки списка инвалидированных пользователей
}

// AuthConfig содержит настройки восстановления пароля
type AuthConfig struct {
	PasswordResetURL      string        `mapstructure:"password_reset_url"`
	PasswordResetTTL      time.Duration `mapstructure:"password_reset_ttl"`
	PasswordResetCooldown time.Duration `mapstructure:"password_reset_cooldown"`
	MinPasswordLength     int           `mapstructure:"min_password_length"`
}

// EmailConfig содержит настройки отправки писем через Resend.
// Если ResendAPIKey пуст, используется NoopEmailService.
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// CORSConfig содержит список разрешенных источников
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig содержит лимиты для публичных auth-эндпоинтов
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	AuthRequests  int  `mapstructure:"auth_requests"`
	WindowSeconds int  `mapstructure:"window_seconds"`
}

// ExamConfig содержит настройки попыток экзамена
type ExamConfig struct {
	// AttemptTTLHours: через сколько часов незавершенная попытка считается
	// просроченной. 0 - попытки не истекают.
	AttemptTTLHours int `mapstructure:"attempt_ttl_hours"`
}

// AttemptTTL возвращает время жизни попытки как time.Duration
func (e ExamConfig) AttemptTTL() time.Duration {
	return time.Duration(e.AttemptTTLHours) * time.Hour
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 30)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("jwt.cleanup_interval", time.Hour)

	vip.SetDefault("auth.password_reset_url", "http://localhost:3000/reset-password")
	vip.SetDefault("auth.password_reset_ttl", time.Hour)
	vip.SetDefault("auth.password_reset_cooldown", time.Minute)
	vip.SetDefault("auth.min_password_length", 6)

	vip.SetDefault("email.from", "Cert Exams <no-reply@example.com>")

	vip.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("rate_limit.enabled", true)
	vip.SetDefault("rate_limit.auth_requests", 10)
	vip.SetDefault("rate_limit.window_seconds", 60)

	vip.SetDefault("exam.attempt_ttl_hours", 0)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	setDefaults(vip)

	// Привязываем переменные окружения явно
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")
	vip.BindEnv("redis.pubsub_enabled", "REDIS_PUBSUB_ENABLED")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")
	vip.BindEnv("jwt.cleanup_interval", "JWT_CLEANUP_INTERVAL")

	vip.BindEnv("auth.password_reset_url", "PASSWORD_RESET_URL")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	vip.BindEnv("exam.attempt_ttl_hours", "EXAM_ATTEMPT_TTL_HOURS")

	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: значения придут из переменных окружения
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// CORS_ALLOWED_ORIGINS приходит одной строкой через запятую
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = splitAndTrim(cfg.CORS.AllowedOrigins[0])
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s (mode: %s)", cfg.Redis.Addr, cfg.Redis.Mode)
		log.Printf("JWT Expiration Hours: %d", cfg.JWT.ExpirationHrs)
		log.Printf("Resend API Key Set: %t", cfg.Email.ResendAPIKey != "")
		log.Printf("Exam Attempt TTL Hours: %d", cfg.Exam.AttemptTTLHours)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.JWT.ExpirationHrs <= 0 {
		return fmt.Errorf("jwt.expirationHrs must be positive, got %d", c.JWT.ExpirationHrs)
	}
	if c.Exam.AttemptTTLHours < 0 {
		return fmt.Errorf("exam.attempt_ttl_hours must not be negative, got %d", c.Exam.AttemptTTLHours)
	}
	if os.Getenv("GIN_MODE") == "release" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
