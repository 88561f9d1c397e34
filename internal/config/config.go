package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"notifier/pkg/crypto"
)

// Config содержит всю конфигурацию сервиса уведомлений
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Security SecurityConfig
	Delivery DeliveryConfig
	Logging  LoggingConfig

	// FrontendURL - базовый URL frontend'а для deep-link'ов в письмах
	// и метаданных уведомлений (например https://investorcenter.io)
	FrontendURL string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SMTPConfig - настройки исходящей почты.
//
// Пустой Host - ожидаемое состояние в development: email канал молча
// превращается в no-op, это не ошибка конфигурации.
type SMTPConfig struct {
	Host      string
	Port      string // строка, т.к. подставляется в адрес host:port
	Username  string
	Password  Secret // никогда не попадает в логи целиком, только через Value()
	FromEmail string
	FromName  string
}

// Configured сообщает, настроен ли исходящий SMTP транспорт
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Password.Value() != ""
}

// Addr возвращает адрес SMTP сервера в формате host:port
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// ServiceTokenHash - bcrypt-хеш токена для внутренних endpoint'ов
	// (trigger intake, canary). Пустое значение = доступ запрещен всем.
	ServiceTokenHash string

	// EncryptionKey - ключ AES-256 для расшифровки SMTP_PASSWORD_ENC.
	// Обязателен только если пароль передан в зашифрованном виде.
	EncryptionKey string
}

// DeliveryConfig - параметры конвейера доставки
type DeliveryConfig struct {
	// Token bucket для исходящих SMTP отправок (защита провайдера,
	// не путать с пользовательскими дневными лимитами из preferences)
	EmailRatePerSec float64
	EmailBurst      float64

	// Retention аудит-записей и прочитанных/скрытых записей ленты
	LogRetention    time.Duration
	FeedKeepCount   int
	CleanupSchedule string // cron spec, по умолчанию ежедневно 03:10 UTC
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8085),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "investorcenter"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnv("SMTP_PORT", "587"),
			Username:  getEnv("SMTP_USERNAME", ""),
			FromEmail: getEnv("SMTP_FROM_EMAIL", "alerts@investorcenter.io"),
			FromName:  getEnv("SMTP_FROM_NAME", "InvestorCenter Alerts"),
		},
		Security: SecurityConfig{
			ServiceTokenHash: getEnv("SERVICE_TOKEN_HASH", ""),
			EncryptionKey:    getEnv("ENCRYPTION_KEY", ""),
		},
		Delivery: DeliveryConfig{
			EmailRatePerSec: getEnvAsFloat("EMAIL_RATE_PER_SEC", 5),
			EmailBurst:      getEnvAsFloat("EMAIL_BURST", 10),
			LogRetention:    getEnvAsDuration("LOG_RETENTION", 90*24*time.Hour),
			FeedKeepCount:   getEnvAsInt("FEED_KEEP_COUNT", 200),
			CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "10 3 * * *"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// SMTP пароль: либо открытым текстом, либо зашифрованный AES-256-GCM
	password, err := loadSMTPPassword(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Password = password

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSMTPPassword читает SMTP пароль из окружения.
//
// SMTP_PASSWORD_ENC имеет приоритет: это base64 AES-256-GCM ciphertext,
// расшифровываемый ключом ENCRYPTION_KEY. Позволяет не хранить пароль
// открытым текстом в манифестах деплоя.
func loadSMTPPassword(encryptionKey string) (Secret, error) {
	if enc := os.Getenv("SMTP_PASSWORD_ENC"); enc != "" {
		if len(encryptionKey) != 32 {
			return Secret{}, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes to decrypt SMTP_PASSWORD_ENC")
		}
		plain, err := crypto.Decrypt(enc, []byte(encryptionKey))
		if err != nil {
			return Secret{}, fmt.Errorf("decrypt SMTP_PASSWORD_ENC: %w", err)
		}
		return NewSecret(plain), nil
	}
	return NewSecret(os.Getenv("SMTP_PASSWORD")), nil
}

// validate проверяет диапазоны и согласованность параметров
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Delivery.EmailRatePerSec <= 0 {
		return fmt.Errorf("EMAIL_RATE_PER_SEC must be positive, got %v", c.Delivery.EmailRatePerSec)
	}

	if c.Delivery.LogRetention <= 0 {
		return fmt.Errorf("LOG_RETENTION must be positive, got %v", c.Delivery.LogRetention)
	}

	if c.Delivery.FeedKeepCount < 0 {
		return fmt.Errorf("FEED_KEEP_COUNT cannot be negative, got %d", c.Delivery.FeedKeepCount)
	}

	// SMTP настроен наполовину - скорее всего ошибка деплоя
	if c.SMTP.Host != "" && c.SMTP.Password.Value() == "" {
		return fmt.Errorf("SMTP_HOST is set but no SMTP password provided (SMTP_PASSWORD or SMTP_PASSWORD_ENC)")
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
