package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки приложения.
// Загружается один раз при старте и дальше не меняется.
type Config struct {
	TelegramToken string
	DBDSN         string
	Environment   string

	// Админ-панель
	AdminAddr     string
	AdminUser     string
	AdminPassword string
	AdminTgID     int64

	// Планировщик
	Timezone      string
	MorningHour   int
	MorningMinute int
	ReminderLead  time.Duration

	// Рассылка
	BatchSize  int
	BatchDelay time.Duration
	MaxRetries int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		DBDSN:         os.Getenv("DB_DSN"),
		Environment:   getEnv("ENV", "development"),

		AdminAddr:     getEnv("ADMIN_ADDR", "127.0.0.1:8000"),
		AdminUser:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		Timezone:      getEnv("TIMEZONE", "Europe/Moscow"),
		MorningHour:   getEnvInt("MORNING_MESSAGE_HOUR", 8),
		MorningMinute: getEnvInt("MORNING_MESSAGE_MINUTE", 0),
		ReminderLead:  time.Duration(getEnvInt("REMINDER_MINUTES_BEFORE", 5)) * time.Minute,

		BatchSize:  getEnvInt("BATCH_SIZE", 30),
		BatchDelay: time.Duration(getEnvInt("BATCH_DELAY_MS", 200)) * time.Millisecond,
		MaxRetries: getEnvInt("MAX_RETRIES", 1),
	}

	if v := os.Getenv("ADMIN_TG_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TG_ID %q: %w", v, err)
		}
		cfg.AdminTgID = id
	}

	// Проверяем обязательные поля
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	// Пустой пароль превратил бы BasicAuth админки в открытую дверь
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required but not set")
	}
	if cfg.MorningHour < 0 || cfg.MorningHour > 23 {
		return nil, fmt.Errorf("MORNING_MESSAGE_HOUR out of range: %d", cfg.MorningHour)
	}
	if cfg.MorningMinute < 0 || cfg.MorningMinute > 59 {
		return nil, fmt.Errorf("MORNING_MESSAGE_MINUTE out of range: %d", cfg.MorningMinute)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}

	return cfg, nil
}

// Location загружает таймзону из конфига
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}
