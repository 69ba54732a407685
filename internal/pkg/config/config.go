package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Source   SourceConfig
	Sync     SyncConfig
	Cache    CacheConfig
	Lookup   LookupConfig
	CORS     CORSConfig
	Logger   LoggerConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig содержит настройки проверки JWT токенов
type JWTConfig struct {
	SecretKey    string
	AccessExpiry time.Duration
}

// SourceConfig содержит настройки внешнего источника данных о рейсах
type SourceConfig struct {
	// ReferenceURL - базовый адрес справочных наборов (planes.dat, airlines.dat, airports.dat)
	ReferenceURL string
	// APIURL - базовый адрес API рейсов и расстояний
	APIURL  string
	APIKey  string
	APIHost string
	Timeout time.Duration
	// DatasetTimeout ограничивает загрузку справочного набора
	DatasetTimeout time.Duration
	// RateLimit - допустимое число запросов в секунду к API
	RateLimit float64
	RateBurst int
}

// SyncConfig содержит настройки периодической синхронизации справочников
type SyncConfig struct {
	// Interval - период синхронизации; 0 отключает фоновую синхронизацию
	Interval time.Duration
}

// CacheConfig содержит настройки кэша сопоставления справочников
type CacheConfig struct {
	ReferenceTTL     time.Duration
	ReferenceCleanup time.Duration
}

// LookupConfig содержит настройки поиска рейсов
type LookupConfig struct {
	LockTTL      time.Duration
	LockWait     time.Duration
	LockInterval time.Duration
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// LoggerConfig содержит настройки логирования
type LoggerConfig struct {
	Level  string
	Format string // json или console
	Output string // stdout или путь к файлу
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку, если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "flighthub"),
			Password:        getEnv("DB_PASSWORD", "flighthub"),
			Database:        getEnv("DB_NAME", "flighthub"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			SecretKey:    getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
			AccessExpiry: getDurationEnv("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Source: SourceConfig{
			ReferenceURL:   getEnv("SOURCE_REFERENCE_URL", "https://raw.githubusercontent.com/jpatokal/openflights/master/data"),
			APIURL:         getEnv("SOURCE_API_URL", "https://aerodatabox.p.rapidapi.com"),
			APIKey:         getEnv("SOURCE_API_KEY", ""),
			APIHost:        getEnv("SOURCE_API_HOST", "aerodatabox.p.rapidapi.com"),
			Timeout:        getDurationEnv("SOURCE_TIMEOUT", 5*time.Second),
			DatasetTimeout: getDurationEnv("SOURCE_DATASET_TIMEOUT", 2*time.Minute),
			RateLimit:      getFloatEnv("SOURCE_RATE_LIMIT", 1),
			RateBurst:      getIntEnv("SOURCE_RATE_BURST", 3),
		},
		Sync: SyncConfig{
			Interval: getDurationEnv("SYNC_INTERVAL", 0),
		},
		Cache: CacheConfig{
			ReferenceTTL:     getDurationEnv("CACHE_REFERENCE_TTL", 10*time.Minute),
			ReferenceCleanup: getDurationEnv("CACHE_REFERENCE_CLEANUP", 20*time.Minute),
		},
		Lookup: LookupConfig{
			LockTTL:      getDurationEnv("LOOKUP_LOCK_TTL", 15*time.Second),
			LockWait:     getDurationEnv("LOOKUP_LOCK_WAIT", 10*time.Second),
			LockInterval: getDurationEnv("LOOKUP_LOCK_INTERVAL", 100*time.Millisecond),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	if cfg.Source.Timeout <= 0 {
		return nil, fmt.Errorf("SOURCE_TIMEOUT must be positive, got %s", cfg.Source.Timeout)
	}
	if cfg.Source.DatasetTimeout < 0 {
		return nil, fmt.Errorf("SOURCE_DATASET_TIMEOUT must not be negative, got %s", cfg.Source.DatasetTimeout)
	}

	return cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Address возвращает адрес сервера
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Address возвращает адрес Redis
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
