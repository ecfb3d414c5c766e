// Пакет config — загрузка и валидация конфигурации vols-bot
// из переменных окружения.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации vols-bot.
type Config struct {
	// --- Бот ---

	// Токен Bot API
	BotToken string
	// Статический справочник телефонов провайдеров (многострочный текст)
	ProviderPhones string

	// --- Табличные источники ---

	// URL таблицы каталога доступа
	DirectoryURL string
	// Схема каталога доступа (legacy4, extended6)
	DirectorySchema string
	// Карта (сетевая группа → филиал → URL таблицы ВОЛС)
	DatasetURLs map[string]map[string]string
	// URL таблицы датасета уведомлений
	NotifyDatasetURL string
	// Таймаут загрузки одной таблицы (по умолчанию 10s)
	FetchTimeout time.Duration
	// TTL кэша датасетов (0 — кэш выключен, по умолчанию 30s)
	CacheTTL time.Duration
	// Максимальный размер кэша датасетов (по умолчанию 32)
	CacheSize int

	// --- HTTP-сервер ---

	// Порт HTTP-сервера (по умолчанию 8080)
	Port int
	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration
	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Keep-alive ---

	// Внешний URL сервиса для self-ping (пусто — выключено)
	SelfURL string
	// Интервал self-ping (по умолчанию 10m)
	KeepaliveInterval time.Duration

	// --- Мониторинг зависимостей ---

	// Включить dephealth-мониторинг внешних зависимостей
	DephealthEnabled bool
	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей (по умолчанию 30s)
	DephealthCheckInterval time.Duration

	// --- Логирование ---

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Бот ---

	// VB_BOT_TOKEN — токен Bot API (обязательный)
	cfg.BotToken, err = getEnvRequired("VB_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	// VB_PROVIDER_PHONES — справочник телефонов провайдеров
	cfg.ProviderPhones = os.Getenv("VB_PROVIDER_PHONES")

	// --- Табличные источники ---

	// VB_DIRECTORY_URL — таблица каталога доступа (обязательный)
	cfg.DirectoryURL, err = getEnvRequired("VB_DIRECTORY_URL")
	if err != nil {
		return nil, err
	}

	// VB_DIRECTORY_SCHEMA — схема каталога (по умолчанию extended6)
	cfg.DirectorySchema = getEnvDefault("VB_DIRECTORY_SCHEMA", "extended6")

	// VB_DATASET_URLS — JSON: {"группа": {"филиал": "url", ...}, ...}
	rawURLs, err := getEnvRequired("VB_DATASET_URLS")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawURLs), &cfg.DatasetURLs); err != nil {
		return nil, fmt.Errorf("VB_DATASET_URLS: некорректный JSON: %w", err)
	}
	if len(cfg.DatasetURLs) == 0 {
		return nil, fmt.Errorf("VB_DATASET_URLS: карта датасетов пуста")
	}

	// VB_NOTIFY_DATASET_URL — датасет уведомлений (опционально)
	cfg.NotifyDatasetURL = os.Getenv("VB_NOTIFY_DATASET_URL")

	// VB_FETCH_TIMEOUT — таймаут загрузки таблицы (по умолчанию 10s)
	cfg.FetchTimeout, err = getEnvDuration("VB_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_FETCH_TIMEOUT: %w", err)
	}

	// VB_CACHE_TTL — TTL кэша датасетов (по умолчанию 30s, 0 — выкл.)
	cfg.CacheTTL, err = getEnvDuration("VB_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_CACHE_TTL: %w", err)
	}

	// VB_CACHE_SIZE — размер кэша датасетов (по умолчанию 32)
	cfg.CacheSize, err = getEnvInt("VB_CACHE_SIZE", 32)
	if err != nil {
		return nil, fmt.Errorf("VB_CACHE_SIZE: %w", err)
	}

	// --- HTTP-сервер ---

	// VB_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("VB_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("VB_PORT: %w", err)
	}

	// VB_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("VB_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_HTTP_READ_TIMEOUT: %w", err)
	}

	// VB_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("VB_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// VB_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("VB_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// VB_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("VB_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Keep-alive ---

	// VB_SELF_URL — внешний URL сервиса (пусто — self-ping выключен)
	cfg.SelfURL = os.Getenv("VB_SELF_URL")

	// VB_KEEPALIVE_INTERVAL — интервал self-ping (по умолчанию 10m)
	cfg.KeepaliveInterval, err = getEnvDuration("VB_KEEPALIVE_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("VB_KEEPALIVE_INTERVAL: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// VB_DEPHEALTH_ENABLED — включить dephealth (по умолчанию false)
	cfg.DephealthEnabled, err = getEnvBool("VB_DEPHEALTH_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("VB_DEPHEALTH_ENABLED: %w", err)
	}

	// VB_DEPHEALTH_GROUP — группа в метриках dephealth
	cfg.DephealthGroup = getEnvDefault("VB_DEPHEALTH_GROUP", "vols-bot")

	// VB_DEPHEALTH_CHECK_INTERVAL — интервал проверок (по умолчанию 30s)
	cfg.DephealthCheckInterval, err = getEnvDuration("VB_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VB_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Логирование ---

	// VB_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("VB_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("VB_LOG_LEVEL: %w", err)
	}

	// VB_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("VB_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("VB_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
