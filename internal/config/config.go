package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Auth      AuthConfig      `yaml:"auth"`
	Blocks    BlocksConfig    `yaml:"blocks"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorldConfig описывает размеры мира, параметры генерации и планировщиков.
type WorldConfig struct {
	ID           string  `yaml:"id"`        // Идентификатор мира (ключ хранилища)
	Dimension    string  `yaml:"dimension"` // OverWorld / Nether / End
	Width        int     `yaml:"width"`
	Depth        int     `yaml:"depth"`
	MaxHeight    int     `yaml:"max_height"`
	FluidLevel   int     `yaml:"fluid_level"`
	NoiseScale   float64 `yaml:"noise_scale"`
	StoneDepth   int     `yaml:"stone_depth"`
	BatchQuota   int     `yaml:"batch_quota"`
	MinTrees     int     `yaml:"min_trees"`
	MaxTrees     int     `yaml:"max_trees"`
	ViewDistance int     `yaml:"view_distance"`
	ViewInterval int     `yaml:"view_interval_ms"`
	TickRate     int     `yaml:"tick_rate_hz"`
	// FreshSession очищает сохранённые данные мира при старте хоста
	FreshSession bool `yaml:"fresh_session"`
}

type StorageConfig struct {
	Backend        string `yaml:"backend"` // memory, badger, leveldb, sqlite, redis, maria, mongo
	Path           string `yaml:"path"`
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	DSN            string `yaml:"dsn"`
	MongoURI       string `yaml:"mongo_uri"`
	MongoDatabase  string `yaml:"mongo_database"`
	CompressLedger bool   `yaml:"compress_ledger"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто — in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"` // host:port OTLP HTTP коллектора
}

type AuthConfig struct {
	// JWTSecret включает проверку Bearer-токена для изменяющих запросов
	JWTSecret string `yaml:"jwt_secret"`
}

type BlocksConfig struct {
	DefinitionsPath string `yaml:"definitions_path"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ID:           "overworld",
			Dimension:    "OverWorld",
			Width:        20,
			Depth:        20,
			MaxHeight:    16,
			FluidLevel:   4,
			NoiseScale:   20,
			StoneDepth:   4,
			BatchQuota:   256,
			MinTrees:     5,
			MaxTrees:     10,
			ViewDistance: 32,
			ViewInterval: 500,
			TickRate:     20,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "data",
		},
		EventBus: EventBusConfig{
			Stream:    "BLOCKWORLD",
			Retention: 24,
			Buffer:    1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "blockworld",
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "info",
		},
	}
}

// ViewIntervalDuration возвращает интервал планировщика дальности видимости
func (w WorldConfig) ViewIntervalDuration() time.Duration {
	return time.Duration(w.ViewInterval) * time.Millisecond
}

// TickInterval возвращает длительность одного тика хоста
func (w WorldConfig) TickInterval() time.Duration {
	if w.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(w.TickRate)
}

// Validate проверяет согласованность параметров мира
func (w WorldConfig) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("world.id не задан")
	}
	if strings.ContainsRune(w.ID, ':') {
		return fmt.Errorf("world.id не может содержать ':': %q", w.ID)
	}
	if w.Width <= 0 || w.Depth <= 0 {
		return fmt.Errorf("некорректный размер мира: %dx%d", w.Width, w.Depth)
	}
	if w.MaxHeight <= 0 {
		return fmt.Errorf("некорректная max_height: %d", w.MaxHeight)
	}
	if w.NoiseScale <= 0 {
		return fmt.Errorf("некорректный noise_scale: %f", w.NoiseScale)
	}
	if w.MinTrees > w.MaxTrees {
		return fmt.Errorf("min_trees (%d) больше max_trees (%d)", w.MinTrees, w.MaxTrees)
	}
	return nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "BLOCKWORLD_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "BLOCKWORLD_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV BLOCKWORLD_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("BLOCKWORLD_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.World.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
