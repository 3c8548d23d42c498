package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/annel0/blockworld/internal/config"
)

// Open создаёт хранилище по конфигурации
func Open(cfg config.StorageConfig) (KeyValueStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return NewMemoryStore(), nil
	case "badger":
		return NewBadgerStore(cfg.Path)
	case "leveldb":
		return NewLevelDBStore(filepath.Join(cfg.Path, "leveldb"))
	case "sqlite":
		return NewSQLiteStore(filepath.Join(cfg.Path, "world.db"))
	case "redis":
		return NewRedisStore(&RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: "blockworld:",
		})
	case "maria", "mysql":
		return NewMariaStore(cfg.DSN)
	case "mongo":
		return NewMongoStore(MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	default:
		return nil, fmt.Errorf("неизвестный backend хранилища: %q", cfg.Backend)
	}
}
