package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// sqlDialect описывает различия запросов между SQLite и MariaDB
type sqlDialect struct {
	name         string
	schema       string
	upsert       string
	deletePrefix string
}

var (
	sqliteDialect = sqlDialect{
		name: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS world_kv (
			k          TEXT PRIMARY KEY,
			v          TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		upsert: `INSERT INTO world_kv (k, v) VALUES (?, ?)
			ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = CURRENT_TIMESTAMP`,
		deletePrefix: `DELETE FROM world_kv WHERE substr(k, 1, length(?)) = ?`,
	}

	mariaDialect = sqlDialect{
		name: "mysql",
		schema: `CREATE TABLE IF NOT EXISTS world_kv (
			k          VARCHAR(255) PRIMARY KEY,
			v          LONGTEXT     NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
		upsert: `INSERT INTO world_kv (k, v) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = CURRENT_TIMESTAMP`,
		deletePrefix: `DELETE FROM world_kv WHERE LEFT(k, CHAR_LENGTH(?)) = ?`,
	}
)

// SQLStore хранит ключи мира в таблице world_kv (SQLite или MariaDB/MySQL)
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

// NewSQLiteStore открывает файл SQLite, создавая каталог и таблицу при необходимости
func NewSQLiteStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("ошибка настройки SQLite: %w", err)
		}
	}
	return newSQLStore(db, sqliteDialect)
}

// NewMariaStore подключается к MariaDB/MySQL.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}
	return newSQLStore(db, mariaDialect)
}

func newSQLStore(db *sql.DB, d sqlDialect) (*SQLStore, error) {
	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы world_kv: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM world_kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения %s (%s): %w", key, s.dialect.name, err)
	}
	return v, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения %s (%s): %w", key, s.dialect.name, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM world_kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("ошибка удаления %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.deletePrefix, prefix, prefix); err != nil {
		return fmt.Errorf("ошибка удаления по префиксу %s: %w", prefix, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
