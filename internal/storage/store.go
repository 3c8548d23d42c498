package storage

import (
	"context"
	"errors"
)

// ErrNotFound возвращается, когда ключ отсутствует в хранилище
var ErrNotFound = errors.New("key not found")

// KeyValueStore - строковое хранилище ключ-значение.
// Ключи мира имеют вид world:<id>:<name>.
type KeyValueStore interface {
	// Get возвращает значение или ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключ; отсутствие ключа не ошибка
	Delete(ctx context.Context, key string) error
	// DeletePrefix удаляет все ключи с префиксом
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}
