// cache задаёт контракт кэша сессий — внешнего key/value-хранилища
// с TTL, в котором сервис ведёт активные refresh-сессии и отметки
// об отзыве токенов.
//
// Владение временем жизни записей целиком на стороне кэша (TTL);
// единственный писатель и удалятель записей — сервисный слой.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss — ключ отсутствует (или уже истёк).
// Это не сбой инфраструктуры: любую другую ошибку сервисный слой
// обязан трактовать как недоступность кэша и отказывать fail-closed.
var ErrCacheMiss = errors.New("cache miss")

// SessionCache — минимальный контракт кэша сессий.
type SessionCache interface {
	// Put сохраняет значение с TTL; существующий ключ перезаписывается.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Get возвращает значение или ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)
	// Delete удаляет ключи; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern удаляет все ключи, подходящие под glob-шаблон
	// (например, "<uid>:login:*").
	DeleteByPattern(ctx context.Context, pattern string) error
	// Close закрывает соединение с кэшем.
	Close() error
}
