package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryCache — потокобезопасная реализация SessionCache в памяти процесса.
// Используется в тестах и локальных запусках без Redis; записи
// проверяются на истечение лениво, при чтении.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryCache создаёт пустой кэш в памяти.
func NewMemoryCache() SessionCache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (c *memoryCache) Put(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}

	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return "", ErrCacheMiss
	}

	return e.value, nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.entries, k)
	}

	return nil
}

// DeleteByPattern поддерживает единственный практический для сервиса
// вид шаблона — префикс с завершающей '*' (как "<uid>:login:*").
// Без '*' ключ сравнивается точно.
func (c *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix, wildcard := strings.CutSuffix(pattern, "*")
	for k := range c.entries {
		if wildcard && strings.HasPrefix(k, prefix) || !wildcard && k == pattern {
			delete(c.entries, k)
		}
	}

	return nil
}

func (c *memoryCache) Close() error { return nil }
