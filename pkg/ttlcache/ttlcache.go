// Package ttlcache implementa um store chave/valor limitado com expiração por
// TTL. Substitui mapas globais mutáveis: cada componente que precisa de cache
// (status de serviço SEFAZ, throttling HTTP) constrói e possui a sua instância.
package ttlcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache store com TTL fixo e capacidade máxima. Seguro para uso concorrente.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]entry[V]
	now     func() time.Time // injetável em testes
}

// New cria o cache. maxSize <= 0 significa sem limite de capacidade.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get devolve o valor e true se a chave existe e não expirou.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok || c.now().After(e.expiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set grava o valor com o TTL do cache. Quando a capacidade é atingida, faz
// eviction dos expirados e, se ainda cheio, descarta a entrada mais próxima
// de expirar.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictLocked()
	}
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Incr incrementa um contador com TTL (para throttling). Devolve o valor após
// o incremento; o TTL só é renovado quando o contador nasce ou expira.
func Incr(c *Cache[int], key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || c.now().After(e.expiresAt) {
		if c.maxSize > 0 && len(c.items) >= c.maxSize {
			c.evictLocked()
		}
		c.items[key] = entry[int]{value: 1, expiresAt: c.now().Add(c.ttl)}
		return 1
	}
	e.value++
	c.items[key] = e
	return e.value
}

// Len devolve o número de entradas, incluindo expiradas ainda não coletadas.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evictLocked remove entradas expiradas; se nada expirou, remove a mais
// próxima de expirar. Chamada com o mutex já adquirido.
func (c *Cache[V]) evictLocked() {
	now := c.now()
	var oldestKey string
	var oldestExp time.Time
	removed := false
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestExp) {
			oldestKey, oldestExp = k, e.expiresAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
