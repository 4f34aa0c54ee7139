// Package registry содержит in-memory реестр с ограниченным временем жизни.
//
// Записи вытесняются тремя способами:
//   - явным Delete (reason "deleted")
//   - по TTL при Sweep или при обращении (reason "expired")
//   - при превышении MaxEntries самая давно использованная запись (reason "capacity")
//
// TTL скользящий: Get продлевает жизнь записи.
package registry

import (
	"container/list"
	"sync"
	"time"
)

// Причины вытеснения.
const (
	ReasonDeleted  = "deleted"
	ReasonExpired  = "expired"
	ReasonCapacity = "capacity"
)

// Config — настройки реестра.
type Config struct {
	// TTL — время жизни записи без обращений. 0 — без ограничения.
	TTL time.Duration

	// MaxEntries — максимальное число записей. 0 — без ограничения.
	MaxEntries int

	// OnEvict вызывается после удаления записи (вне блокировки).
	OnEvict func(key string, reason string)

	// Now — источник времени (для тестов).
	Now func() time.Time
}

type entry[T any] struct {
	key      string
	value    T
	lastUsed time.Time
}

// Registry — потокобезопасный реестр значений по строковому ключу.
type Registry[T any] struct {
	cfg Config

	mu      sync.Mutex
	items   map[string]*list.Element
	recency *list.List // front — последнее обращение
}

// New создаёт реестр.
func New[T any](cfg Config) *Registry[T] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry[T]{
		cfg:     cfg,
		items:   make(map[string]*list.Element),
		recency: list.New(),
	}
}

type eviction struct {
	key    string
	reason string
}

// Put добавляет или заменяет запись.
func (r *Registry[T]) Put(key string, value T) {
	r.mu.Lock()
	now := r.cfg.Now()

	if el, ok := r.items[key]; ok {
		e := el.Value.(*entry[T])
		e.value = value
		e.lastUsed = now
		r.recency.MoveToFront(el)
		r.mu.Unlock()
		return
	}

	r.items[key] = r.recency.PushFront(&entry[T]{key: key, value: value, lastUsed: now})

	var evicted []eviction
	for r.cfg.MaxEntries > 0 && r.recency.Len() > r.cfg.MaxEntries {
		oldest := r.recency.Back()
		evicted = append(evicted, eviction{key: r.remove(oldest), reason: ReasonCapacity})
	}
	r.mu.Unlock()

	r.notify(evicted)
}

// Get возвращает запись и продлевает её TTL.
// Просроченная запись вытесняется и не возвращается.
func (r *Registry[T]) Get(key string) (T, bool) {
	var zero T

	r.mu.Lock()
	el, ok := r.items[key]
	if !ok {
		r.mu.Unlock()
		return zero, false
	}

	now := r.cfg.Now()
	e := el.Value.(*entry[T])
	if r.expired(e, now) {
		r.remove(el)
		r.mu.Unlock()
		r.notify([]eviction{{key: key, reason: ReasonExpired}})
		return zero, false
	}

	e.lastUsed = now
	r.recency.MoveToFront(el)
	value := e.value
	r.mu.Unlock()
	return value, true
}

// Delete удаляет запись. Возвращает false, если её не было.
func (r *Registry[T]) Delete(key string) bool {
	r.mu.Lock()
	el, ok := r.items[key]
	if ok {
		r.remove(el)
	}
	r.mu.Unlock()

	if ok {
		r.notify([]eviction{{key: key, reason: ReasonDeleted}})
	}
	return ok
}

// Len возвращает число записей (включая ещё не вычищенные просроченные).
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recency.Len()
}

// Keys возвращает ключи от последнего использованного к самому старому.
func (r *Registry[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, r.recency.Len())
	for el := r.recency.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[T]).key)
	}
	return keys
}

// Sweep вытесняет просроченные записи. Возвращает их число.
func (r *Registry[T]) Sweep() int {
	if r.cfg.TTL <= 0 {
		return 0
	}

	r.mu.Lock()
	now := r.cfg.Now()
	var evicted []eviction

	// Список упорядочен по давности, просроченные — в хвосте
	for el := r.recency.Back(); el != nil; {
		e := el.Value.(*entry[T])
		if !r.expired(e, now) {
			break
		}
		prev := el.Prev()
		evicted = append(evicted, eviction{key: r.remove(el), reason: ReasonExpired})
		el = prev
	}
	r.mu.Unlock()

	r.notify(evicted)
	return len(evicted)
}

func (r *Registry[T]) expired(e *entry[T], now time.Time) bool {
	return r.cfg.TTL > 0 && now.Sub(e.lastUsed) > r.cfg.TTL
}

// remove удаляет элемент. Вызывается под r.mu.
func (r *Registry[T]) remove(el *list.Element) string {
	e := r.recency.Remove(el).(*entry[T])
	delete(r.items, e.key)
	return e.key
}

func (r *Registry[T]) notify(evicted []eviction) {
	if r.cfg.OnEvict == nil {
		return
	}
	for _, ev := range evicted {
		r.cfg.OnEvict(ev.key, ev.reason)
	}
}
