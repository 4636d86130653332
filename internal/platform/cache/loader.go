package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vitallab/vitallab/internal/platform/metrics"
)

// Loader reads through a Store. On a miss the fill function runs once per
// key even under concurrent callers, and a successful result is written back.
// Failed fills are not cached.
type Loader struct {
	name   string
	store  Store
	group  singleflight.Group
	logger zerolog.Logger
}

func NewLoader(name string, store Store, logger zerolog.Logger) *Loader {
	return &Loader{
		name:   name,
		store:  store,
		logger: logger.With().Str("cache", name).Logger(),
	}
}

func (l *Loader) Load(ctx context.Context, key string, fill func(context.Context) ([]byte, error)) ([]byte, error) {
	b, ok, err := l.store.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a direct fetch.
		l.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}
	if ok {
		metrics.CacheLookups.WithLabelValues(l.name, "hit").Inc()
		return b, nil
	}
	metrics.CacheLookups.WithLabelValues(l.name, "miss").Inc()

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		b, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		if err := l.store.Set(ctx, key, b); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Memo is a typed in-process cache for values that are expensive to build,
// such as parsed tables. Entries are populated on first access and never
// invalidated.
type Memo[K comparable, V any] struct {
	name  string
	mu    sync.RWMutex
	items map[K]V
	group singleflight.Group
}

func NewMemo[K comparable, V any](name string) *Memo[K, V] {
	return &Memo[K, V]{name: name, items: make(map[K]V)}
}

// Get returns the cached value for key, calling fill on a miss.
func (m *Memo[K, V]) Get(ctx context.Context, key K, fill func(context.Context) (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	if ok {
		metrics.CacheLookups.WithLabelValues(m.name, "hit").Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues(m.name, "miss").Inc()

	res, err, _ := m.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		m.mu.RLock()
		cached, ok := m.items[key]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}
		built, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.items[key] = built
		m.mu.Unlock()
		return built, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Len returns the number of memoized entries.
func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
