// Package security guards the public api: per-client rate limits, CSRF tokens, origin checks,
// input sanitizing and the authenticated channel that protects challan deletion.
package security

import (
	"time"

	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/telemetry"

	lru "github.com/hashicorp/golang-lru/v2"
)

const report_store_sweep = "store.sweep"

const DefaultStoreSize = 10_000

// Store is an expiring key/value store. Expired entries are never returned, they are reclaimed
// by SweepExpired.
//
// note: fault injection point
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	// SweepExpired removes expired entries and returns how many were removed.
	SweepExpired() int
}

type storeEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// LRUStore is a Store bounded in size, the least recently used entry is evicted when full.
type LRUStore[V any] struct {
	cache *lru.Cache[string, storeEntry[V]]
	time  chrono.TimeAPI
}

func NewLRUStore[V any](size int, timeAPI chrono.TimeAPI) *LRUStore[V] {
	if size <= 0 {
		size = DefaultStoreSize
	}
	cache, err := lru.New[string, storeEntry[V]](size)
	if err != nil {
		panic(err)
	}
	return &LRUStore[V]{cache: cache, time: timeAPI}
}

func (s *LRUStore[V]) Get(key string) (V, bool) {
	entry, ok := s.cache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !s.time.Now().Before(entry.expiresAt) {
		s.cache.Remove(key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (s *LRUStore[V]) Set(key string, value V, ttl time.Duration) {
	s.cache.Add(key, storeEntry[V]{
		value:     value,
		expiresAt: s.time.Now().Add(ttl),
	})
}

func (s *LRUStore[V]) Delete(key string) {
	s.cache.Remove(key)
}

func (s *LRUStore[V]) SweepExpired() int {
	now := s.time.Now()
	removed := 0
	for _, key := range s.cache.Keys() {
		entry, ok := s.cache.Peek(key)
		if ok && !now.Before(entry.expiresAt) {
			s.cache.Remove(key)
			removed++
		}
	}
	return removed
}

type Sweeper interface {
	SweepExpired() int
}

// ScheduleSweep sweeps every store on the given cron spec.
func ScheduleSweep(cron chrono.CronAPI, spec string, tel telemetry.API, stores ...Sweeper) error {
	return cron.Cron(spec, func() {
		total := 0
		for _, s := range stores {
			total += s.SweepExpired()
		}
		tel.ReportCount(report_store_sweep, int64(total))
	})
}
