package cache

import (
	"time"

	"lms/config"
)

// Store is the caching contract used by the progress layer. Get unmarshals
// the cached value into dest and reports whether the key was present.
type Store interface {
	Get(key string, dest interface{}) bool
	Set(key string, value interface{}, ttl time.Duration)
	Delete(keys ...string)
}

// Default is the process-wide cache, set up at boot.
var Default Store

// Setup selects the cache backend: Redis when REDIS_URL is configured,
// otherwise the in-process memory store.
func Setup() {
	if config.AppConfig.RedisURL != "" {
		store, err := NewRedisStore(config.AppConfig.RedisURL)
		if err == nil {
			Default = store
			return
		}
	}
	Default = NewMemoryStore()
}
