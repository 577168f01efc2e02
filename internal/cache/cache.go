package cache

import (
	"log/slog"
	"time"
)

// Cache is a string-keyed store of derived values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix drops every key starting with prefix and returns how many went.
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// StatsReporter is implemented by caches that count lookups.
type StatsReporter interface {
	Stats() Stats
}

type namedCache struct {
	name string
	c    Cleaner
}

// Manager periodically evicts expired entries from registered caches and
// logs their hit counts.
type Manager struct {
	caches      []namedCache
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	logger      *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
		logger:      logger,
	}
}

func (m *Manager) Register(name string, c Cleaner) {
	m.caches = append(m.caches, namedCache{name: name, c: c})
}

// StartCleanup runs the eviction loop in the background until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanOnce(); n > 0 {
				m.logger.Debug("Evicted expired cache entries", "count", n)
			}
			m.LogStats()
		case <-m.stopCleanup:
			return
		}
	}
}

// CleanOnce evicts expired entries from every registered cache.
func (m *Manager) CleanOnce() int {
	total := 0
	for _, nc := range m.caches {
		total += nc.c.CleanExpired()
	}
	return total
}

// LogStats writes one line per cache that counts its lookups.
func (m *Manager) LogStats() {
	for _, nc := range m.caches {
		r, ok := nc.c.(StatsReporter)
		if !ok {
			continue
		}
		st := r.Stats()
		m.logger.Info("Cache stats",
			"cache", nc.name,
			"hits", st.Hits,
			"misses", st.Misses,
			"size", st.Size)
	}
}

// Stop ends the cleanup loop. It must only be called after StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
