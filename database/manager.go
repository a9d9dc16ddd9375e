package database

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/logger"
)

// ConfigSource resolves the database configuration for a named source.
type ConfigSource interface {
	DBConfig(ctx context.Context, name string) (*config.DatabaseConfig, error)
}

// StaticSource is a ConfigSource backed by a fixed map of configurations.
type StaticSource map[string]*config.DatabaseConfig

// DBConfig returns the configuration registered under name.
func (s StaticSource) DBConfig(_ context.Context, name string) (*config.DatabaseConfig, error) {
	cfg, ok := s[name]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("database source %q: %w", name, config.ErrNotConfigured)
	}
	return cfg, nil
}

// Manager opens one DB per named source on first use and keeps it cached.
// Least recently used sources are closed when MaxSize is reached, and sources
// idle for longer than IdleTTL are closed by the cleanup loop.
type Manager struct {
	logger    logger.Logger
	source    ConfigSource
	connector Connector

	mu      sync.RWMutex
	entries map[string]*managedDB
	lru     *list.List
	maxSize int

	idleTTL   time.Duration
	cleanupMu sync.Mutex
	cleanupCh chan struct{}

	// opening collapses concurrent first use of a source into one connect.
	opening singleflight.Group
}

type managedDB struct {
	db       *DB
	element  *list.Element
	lastUsed time.Time
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	MaxSize int           // Maximum number of open sources (default 16)
	IdleTTL time.Duration // Idle time after which a source is closed (default 30m)
}

// NewManager creates a Manager. A nil connector uses NewConnection.
func NewManager(source ConfigSource, log logger.Logger, opts ManagerOptions, connector Connector) *Manager {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 16
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if connector == nil {
		connector = NewConnection
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Manager{
		logger:    log,
		source:    source,
		connector: connector,
		entries:   make(map[string]*managedDB),
		lru:       list.New(),
		maxSize:   opts.MaxSize,
		idleTTL:   opts.IdleTTL,
	}
}

// Get returns the DB for the named source, connecting on first use.
func (m *Manager) Get(ctx context.Context, name string) (*DB, error) {
	if db := m.lookup(name); db != nil {
		return db, nil
	}

	result, err, _ := m.opening.Do(name, func() (any, error) {
		if db := m.lookup(name); db != nil {
			return db, nil
		}
		return m.open(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return result.(*DB), nil
}

func (m *Manager) lookup(name string) *DB {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[name]
	if !ok {
		return nil
	}
	entry.lastUsed = time.Now()
	m.lru.MoveToFront(entry.element)
	return entry.db
}

func (m *Manager) open(ctx context.Context, name string) (*DB, error) {
	cfg, err := m.source.DBConfig(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database config for %q: %w", name, err)
	}

	conn, err := m.connector(cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database source %q: %w", name, err)
	}
	db := New(conn, WithConfig(cfg))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictOldest()
	m.entries[name] = &managedDB{
		db:       db,
		element:  m.lru.PushFront(name),
		lastUsed: time.Now(),
	}

	m.logger.Info().
		Str("source", name).
		Str("vendor", cfg.Type).
		Msg("Opened database source")

	return db, nil
}

// evictOldest closes the least recently used source when at capacity.
// Callers hold m.mu.
func (m *Manager) evictOldest() {
	if len(m.entries) < m.maxSize {
		return
	}
	oldest := m.lru.Back()
	if oldest == nil {
		return
	}
	name := oldest.Value.(string)
	m.closeEntry(name, "lru")
}

// closeEntry closes and forgets one source. Callers hold m.mu.
func (m *Manager) closeEntry(name, reason string) {
	entry := m.entries[name]
	if err := entry.db.Close(); err != nil {
		m.logger.Error().
			Err(err).
			Str("source", name).
			Msg("Error closing database source")
	}
	delete(m.entries, name)
	m.lru.Remove(entry.element)

	m.logger.Debug().
		Str("source", name).
		Str("reason", reason).
		Msg("Closed database source")
}

// StartCleanup starts closing idle sources every interval (default 5m).
// Calling it again while running is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()
	if m.cleanupCh != nil {
		return
	}
	done := make(chan struct{})
	m.cleanupCh = done

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.closeIdle(time.Now())
			case <-done:
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup loop.
func (m *Manager) StopCleanup() {
	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()
	if m.cleanupCh == nil {
		return
	}
	close(m.cleanupCh)
	m.cleanupCh = nil
}

func (m *Manager) closeIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, entry := range m.entries {
		if now.Sub(entry.lastUsed) > m.idleTTL {
			m.closeEntry(name, "idle")
		}
	}
}

// Close stops the cleanup loop and closes every open source.
func (m *Manager) Close() error {
	m.StopCleanup()

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, entry := range m.entries {
		if err := entry.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database source %q: %w", name, err))
		}
	}
	m.entries = make(map[string]*managedDB)
	m.lru.Init()

	return errors.Join(errs...)
}

// Size returns the number of open sources.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns the pool statistics of every open source keyed by name.
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]any{
		"open_sources": len(m.entries),
		"max_sources":  m.maxSize,
		"idle_ttl":     m.idleTTL.String(),
	}
	sources := make(map[string]any, len(m.entries))
	for name, entry := range m.entries {
		poolStats, err := entry.db.Conn().Stats()
		if err != nil {
			sources[name] = map[string]any{"error": err.Error()}
			continue
		}
		sources[name] = poolStats
	}
	stats["sources"] = sources
	return stats
}
