package vad

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"clipforge/internal/preset"
)

const defaultCacheSize = 256

// ComputeFunc produces a fresh analysis on cache miss
type ComputeFunc func(ctx context.Context, cfg preset.Config) (*Analysis, error)

// Cache memoizes analyses keyed by (source, preset). An in-memory LRU fronts
// the SQLite store, and concurrent misses for the same key share one
// detector run instead of racing.
type Cache struct {
	mu     sync.RWMutex
	front  *lru.Cache[string, *Analysis]
	store  *Store
	group  singleflight.Group
	logger *zap.Logger
}

// NewCache creates a new Cache instance. store may be nil for memory-only use.
func NewCache(store *Store) (*Cache, error) {
	front, err := lru.New[string, *Analysis](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &Cache{front: front, store: store, logger: zap.NewNop()}, nil
}

// NewCacheWithLogger creates a new Cache instance with custom logger
func NewCacheWithLogger(store *Store, logger *zap.Logger) (*Cache, error) {
	c, err := NewCache(store)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		c.logger = logger
	}
	return c, nil
}

func cacheKey(sourceID, presetName string) string {
	return sourceID + "\x00" + presetName
}

// GetOrCompute returns the analysis for (sourceID, cfg.Name), computing and
// persisting it on a miss. Concurrent callers for the same key block on a
// single computation.
func (c *Cache) GetOrCompute(ctx context.Context, sourceID string, cfg preset.Config, compute ComputeFunc) (*Analysis, error) {
	key := cacheKey(sourceID, cfg.Name)

	c.mu.RLock()
	if analysis, ok := c.front.Get(key); ok {
		c.mu.RUnlock()
		c.logger.Debug("vad cache hit", zap.String("source_id", sourceID), zap.String("preset", cfg.Name))
		return analysis, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if c.store != nil {
			stored, err := c.store.Load(ctx, sourceID, cfg.Name)
			if err != nil {
				c.logger.Warn("vad cache load failed, recomputing",
					zap.String("source_id", sourceID), zap.Error(err))
			} else if stored != nil {
				c.put(key, stored)
				return stored, nil
			}
		}

		c.logger.Info("vad cache miss, computing analysis",
			zap.String("source_id", sourceID), zap.String("preset", cfg.Name))
		analysis, err := compute(ctx, cfg)
		if err != nil {
			return nil, err
		}

		if c.store != nil {
			if err := c.store.Save(ctx, analysis); err != nil {
				c.logger.Warn("failed to persist vad analysis",
					zap.String("source_id", sourceID), zap.Error(err))
			}
		}
		c.put(key, analysis)
		return analysis, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Analysis), nil
}

func (c *Cache) put(key string, analysis *Analysis) {
	c.mu.Lock()
	c.front.Add(key, analysis)
	c.mu.Unlock()
}

// Clear drops every cached analysis for a source, across all presets. Callers
// use this when a source file is re-uploaded or re-encoded.
func (c *Cache) Clear(ctx context.Context, sourceID string) error {
	c.mu.Lock()
	for _, key := range c.front.Keys() {
		if len(key) > len(sourceID) && key[:len(sourceID)] == sourceID && key[len(sourceID)] == '\x00' {
			c.front.Remove(key)
		}
	}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.DeleteSource(ctx, sourceID); err != nil {
			return err
		}
	}

	c.logger.Info("cleared vad cache", zap.String("source_id", sourceID))
	return nil
}
