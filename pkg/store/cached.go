package store

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/getzep/textlab/pkg/models"
)

type cacheKey struct {
	TaskID    string
	Algorithm models.Algorithm
}

type cacheEntry struct {
	artifact *models.ModelArtifact
	version  string
}

// Force compiler to validate that CachedStore implements the ArtifactStore interface.
var _ models.ArtifactStore = &CachedStore{}

// CachedStore keeps recently loaded artifacts in memory in front of another ArtifactStore.
// Cached artifacts are shared between callers and must not be modified.
//
// Writes through the CachedStore bump a per-key generation, and a Load only caches its result
// if the generation is unchanged, so an in-flight Load never re-caches a replaced artifact.
// When the backend implements models.ArtifactVersioner, cache hits are revalidated against the
// backend version, which catches writes made by other processes.
type CachedStore struct {
	models.ArtifactStore
	versioner models.ArtifactVersioner
	cache     *lru.Cache[cacheKey, cacheEntry]

	mu          sync.Mutex
	generations map[cacheKey]uint64
}

// NewCachedStore wraps next with an LRU cache holding at most size artifacts.
func NewCachedStore(next models.ArtifactStore, size int) (*CachedStore, error) {
	cache, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil, NewStorageError("failed to create artifact cache", err)
	}
	versioner, _ := next.(models.ArtifactVersioner)
	return &CachedStore{
		ArtifactStore: next,
		versioner:     versioner,
		cache:         cache,
		generations:   make(map[cacheKey]uint64),
	}, nil
}

func (c *CachedStore) Save(ctx context.Context, artifact *models.ModelArtifact) error {
	err := c.ArtifactStore.Save(ctx, artifact)
	c.invalidate(cacheKey{artifact.TaskID, artifact.Algorithm})
	return err
}

func (c *CachedStore) Load(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
) (*models.ModelArtifact, error) {
	key := cacheKey{taskID, algorithm}
	if e, ok := c.cache.Get(key); ok && c.fresh(ctx, key, e) {
		return e.artifact, nil
	}

	c.mu.Lock()
	gen := c.generations[key]
	c.mu.Unlock()

	// the version is read before the artifact: a concurrent replace leaves an older version on
	// the entry, which only costs one extra reload
	var version string
	if c.versioner != nil {
		v, err := c.versioner.Version(ctx, taskID, algorithm)
		if err != nil {
			return nil, err
		}
		version = v
	}

	a, err := c.ArtifactStore.Load(ctx, taskID, algorithm)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generations[key] == gen {
		c.cache.Add(key, cacheEntry{artifact: a, version: version})
	}
	c.mu.Unlock()
	return a, nil
}

func (c *CachedStore) Delete(ctx context.Context, taskID string, algorithm models.Algorithm) error {
	err := c.ArtifactStore.Delete(ctx, taskID, algorithm)
	c.invalidate(cacheKey{taskID, algorithm})
	return err
}

func (c *CachedStore) Close() error {
	c.cache.Purge()
	return c.ArtifactStore.Close()
}

// fresh reports whether a cached entry still matches the backend. Stale entries are evicted.
func (c *CachedStore) fresh(ctx context.Context, key cacheKey, e cacheEntry) bool {
	if c.versioner == nil {
		return true
	}
	v, err := c.versioner.Version(ctx, key.TaskID, key.Algorithm)
	if err == nil && v == e.version {
		return true
	}
	c.cache.Remove(key)
	return false
}

func (c *CachedStore) invalidate(key cacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	c.cache.Remove(key)
}
