package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getzep/textlab/pkg/models"
)

// countingStore is an in-memory ArtifactStore that counts Load calls. When loadRead is set,
// Load signals on it after reading the artifact and then waits for loadRelease.
type countingStore struct {
	mu          sync.Mutex
	artifacts   map[cacheKey]*models.ModelArtifact
	loads       int
	closed      bool
	loadRead    chan struct{}
	loadRelease chan struct{}
}

func newCountingStore() *countingStore {
	return &countingStore{artifacts: make(map[cacheKey]*models.ModelArtifact)}
}

func (s *countingStore) Save(_ context.Context, a *models.ModelArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[cacheKey{a.TaskID, a.Algorithm}] = a
	return nil
}

func (s *countingStore) Load(
	_ context.Context,
	taskID string,
	algorithm models.Algorithm,
) (*models.ModelArtifact, error) {
	s.mu.Lock()
	s.loads++
	a, ok := s.artifacts[cacheKey{taskID, algorithm}]
	read, release := s.loadRead, s.loadRelease
	s.mu.Unlock()

	if read != nil {
		read <- struct{}{}
		<-release
	}
	if !ok {
		return nil, models.NewNotTrainedError(taskID, algorithm)
	}
	return a, nil
}

func (s *countingStore) blockNextLoad() (read chan struct{}, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadRead, s.loadRelease = make(chan struct{}), make(chan struct{})
	return s.loadRead, s.loadRelease
}

func (s *countingStore) unblock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadRead, s.loadRelease = nil, nil
}

func (s *countingStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *countingStore) Delete(_ context.Context, taskID string, algorithm models.Algorithm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, cacheKey{taskID, algorithm})
	return nil
}

func (s *countingStore) List(context.Context, string) ([]models.ArtifactSummary, error) {
	return nil, nil
}

func (s *countingStore) SetActive(context.Context, string, models.Algorithm) error {
	return nil
}

func (s *countingStore) Active(_ context.Context, taskID string) (models.Algorithm, error) {
	return "", models.NewNotTrainedError(taskID, "")
}

func (s *countingStore) Close() error {
	s.closed = true
	return nil
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore()
	cs, err := NewCachedStore(inner, 2)
	require.NoError(t, err)

	a := testArtifact()
	require.NoError(t, cs.Save(ctx, a))

	t.Run("second load is served from cache", func(t *testing.T) {
		got, err := cs.Load(ctx, a.TaskID, a.Algorithm)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		_, err = cs.Load(ctx, a.TaskID, a.Algorithm)
		require.NoError(t, err)
		assert.Equal(t, 1, inner.loads)
	})

	t.Run("save evicts", func(t *testing.T) {
		retrained := testArtifact()
		require.NoError(t, cs.Save(ctx, retrained))
		got, err := cs.Load(ctx, a.TaskID, a.Algorithm)
		require.NoError(t, err)
		assert.Equal(t, retrained.ID, got.ID)
		assert.Equal(t, 2, inner.loads)
	})

	t.Run("delete evicts", func(t *testing.T) {
		require.NoError(t, cs.Delete(ctx, a.TaskID, a.Algorithm))
		_, err := cs.Load(ctx, a.TaskID, a.Algorithm)
		assert.ErrorIs(t, err, models.ErrNotTrained)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		before := inner.loads
		_, err := cs.Load(ctx, "topic", models.AlgorithmSVM)
		assert.ErrorIs(t, err, models.ErrNotTrained)
		_, err = cs.Load(ctx, "topic", models.AlgorithmSVM)
		assert.ErrorIs(t, err, models.ErrNotTrained)
		assert.Equal(t, before+2, inner.loads)
	})

	require.NoError(t, cs.Close())
	assert.True(t, inner.closed)
}

// versionedStore reports the stored artifact id as its version.
type versionedStore struct {
	*countingStore
}

func (s versionedStore) Version(_ context.Context, taskID string, algorithm models.Algorithm) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[cacheKey{taskID, algorithm}]
	if !ok {
		return "", models.NewNotTrainedError(taskID, algorithm)
	}
	return a.ID.String(), nil
}

func TestCachedStore_WriteDuringLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		write func(cs *CachedStore, old *models.ModelArtifact) error
		check func(t *testing.T, got *models.ModelArtifact, err error)
	}{
		{
			name: "save",
			write: func(cs *CachedStore, old *models.ModelArtifact) error {
				retrained := testArtifact()
				retrained.Hyperparameter = 2
				return cs.Save(ctx, retrained)
			},
			check: func(t *testing.T, got *models.ModelArtifact, err error) {
				require.NoError(t, err)
				assert.Equal(t, 2.0, got.Hyperparameter)
			},
		},
		{
			name: "delete",
			write: func(cs *CachedStore, old *models.ModelArtifact) error {
				return cs.Delete(ctx, old.TaskID, old.Algorithm)
			},
			check: func(t *testing.T, _ *models.ModelArtifact, err error) {
				assert.ErrorIs(t, err, models.ErrNotTrained)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := newCountingStore()
			cs, err := NewCachedStore(inner, 4)
			require.NoError(t, err)

			old := testArtifact()
			require.NoError(t, cs.Save(ctx, old))

			read, release := inner.blockNextLoad()
			inflight := make(chan *models.ModelArtifact, 1)
			go func() {
				a, _ := cs.Load(ctx, old.TaskID, old.Algorithm)
				inflight <- a
			}()

			<-read
			inner.unblock()
			require.NoError(t, tt.write(cs, old))
			close(release)
			assert.Equal(t, old.ID, (<-inflight).ID)

			got, err := cs.Load(ctx, old.TaskID, old.Algorithm)
			tt.check(t, got, err)
		})
	}
}

func TestCachedStore_ExternalWrite(t *testing.T) {
	ctx := context.Background()
	inner := newCountingStore()
	cs, err := NewCachedStore(versionedStore{inner}, 4)
	require.NoError(t, err)

	a := testArtifact()
	require.NoError(t, cs.Save(ctx, a))
	_, err = cs.Load(ctx, a.TaskID, a.Algorithm)
	require.NoError(t, err)
	_, err = cs.Load(ctx, a.TaskID, a.Algorithm)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.loadCount())

	// another process replaces the artifact behind the cache
	replaced := testArtifact()
	replaced.Hyperparameter = 3
	require.NoError(t, inner.Save(ctx, replaced))

	got, err := cs.Load(ctx, a.TaskID, a.Algorithm)
	require.NoError(t, err)
	assert.Equal(t, replaced.ID, got.ID)
	assert.Equal(t, 2, inner.loadCount())

	require.NoError(t, inner.Delete(ctx, a.TaskID, a.Algorithm))
	_, err = cs.Load(ctx, a.TaskID, a.Algorithm)
	assert.ErrorIs(t, err, models.ErrNotTrained)
}
