package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getzep/textlab/pkg/classify"
	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/testutils"
	"github.com/getzep/textlab/pkg/textproc"
	"github.com/getzep/textlab/pkg/training"
	"github.com/getzep/textlab/pkg/vectorize"
)

func trainArtifact(t *testing.T, algorithm models.Algorithm) *models.ModelArtifact {
	t.Helper()
	ds := dataset.New("synthetic", testutils.GenerateCorpus(40, nil, 7))
	a, err := training.Train(context.Background(), ds, models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      algorithm,
		Representation: models.RepresentationTFIDF,
		Normalization:  models.DefaultNormalizationOptions(),
	})
	require.NoError(t, err)
	return a
}

func predict(t *testing.T, a *models.ModelArtifact, texts []string) []string {
	t.Helper()
	vec, err := vectorize.FromState(a.Vectorizer)
	require.NoError(t, err)
	clf, err := classify.FromState(a.Classifier)
	require.NoError(t, err)

	out := make([]string, len(texts))
	for i, text := range textproc.NormalizeTexts(texts, a.Normalization) {
		out[i] = a.Classes[clf.Predict(vec.Transform(text))]
	}
	return out
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	a := trainArtifact(t, models.AlgorithmNaiveBayes)
	require.NoError(t, st.Save(ctx, a))

	_, err = os.Stat(filepath.Join(st.Root, models.TaskSentiment, "naive-bayes.msgpack"))
	require.NoError(t, err)

	loaded, err := st.Load(ctx, models.TaskSentiment, models.AlgorithmNaiveBayes)
	require.NoError(t, err)
	assert.Equal(t, a.ID, loaded.ID)
	assert.Equal(t, a.Metrics.Accuracy, loaded.Metrics.Accuracy)

	texts := testutils.GenerateTexts(10, 3)
	texts = append(texts, "what a wonderful brilliant film", "awful boring and terrible")
	assert.Equal(t, predict(t, a, texts), predict(t, loaded, texts))
}

func TestFileStore_NotTrained(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Load(ctx, models.TaskSentiment, models.AlgorithmSVM)
	assert.ErrorIs(t, err, models.ErrNotTrained)

	_, err = st.Active(ctx, models.TaskSentiment)
	assert.ErrorIs(t, err, models.ErrNotTrained)

	err = st.Delete(ctx, models.TaskSentiment, models.AlgorithmSVM)
	assert.ErrorIs(t, err, models.ErrNotTrained)

	err = st.SetActive(ctx, models.TaskSentiment, models.AlgorithmSVM)
	assert.ErrorIs(t, err, models.ErrNotTrained)

	summaries, err := st.List(ctx, models.TaskSentiment)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestFileStore_ActiveAndList(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	svm := trainArtifact(t, models.AlgorithmSVM)
	nb := trainArtifact(t, models.AlgorithmNaiveBayes)
	require.NoError(t, st.Save(ctx, svm))
	require.NoError(t, st.Save(ctx, nb))

	// the first saved artifact becomes active
	active, err := st.Active(ctx, models.TaskSentiment)
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmSVM, active)

	require.NoError(t, st.SetActive(ctx, models.TaskSentiment, models.AlgorithmNaiveBayes))
	active, err = st.Active(ctx, models.TaskSentiment)
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmNaiveBayes, active)

	summaries, err := st.List(ctx, models.TaskSentiment)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, models.AlgorithmNaiveBayes, summaries[0].Algorithm)
	assert.True(t, summaries[0].Active)
	assert.Equal(t, models.AlgorithmSVM, summaries[1].Algorithm)
	assert.False(t, summaries[1].Active)
	assert.Positive(t, summaries[1].SizeBytes)

	// deleting the active artifact promotes the remaining one
	require.NoError(t, st.Delete(ctx, models.TaskSentiment, models.AlgorithmNaiveBayes))
	active, err = st.Active(ctx, models.TaskSentiment)
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmSVM, active)

	require.NoError(t, st.Delete(ctx, models.TaskSentiment, models.AlgorithmSVM))
	_, err = st.Active(ctx, models.TaskSentiment)
	assert.ErrorIs(t, err, models.ErrNotTrained)
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	a := trainArtifact(t, models.AlgorithmLogisticRegression)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, st.Save(ctx, a))
		}()
	}
	wg.Wait()

	loaded, err := st.Load(ctx, models.TaskSentiment, models.AlgorithmLogisticRegression)
	require.NoError(t, err)
	assert.Equal(t, a.ID, loaded.ID)

	entries, err := os.ReadDir(filepath.Join(st.Root, models.TaskSentiment))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestFileStore_RejectsUnsafeTaskID(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "..", "../etc", "a/b"} {
		_, err := st.Load(context.Background(), id, models.AlgorithmSVM)
		assert.ErrorIs(t, err, models.ErrBadRequest, id)
	}
}
