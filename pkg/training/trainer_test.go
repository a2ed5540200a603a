package training

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/pkg/classify"
	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/testutils"
	"github.com/getzep/textlab/pkg/vectorize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func sentimentDataset(n int) *models.Dataset {
	return dataset.New("synthetic", testutils.GenerateCorpus(n, []string{"negative", "positive"}, 1))
}

func TestTrain_TFIDFNaiveBayes(t *testing.T) {
	ds := sentimentDataset(100)
	artifact, err := Train(context.Background(), ds, models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationTFIDF,
		Hyperparameter: floatPtr(1.0),
		Normalization:  models.DefaultNormalizationOptions(),
	})
	require.NoError(t, err)

	report := artifact.Metrics
	assert.GreaterOrEqual(t, report.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Accuracy, 1.0)
	assert.Equal(t, 80, report.TrainSize)
	assert.Equal(t, 20, report.TestSize)

	n := len(report.Labels)
	require.Len(t, report.ConfusionMatrix, n)
	var total int
	for _, row := range report.ConfusionMatrix {
		require.Len(t, row, n)
		for _, c := range row {
			total += c
		}
	}
	assert.Equal(t, report.TestSize, total)

	require.Len(t, report.TopFeatures, 10)
	for i := 1; i < len(report.TopFeatures); i++ {
		assert.GreaterOrEqual(t, report.TopFeatures[i-1].Importance, report.TopFeatures[i].Importance)
	}
	assert.Empty(t, report.ClusterProjection)

	assert.Equal(t, []string{"negative", "positive"}, artifact.Classes)
	assert.Equal(t, models.ArtifactFormatVersion, artifact.FormatVersion)
	assert.Equal(t, models.RepresentationTFIDF, artifact.Vectorizer.Method)
	assert.Equal(t, models.AlgorithmNaiveBayes, artifact.Classifier.Algorithm)
	assert.Equal(t, "synthetic", artifact.DatasetName)
}

func TestTrain_Algorithms(t *testing.T) {
	ds := sentimentDataset(60)
	for _, a := range models.Algorithms {
		t.Run(string(a), func(t *testing.T) {
			artifact, err := Train(context.Background(), ds, models.TrainRequest{
				TaskID:         models.TaskSentiment,
				Algorithm:      a,
				Representation: models.RepresentationBagOfWords,
				Normalization:  models.NormalizationOptions{Lowercase: true, RemovePunctuation: true},
			})
			require.NoError(t, err)
			assert.Equal(t, a.DefaultHyperparameter(), artifact.Hyperparameter)

			report := artifact.Metrics
			if a.IsLinear() {
				assert.NotEmpty(t, report.TopFeatures)
			} else {
				assert.Empty(t, report.TopFeatures)
			}
			if a.IsInstanceBased() {
				assert.Len(t, report.ClusterProjection, report.TestSize)
			} else {
				assert.Empty(t, report.ClusterProjection)
			}
			// the synthetic classes are learnable
			assert.Greater(t, report.Accuracy, 0.6)
		})
	}
}

func TestTrain_Deterministic(t *testing.T) {
	ds := sentimentDataset(50)
	req := models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmLogisticRegression,
		Representation: models.RepresentationTFIDF,
	}
	a, err := Train(context.Background(), ds, req)
	require.NoError(t, err)
	b, err := Train(context.Background(), ds, req)
	require.NoError(t, err)

	assert.Equal(t, a.Metrics, b.Metrics)
	assert.Equal(t, a.Vectorizer, b.Vectorizer)
}

func TestTrain_SingleClass(t *testing.T) {
	ds := dataset.New("one", []models.Record{
		models.NewRecord("good", "positive"),
		models.NewRecord("great", "positive"),
		models.NewRecord("fine", "positive"),
	})
	_, err := Train(context.Background(), ds, models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationTFIDF,
	})
	assert.ErrorIs(t, err, ErrSingleClass)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestTrain_Validation(t *testing.T) {
	ds := sentimentDataset(20)
	base := models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationTFIDF,
	}

	testCases := []struct {
		name   string
		ds     *models.Dataset
		mutate func(r *models.TrainRequest)
	}{
		{"unknown algorithm", ds, func(r *models.TrainRequest) { r.Algorithm = "random-forest" }},
		{"unknown representation", ds, func(r *models.TrainRequest) { r.Representation = "bert" }},
		{"bad hyperparameter", ds, func(r *models.TrainRequest) { r.Hyperparameter = floatPtr(-1) }},
		{"missing task", ds, func(r *models.TrainRequest) { r.TaskID = "" }},
		{"empty dataset", dataset.New("e", nil), func(r *models.TrainRequest) {}},
		{"unlabeled dataset", dataset.New("u", []models.Record{{Text: "a"}, {Text: "b"}}), func(r *models.TrainRequest) {}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := Train(context.Background(), tc.ds, req)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestTrain_SkipsUnlabeledRecords(t *testing.T) {
	records := testutils.GenerateCorpus(30, nil, 3)
	records = append(records, models.Record{Text: "no label"}, models.Record{Text: "also none"})
	artifact, err := Train(context.Background(), dataset.New("mixed", records), models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationBagOfWords,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, artifact.Metrics.TrainSize+artifact.Metrics.TestSize)
}

func TestTrain_Timeout(t *testing.T) {
	ds := sentimentDataset(400)
	ctx, cancel := context.WithTimeout(context.Background(), time.Microsecond)
	defer cancel()

	_, err := NewTrainer(vectorize.DefaultOptions()).Train(ctx, ds, models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmKNN,
		Representation: models.RepresentationTFIDF,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTrainingTimeout))
}

func TestTrain_EmbeddingRejectsNaiveBayes(t *testing.T) {
	ds := sentimentDataset(40)
	_, err := Train(context.Background(), ds, models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationAveragedEmbedding,
	})
	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "train", stageErr.Stage)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestNewTrainerFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Train.Workers = 1
	cfg.Vectorize.MaxFeatures = 20

	trainer := NewTrainerFromConfig(&cfg)
	assert.Equal(t, 20, trainer.Vectorize.MaxFeatures)

	artifact, err := trainer.Train(context.Background(), sentimentDataset(30), models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationBagOfWords,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, artifact.Metrics.FeatureCount, 20)

	// the only slot is taken, so a canceled caller gives up while waiting
	require.True(t, trainer.slots.TryAcquire(1))
	defer trainer.slots.Release(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = trainer.Train(ctx, sentimentDataset(30), models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationBagOfWords,
	})
	assert.ErrorIs(t, err, models.ErrTrainingTimeout)
}

func TestTrain_ZeroAlphaIsKept(t *testing.T) {
	artifact, err := Train(context.Background(), sentimentDataset(100), models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationBagOfWords,
		Hyperparameter: floatPtr(0),
		Normalization:  models.DefaultNormalizationOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, artifact.Hyperparameter)
	assert.Equal(t, 0.0, artifact.Classifier.Hyperparameter)

	// words seen only in negative reviews have zero probability under the positive class
	top := artifact.Metrics.TopFeatures
	require.Len(t, top, 10)
	assert.Equal(t, classify.NonFiniteImportance, top[0].Importance)
	for _, f := range top {
		assert.False(t, math.IsInf(f.Importance, 0) || math.IsNaN(f.Importance), f.Feature)
	}
}

func TestTrain_DefaultHyperparameter(t *testing.T) {
	artifact, err := Train(context.Background(), sentimentDataset(40), models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmKNN,
		Representation: models.RepresentationTFIDF,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmKNN.DefaultHyperparameter(), artifact.Hyperparameter)
}

func TestTrain_AbandonedRunKeepsSlot(t *testing.T) {
	cfg := config.Defaults()
	cfg.Train.Workers = 1
	trainer := NewTrainerFromConfig(&cfg)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	trainer.onStage = func(stage string) {
		if stage == "represent" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	}

	req := models.TrainRequest{
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationBagOfWords,
	}

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := trainer.Train(ctx, sentimentDataset(30), req)
		errs <- err
	}()
	<-entered
	cancel()
	assert.ErrorIs(t, <-errs, models.ErrTrainingTimeout)

	// the first run is still working, so its slot is not available
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	_, err := trainer.Train(waitCtx, sentimentDataset(30), req)
	assert.ErrorIs(t, err, models.ErrTrainingTimeout)

	close(release)
	require.Eventually(t, func() bool {
		if trainer.slots.TryAcquire(1) {
			trainer.slots.Release(1)
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)

	_, err = trainer.Train(context.Background(), sentimentDataset(30), req)
	assert.NoError(t, err)
}
