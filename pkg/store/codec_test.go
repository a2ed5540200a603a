package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getzep/textlab/pkg/models"
)

func testArtifact() *models.ModelArtifact {
	return &models.ModelArtifact{
		ID:             uuid.New(),
		FormatVersion:  models.ArtifactFormatVersion,
		TaskID:         models.TaskSentiment,
		Algorithm:      models.AlgorithmNaiveBayes,
		Representation: models.RepresentationTFIDF,
		Normalization:  models.DefaultNormalizationOptions(),
		Hyperparameter: 1,
		Classes:        []string{"negative", "positive"},
		TrainedAt:      time.Date(2024, 5, 12, 8, 30, 0, 0, time.UTC),
		DatasetName:    "reviews.csv",
		Metrics: models.EvaluationReport{
			Accuracy:        0.75,
			Labels:          []string{"negative", "positive"},
			ConfusionMatrix: [][]int{{1, 1}, {0, 2}},
			TopFeatures:     []models.FeatureImportance{{Feature: "great", Importance: 1.5}},
			TrainSize:       16,
			TestSize:        4,
			FeatureCount:    3,
		},
		Vectorizer: models.VectorizerState{
			Method:     models.RepresentationTFIDF,
			Vocabulary: []string{"awful", "film", "great"},
			IDF:        []float64{1.2, 1, 1.2},
		},
		Classifier: models.ClassifierState{
			Algorithm:      models.AlgorithmNaiveBayes,
			Hyperparameter: 1,
			NumClasses:     2,
			NumFeatures:    3,
			ClassLogPrior:  []float64{-0.69, -0.69},
			FeatureLogProb: [][]float64{{-0.5, -1.2, -2}, {-2, -1.2, -0.5}},
		},
	}
}

func TestEncodeDecodeArtifact(t *testing.T) {
	a := testArtifact()
	b, err := EncodeArtifact(a)
	require.NoError(t, err)

	decoded, err := DecodeArtifact(b)
	require.NoError(t, err)

	assert.Equal(t, a.ID, decoded.ID)
	assert.Equal(t, a.TaskID, decoded.TaskID)
	assert.Equal(t, a.Algorithm, decoded.Algorithm)
	assert.Equal(t, a.Normalization, decoded.Normalization)
	assert.Equal(t, a.Classes, decoded.Classes)
	assert.Equal(t, a.Metrics, decoded.Metrics)
	assert.Equal(t, a.Vectorizer, decoded.Vectorizer)
	assert.Equal(t, a.Classifier, decoded.Classifier)
	assert.True(t, a.TrainedAt.Equal(decoded.TrainedAt))
}

func TestEncodeArtifact_SetsFormatVersion(t *testing.T) {
	a := testArtifact()
	a.FormatVersion = ""
	b, err := EncodeArtifact(a)
	require.NoError(t, err)
	assert.Empty(t, a.FormatVersion)

	decoded, err := DecodeArtifact(b)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactFormatVersion, decoded.FormatVersion)
}

func TestDecodeArtifact_Errors(t *testing.T) {
	_, err := DecodeArtifact([]byte("not msgpack"))
	assert.ErrorIs(t, err, ErrStorage)

	a := testArtifact()
	a.FormatVersion = "2.0.0"
	b, err := EncodeArtifact(a)
	require.NoError(t, err)
	_, err = DecodeArtifact(b)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestCheckFormatVersion(t *testing.T) {
	testCases := []struct {
		version string
		ok      bool
	}{
		{"1.0.0", true},
		{"1.4.2", true},
		{"0.9.0", false},
		{"2.0.0", false},
		{"latest", false},
	}
	for _, tc := range testCases {
		t.Run(tc.version, func(t *testing.T) {
			err := CheckFormatVersion(tc.version)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
