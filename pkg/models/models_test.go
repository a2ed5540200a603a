package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name string
		want Algorithm
	}{
		{"naive-bayes", AlgorithmNaiveBayes},
		{" NB ", AlgorithmNaiveBayes},
		{"logistic_regression", AlgorithmLogisticRegression},
		{"SVM", AlgorithmSVM},
		{"knn", AlgorithmKNN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAlgorithm("random-forest")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestParseRepresentationMethod(t *testing.T) {
	m, err := ParseRepresentationMethod("TF_IDF")
	require.NoError(t, err)
	assert.Equal(t, RepresentationTFIDF, m)

	m, err = ParseRepresentationMethod("word2vec")
	require.NoError(t, err)
	assert.Equal(t, RepresentationAveragedEmbedding, m)

	_, err = ParseRepresentationMethod("bert")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestValidateHyperparameter(t *testing.T) {
	assert.NoError(t, AlgorithmNaiveBayes.ValidateHyperparameter(0))
	assert.Error(t, AlgorithmNaiveBayes.ValidateHyperparameter(-1))
	assert.Error(t, AlgorithmSVM.ValidateHyperparameter(0))
	assert.NoError(t, AlgorithmLogisticRegression.ValidateHyperparameter(0.5))
	assert.NoError(t, AlgorithmKNN.ValidateHyperparameter(3))
	assert.Error(t, AlgorithmKNN.ValidateHyperparameter(2.5))
	assert.Error(t, AlgorithmKNN.ValidateHyperparameter(0))
}

func TestSortAlgorithms(t *testing.T) {
	algs := []Algorithm{"zzz", AlgorithmKNN, AlgorithmNaiveBayes, AlgorithmSVM}
	SortAlgorithms(algs)
	assert.Equal(t, []Algorithm{AlgorithmNaiveBayes, AlgorithmSVM, AlgorithmKNN, "zzz"}, algs)
}

func TestDecodeLabel(t *testing.T) {
	rating, err := DefaultCatalog().Lookup("Rating Prediction")
	require.NoError(t, err)

	assert.Equal(t, "1 star", rating.DecodeLabel("0"))
	assert.Equal(t, "5 stars", rating.DecodeLabel(" 4 "))
	assert.Equal(t, "7", rating.DecodeLabel("7"))
	assert.Equal(t, "-1", rating.DecodeLabel("-1"))
	assert.Equal(t, "great", rating.DecodeLabel("great"))
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()

	task, err := c.Lookup("IMDB")
	require.NoError(t, err)
	assert.Equal(t, TaskSentiment, task.ID)

	_, err = c.Lookup("weather")
	assert.ErrorIs(t, err, ErrBadRequest)

	ids := make([]string, 0)
	for _, d := range c.List() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{TaskRating, TaskSentiment, TaskSpam, TaskTopicClassification}, ids)
}

func TestNormalizationOptionsFromMap(t *testing.T) {
	opts, err := NormalizationOptionsFromMap(DefaultNormalizationOptions(), map[string]any{
		"Lowercase":           false,
		"remove-extra-spaces": "false",
		"ner":                 true,
		"unknown_toggle":      true,
	})
	require.NoError(t, err)
	assert.False(t, opts.Lowercase)
	assert.False(t, opts.CollapseWhitespace)
	assert.True(t, opts.DetectEntities)
	assert.True(t, opts.RemoveStopwords)

	opts, err = NormalizationOptionsFromMap(NormalizationOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, NormalizationOptions{}, opts)
	assert.False(t, opts.AnyTokenStep())

	_, err = NormalizationOptionsFromMap(NormalizationOptions{}, map[string]any{"stem": "maybe"})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestErrors_Unwrap(t *testing.T) {
	err := fmt.Errorf("predict: %w", NewNotTrainedError("spam", AlgorithmSVM))
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.False(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, "predict: no svm model trained for task spam", err.Error())

	stage := NewStageError("vectorize", 3, NewValidationError("empty vocabulary"))
	assert.ErrorIs(t, stage, ErrBadRequest)
	assert.Contains(t, stage.Error(), "record 3")

	var se *StageError
	require.ErrorAs(t, stage, &se)
	assert.Equal(t, "vectorize", se.Stage)

	assert.ErrorIs(t, NewAdvisoryLockError(nil), ErrLockAcquisitionFailed)
	assert.ErrorIs(t, NewNotFoundError("job"), ErrNotFound)
}
