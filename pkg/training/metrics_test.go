package training

import (
	"testing"

	"github.com/getzep/textlab/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	accuracy, labels, matrix := Evaluate(
		[]string{"a", "a", "b", "b"},
		[]string{"a", "c", "b", "a"},
	)
	assert.Equal(t, 0.5, accuracy)
	assert.Equal(t, []string{"a", "b", "c"}, labels)
	assert.Equal(t, [][]int{
		{1, 0, 1},
		{1, 1, 0},
		{0, 0, 0},
	}, matrix)

	accuracy, labels, matrix = Evaluate(nil, nil)
	assert.Equal(t, 0.0, accuracy)
	assert.Empty(t, labels)
	assert.Empty(t, matrix)
}

func TestTopFeatures(t *testing.T) {
	features := []string{"d", "c", "b", "a"}
	top := TopFeatures(features, []float64{0.1, 0.5, 0.5, 0.9}, 3)
	assert.Equal(t, []models.FeatureImportance{
		{Feature: "a", Importance: 0.9},
		{Feature: "b", Importance: 0.5},
		{Feature: "c", Importance: 0.5},
	}, top)

	assert.Len(t, TopFeatures(features, []float64{1, 2, 3, 4}, 10), 4)
}

func TestSplit(t *testing.T) {
	train, test := Split(100, DefaultTestFraction, DefaultSeed)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 100)

	train2, test2 := Split(100, DefaultTestFraction, DefaultSeed)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = Split(2, DefaultTestFraction, DefaultSeed)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)

	_, test = Split(7, DefaultTestFraction, DefaultSeed)
	assert.Len(t, test, 2)
}
