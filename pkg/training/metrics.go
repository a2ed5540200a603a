package training

import (
	"sort"

	"github.com/getzep/textlab/pkg/models"
)

// TopFeatureCount is the number of features reported for linear-family algorithms.
const TopFeatureCount = 10

// Evaluate computes accuracy and a confusion matrix. The matrix is indexed [true][predicted]
// over the sorted union of true and predicted labels.
func Evaluate(yTrue, yPred []string) (float64, []string, [][]int) {
	if len(yTrue) == 0 {
		return 0, []string{}, [][]int{}
	}

	seen := make(map[string]struct{})
	for _, l := range yTrue {
		seen[l] = struct{}{}
	}
	for _, l := range yPred {
		seen[l] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	matrix := make([][]int, len(labels))
	for i := range matrix {
		matrix[i] = make([]int, len(labels))
	}

	var correct int
	for i := range yTrue {
		matrix[index[yTrue[i]]][index[yPred[i]]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), labels, matrix
}

// TopFeatures returns the n features with the highest importance, highest first. Equal
// importances are ordered by feature name.
func TopFeatures(features []string, importance []float64, n int) []models.FeatureImportance {
	all := make([]models.FeatureImportance, 0, len(features))
	for i, f := range features {
		if i >= len(importance) {
			break
		}
		all = append(all, models.FeatureImportance{Feature: f, Importance: importance[i]})
	}
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].Importance != all[b].Importance {
			return all[a].Importance > all[b].Importance
		}
		return all[a].Feature < all[b].Feature
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
