package classify

import (
	"context"
	"fmt"
	"sort"

	"github.com/getzep/textlab/pkg/models"
	"github.com/viterin/vek"
)

// KNN is a k-nearest-neighbors classifier using cosine similarity and a majority vote. Vote
// ties go to the class whose member is nearest.
type KNN struct {
	K int

	x        [][]float64
	y        []int
	norms    []float64
	nClasses int
}

func restoreKNN(state models.ClassifierState) (*KNN, error) {
	if len(state.TrainX) != len(state.TrainY) || len(state.TrainX) == 0 {
		return nil, fmt.Errorf("corrupt knn state")
	}
	k := &KNN{
		K:        int(state.Hyperparameter),
		x:        state.TrainX,
		y:        state.TrainY,
		nClasses: state.NumClasses,
	}
	k.computeNorms()
	return k, nil
}

func (k *KNN) Algorithm() models.Algorithm {
	return models.AlgorithmKNN
}

func (k *KNN) Fit(_ context.Context, X [][]float64, y []int, nClasses int) error {
	if _, err := validateTrainingData(X, y, nClasses); err != nil {
		return err
	}
	k.x = make([][]float64, len(X))
	for i, row := range X {
		k.x[i] = append([]float64(nil), row...)
	}
	k.y = append([]int(nil), y...)
	k.nClasses = nClasses
	k.computeNorms()
	return nil
}

func (k *KNN) computeNorms() {
	k.norms = make([]float64, len(k.x))
	for i, row := range k.x {
		k.norms[i] = vek.Norm(row)
	}
}

type neighbor struct {
	index      int
	similarity float64
}

// neighbors returns the k most similar training samples, most similar first. Equal
// similarities keep training order.
func (k *KNN) neighbors(x []float64) []neighbor {
	xNorm := vek.Norm(x)
	all := make([]neighbor, len(k.x))
	for i, row := range k.x {
		var sim float64
		if xNorm > 0 && k.norms[i] > 0 && len(row) == len(x) {
			sim = vek.Dot(row, x) / (xNorm * k.norms[i])
		}
		all[i] = neighbor{index: i, similarity: sim}
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].similarity > all[b].similarity
	})

	n := k.K
	if n > len(all) {
		n = len(all)
	}
	if n < 1 {
		n = 1
	}
	return all[:n]
}

func (k *KNN) votes(x []float64) ([]float64, int) {
	votes := make([]float64, k.nClasses)
	firstSeen := make([]int, k.nClasses)
	for c := range firstSeen {
		firstSeen[c] = -1
	}
	for rank, nb := range k.neighbors(x) {
		c := k.y[nb.index]
		votes[c]++
		if firstSeen[c] < 0 {
			firstSeen[c] = rank
		}
	}

	best := -1
	for c := range votes {
		if votes[c] == 0 {
			continue
		}
		if best < 0 || votes[c] > votes[best] ||
			(votes[c] == votes[best] && firstSeen[c] < firstSeen[best]) {
			best = c
		}
	}
	return votes, best
}

func (k *KNN) Predict(x []float64) int {
	_, best := k.votes(x)
	return best
}

// PredictProba returns the fraction of neighbor votes per class.
func (k *KNN) PredictProba(x []float64) []float64 {
	votes, _ := k.votes(x)
	total := vek.Sum(votes)
	if total > 0 {
		vek.DivNumber_Inplace(votes, total)
	}
	return votes
}

func (k *KNN) State() models.ClassifierState {
	var nFeatures int
	if len(k.x) > 0 {
		nFeatures = len(k.x[0])
	}
	return models.ClassifierState{
		Algorithm:      models.AlgorithmKNN,
		Hyperparameter: float64(k.K),
		NumClasses:     k.nClasses,
		NumFeatures:    nFeatures,
		TrainX:         k.x,
		TrainY:         k.y,
	}
}
