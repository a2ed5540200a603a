package classify

import (
	"context"
	"fmt"
	"math"

	"github.com/getzep/textlab/pkg/models"
	"gonum.org/v1/gonum/floats"
)

// NaiveBayes is a multinomial naive Bayes classifier with additive (Lidstone) smoothing.
// Features must be non-negative.
type NaiveBayes struct {
	Alpha float64

	classLogPrior  []float64
	featureLogProb [][]float64
	nFeatures      int
}

func restoreNaiveBayes(state models.ClassifierState) (*NaiveBayes, error) {
	if len(state.ClassLogPrior) != state.NumClasses || len(state.FeatureLogProb) != state.NumClasses {
		return nil, fmt.Errorf("corrupt naive-bayes state for %d classes", state.NumClasses)
	}
	return &NaiveBayes{
		Alpha:          state.Hyperparameter,
		classLogPrior:  state.ClassLogPrior,
		featureLogProb: state.FeatureLogProb,
		nFeatures:      state.NumFeatures,
	}, nil
}

func (nb *NaiveBayes) Algorithm() models.Algorithm {
	return models.AlgorithmNaiveBayes
}

func (nb *NaiveBayes) Fit(ctx context.Context, X [][]float64, y []int, nClasses int) error {
	width, err := validateTrainingData(X, y, nClasses)
	if err != nil {
		return err
	}

	classCount := make([]float64, nClasses)
	featureCount := make([][]float64, nClasses)
	for c := range featureCount {
		featureCount[c] = make([]float64, width)
	}
	for i, row := range X {
		if i%256 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		for j, v := range row {
			if v < 0 {
				return models.NewValidationError(
					"naive-bayes requires non-negative features (sample %d, feature %d is %v)", i, j, v,
				)
			}
		}
		classCount[y[i]]++
		floats.Add(featureCount[y[i]], row)
	}

	n := float64(len(X))
	nb.classLogPrior = make([]float64, nClasses)
	nb.featureLogProb = make([][]float64, nClasses)
	for c := 0; c < nClasses; c++ {
		nb.classLogPrior[c] = math.Log(classCount[c] / n)

		total := floats.Sum(featureCount[c]) + nb.Alpha*float64(width)
		flp := make([]float64, width)
		for j := range flp {
			flp[j] = math.Log((featureCount[c][j] + nb.Alpha) / total)
		}
		nb.featureLogProb[c] = flp
	}
	nb.nFeatures = width
	return nil
}

// jointLogLikelihood returns log P(c) + sum_j x_j log P(j|c) per class. Zero-valued features
// contribute nothing, so unseen features with zero probability do not poison the sum.
func (nb *NaiveBayes) jointLogLikelihood(x []float64) []float64 {
	jll := make([]float64, len(nb.classLogPrior))
	for c := range jll {
		s := nb.classLogPrior[c]
		flp := nb.featureLogProb[c]
		for j, v := range x {
			if v == 0 || j >= len(flp) {
				continue
			}
			s += v * flp[j]
		}
		if math.IsNaN(s) {
			s = math.Inf(-1)
		}
		jll[c] = s
	}
	return jll
}

func (nb *NaiveBayes) Predict(x []float64) int {
	return argmax(nb.jointLogLikelihood(x))
}

// PredictProba normalizes the joint log likelihoods with log-sum-exp.
func (nb *NaiveBayes) PredictProba(x []float64) []float64 {
	jll := nb.jointLogLikelihood(x)
	norm := floats.LogSumExp(jll)
	proba := make([]float64, len(jll))
	if math.IsInf(norm, -1) {
		for c := range proba {
			proba[c] = 1 / float64(len(proba))
		}
		return proba
	}
	for c, v := range jll {
		proba[c] = math.Exp(v - norm)
	}
	return proba
}

// FeatureImportance is the log probability of each feature given the positive (second) class
// of a binary problem, or the largest class-conditional log probability otherwise. Non-finite
// values (zero counts with alpha = 0) become NonFiniteImportance.
func (nb *NaiveBayes) FeatureImportance() []float64 {
	imp := make([]float64, nb.nFeatures)
	for j := range imp {
		best := math.Inf(-1)
		if len(nb.featureLogProb) == 2 {
			best = nb.featureLogProb[1][j]
		} else {
			for c := range nb.featureLogProb {
				if v := nb.featureLogProb[c][j]; v > best {
					best = v
				}
			}
		}
		if math.IsInf(best, 0) || math.IsNaN(best) {
			best = NonFiniteImportance
		}
		imp[j] = best
	}
	return imp
}

func (nb *NaiveBayes) State() models.ClassifierState {
	return models.ClassifierState{
		Algorithm:      models.AlgorithmNaiveBayes,
		Hyperparameter: nb.Alpha,
		NumClasses:     len(nb.classLogPrior),
		NumFeatures:    nb.nFeatures,
		ClassLogPrior:  nb.classLogPrior,
		FeatureLogProb: nb.featureLogProb,
	}
}
