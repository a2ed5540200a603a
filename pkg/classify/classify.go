package classify

import (
	"context"
	"fmt"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
)

var log = internal.GetLogger()

// NonFiniteImportance replaces -Inf/NaN log probabilities in naive-bayes feature importances.
// This is the only place a numeric anomaly is silently repaired.
const NonFiniteImportance = 1e-10

// Classifier is a trainable classifier over dense feature vectors. Classes are indexed
// 0..nClasses-1.
type Classifier interface {
	Algorithm() models.Algorithm
	Fit(ctx context.Context, X [][]float64, y []int, nClasses int) error
	Predict(x []float64) int
	State() models.ClassifierState
}

// ProbabilityEstimator is implemented by classifiers that expose class probabilities.
type ProbabilityEstimator interface {
	PredictProba(x []float64) []float64
}

// FeatureWeighter is implemented by classifiers with a per-feature importance.
type FeatureWeighter interface {
	FeatureImportance() []float64
}

// New returns an untrained classifier for algorithm.
func New(algorithm models.Algorithm, hyperparameter float64) (Classifier, error) {
	if err := algorithm.ValidateHyperparameter(hyperparameter); err != nil {
		return nil, err
	}
	switch algorithm {
	case models.AlgorithmNaiveBayes:
		return &NaiveBayes{Alpha: hyperparameter}, nil
	case models.AlgorithmLogisticRegression:
		return &LogisticRegression{C: hyperparameter}, nil
	case models.AlgorithmSVM:
		return &LinearSVM{C: hyperparameter}, nil
	case models.AlgorithmKNN:
		return &KNN{K: int(hyperparameter)}, nil
	default:
		return nil, models.NewValidationError("unsupported algorithm: %q", algorithm)
	}
}

// FromState restores a trained classifier.
func FromState(state models.ClassifierState) (Classifier, error) {
	switch state.Algorithm {
	case models.AlgorithmNaiveBayes:
		return restoreNaiveBayes(state)
	case models.AlgorithmLogisticRegression:
		lin, err := restoreLinear(state)
		if err != nil {
			return nil, err
		}
		return &LogisticRegression{C: state.Hyperparameter, linear: lin}, nil
	case models.AlgorithmSVM:
		lin, err := restoreLinear(state)
		if err != nil {
			return nil, err
		}
		return &LinearSVM{C: state.Hyperparameter, linear: lin}, nil
	case models.AlgorithmKNN:
		return restoreKNN(state)
	default:
		return nil, fmt.Errorf("unsupported algorithm in state: %q", state.Algorithm)
	}
}

// PredictWithConfidence predicts x and, when c exposes probabilities, returns the probability
// of the predicted class.
func PredictWithConfidence(c Classifier, x []float64) (int, *float64) {
	label := c.Predict(x)
	pe, ok := c.(ProbabilityEstimator)
	if !ok {
		return label, nil
	}
	proba := pe.PredictProba(x)
	if label < 0 || label >= len(proba) {
		return label, nil
	}
	p := proba[label]
	return label, &p
}

func validateTrainingData(X [][]float64, y []int, nClasses int) (int, error) {
	if len(X) == 0 {
		return 0, models.NewValidationError("no training samples")
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("sample/label count mismatch: %d != %d", len(X), len(y))
	}
	if nClasses < 2 {
		return 0, models.NewValidationError("at least two classes are required, got %d", nClasses)
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("sample %d has %d features, expected %d", i, len(row), width)
		}
		if y[i] < 0 || y[i] >= nClasses {
			return 0, fmt.Errorf("sample %d has class %d outside [0,%d)", i, y[i], nClasses)
		}
	}
	return width, nil
}

// argmax returns the index of the largest value, the lowest index on ties.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
