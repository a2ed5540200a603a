package classify

import (
	"context"
	"math"

	"github.com/getzep/textlab/pkg/models"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a multinomial (softmax) logistic regression with an L2 penalty of
// ||W||^2 / (2C), fitted with L-BFGS. The intercept is not penalized.
type LogisticRegression struct {
	C float64

	linear
}

func (lr *LogisticRegression) Algorithm() models.Algorithm {
	return models.AlgorithmLogisticRegression
}

func (lr *LogisticRegression) Fit(ctx context.Context, X [][]float64, y []int, nClasses int) error {
	d, err := validateTrainingData(X, y, nClasses)
	if err != nil {
		return err
	}
	k := nClasses
	n := float64(len(X))
	penalty := 1 / (2 * lr.C)

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			w, b := unpack(theta, k, d)
			var loss float64
			scores := make([]float64, k)
			for i, x := range X {
				for c := 0; c < k; c++ {
					scores[c] = vek.Dot(w[c], x) + b[c]
				}
				loss += floats.LogSumExp(scores) - scores[y[i]]
			}
			for c := 0; c < k; c++ {
				loss += penalty * vek.Dot(w[c], w[c])
			}
			return loss / n
		},
		Grad: func(grad, theta []float64) {
			w, b := unpack(theta, k, d)
			gw, gb := unpack(grad, k, d)
			for c := 0; c < k; c++ {
				for j := range gw[c] {
					gw[c][j] = 2 * penalty * w[c][j]
				}
				gb[c] = 0
			}
			scores := make([]float64, k)
			for i, x := range X {
				for c := 0; c < k; c++ {
					scores[c] = vek.Dot(w[c], x) + b[c]
				}
				lse := floats.LogSumExp(scores)
				for c := 0; c < k; c++ {
					p := math.Exp(scores[c] - lse)
					if c == y[i] {
						p--
					}
					if p != 0 {
						floats.AddScaled(gw[c], p, x)
					}
					gb[c] += p
				}
			}
			floats.Scale(1/n, grad)
		},
	}

	theta, err := minimize(ctx, problem, make([]float64, k*d+k))
	if err != nil {
		return err
	}
	w, b := unpack(theta, k, d)
	lr.coef = make([][]float64, k)
	for c := range w {
		lr.coef[c] = append([]float64(nil), w[c]...)
	}
	lr.intercept = append([]float64(nil), b...)
	return nil
}

func (lr *LogisticRegression) Predict(x []float64) int {
	return argmax(lr.decision(x))
}

func (lr *LogisticRegression) PredictProba(x []float64) []float64 {
	scores := lr.decision(x)
	lse := floats.LogSumExp(scores)
	for c := range scores {
		scores[c] = math.Exp(scores[c] - lse)
	}
	return scores
}

// FeatureImportance is the largest absolute coefficient of each feature across classes.
func (lr *LogisticRegression) FeatureImportance() []float64 {
	if len(lr.coef) == 0 {
		return nil
	}
	imp := make([]float64, len(lr.coef[0]))
	for _, w := range lr.coef {
		for j, v := range w {
			if a := math.Abs(v); a > imp[j] {
				imp[j] = a
			}
		}
	}
	return imp
}

func (lr *LogisticRegression) State() models.ClassifierState {
	return lr.state(models.AlgorithmLogisticRegression, lr.C)
}
