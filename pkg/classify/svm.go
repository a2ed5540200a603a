package classify

import (
	"context"

	"github.com/getzep/textlab/pkg/models"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LinearSVM is a one-vs-rest linear support vector machine with squared hinge loss:
// 0.5*||w||^2 + C * sum(max(0, 1 - y(w.x + b))^2) per class. It has no probability
// estimates.
type LinearSVM struct {
	C float64

	linear
}

func (s *LinearSVM) Algorithm() models.Algorithm {
	return models.AlgorithmSVM
}

func (s *LinearSVM) Fit(ctx context.Context, X [][]float64, y []int, nClasses int) error {
	d, err := validateTrainingData(X, y, nClasses)
	if err != nil {
		return err
	}
	n := float64(len(X))

	s.coef = make([][]float64, nClasses)
	s.intercept = make([]float64, nClasses)
	for class := 0; class < nClasses; class++ {
		target := make([]float64, len(y))
		for i, label := range y {
			if label == class {
				target[i] = 1
			} else {
				target[i] = -1
			}
		}

		problem := optimize.Problem{
			Func: func(theta []float64) float64 {
				w, b := theta[:d], theta[d]
				loss := 0.5 * vek.Dot(w, w)
				for i, x := range X {
					if m := 1 - target[i]*(vek.Dot(w, x)+b); m > 0 {
						loss += s.C * m * m
					}
				}
				return loss / n
			},
			Grad: func(grad, theta []float64) {
				w, b := theta[:d], theta[d]
				gw := grad[:d]
				copy(gw, w)
				grad[d] = 0
				for i, x := range X {
					if m := 1 - target[i]*(vek.Dot(w, x)+b); m > 0 {
						coeff := -2 * s.C * m * target[i]
						floats.AddScaled(gw, coeff, x)
						grad[d] += coeff
					}
				}
				floats.Scale(1/n, grad)
			},
		}

		theta, err := minimize(ctx, problem, make([]float64, d+1))
		if err != nil {
			return err
		}
		s.coef[class] = append([]float64(nil), theta[:d]...)
		s.intercept[class] = theta[d]
	}
	return nil
}

func (s *LinearSVM) Predict(x []float64) int {
	return argmax(s.decision(x))
}

// DecisionFunction returns the signed margin of x for every class.
func (s *LinearSVM) DecisionFunction(x []float64) []float64 {
	return s.decision(x)
}

func (s *LinearSVM) State() models.ClassifierState {
	return s.state(models.AlgorithmSVM, s.C)
}
