package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/getzep/textlab/pkg/models"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/optimize"
)

const (
	maxIterations   = 200
	convergeEpsilon = 1e-7
)

// linear holds a weight matrix (one row per class) and intercepts.
type linear struct {
	coef      [][]float64
	intercept []float64
}

func restoreLinear(state models.ClassifierState) (linear, error) {
	if len(state.Coef) != len(state.Intercept) || len(state.Coef) == 0 {
		return linear{}, fmt.Errorf("corrupt %s state", state.Algorithm)
	}
	return linear{coef: state.Coef, intercept: state.Intercept}, nil
}

func (l *linear) decision(x []float64) []float64 {
	scores := make([]float64, len(l.coef))
	for k, w := range l.coef {
		if len(w) == len(x) {
			scores[k] = vek.Dot(w, x)
		}
		scores[k] += l.intercept[k]
	}
	return scores
}

func (l *linear) state(algorithm models.Algorithm, hyperparameter float64) models.ClassifierState {
	var nFeatures int
	if len(l.coef) > 0 {
		nFeatures = len(l.coef[0])
	}
	return models.ClassifierState{
		Algorithm:      algorithm,
		Hyperparameter: hyperparameter,
		NumClasses:     len(l.coef),
		NumFeatures:    nFeatures,
		Coef:           l.coef,
		Intercept:      l.intercept,
	}
}

// unpack splits a flat parameter vector laid out as [W row-major (k*d) | b (k)].
func unpack(theta []float64, k, d int) ([][]float64, []float64) {
	w := make([][]float64, k)
	for c := 0; c < k; c++ {
		w[c] = theta[c*d : (c+1)*d]
	}
	return w, theta[k*d:]
}

// contextConverger stops the optimizer once ctx is done.
type contextConverger struct {
	ctx   context.Context
	inner optimize.Converger
}

func (c *contextConverger) Init(dim int) {
	c.inner.Init(dim)
}

func (c *contextConverger) Converged(loc *optimize.Location) optimize.Status {
	if c.ctx.Err() != nil {
		return optimize.RuntimeLimit
	}
	return c.inner.Converged(loc)
}

// minimize runs L-BFGS from init. Line search failures after progress has been made are not
// fatal: the best location found is returned.
func minimize(ctx context.Context, problem optimize.Problem, init []float64) ([]float64, error) {
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		Converger: &contextConverger{
			ctx: ctx,
			inner: &optimize.FunctionConverge{
				Absolute:   convergeEpsilon,
				Iterations: 10,
			},
		},
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if result == nil {
		if err == nil {
			err = errors.New("optimizer returned no result")
		}
		return nil, err
	}
	if err != nil {
		log.Debugf("optimizer stopped early: %v (status %v)", err, result.Status)
	}
	return result.X, nil
}
