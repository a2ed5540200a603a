package classify

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TSNEOptions configures Project2D. Zero values select the defaults.
type TSNEOptions struct {
	Perplexity   float64
	Iterations   int
	LearningRate float64
	Seed         int64
}

const (
	maxPerplexity        = 30
	defaultTSNEIters     = 500
	defaultLearningRate  = 200
	exaggerationIters    = 100
	earlyExaggeration    = 12
	momentumSwitchIter   = 250
	perplexitySearchIter = 50
	minGain              = 0.01
)

// PerplexityFor returns the neighborhood size used for n points: min(30, n-1).
func PerplexityFor(n int) float64 {
	p := float64(n - 1)
	if p > maxPerplexity {
		p = maxPerplexity
	}
	if p < 1 {
		p = 1
	}
	return p
}

// Project2D embeds the rows of X in two dimensions with exact t-SNE. The result is
// deterministic for a given seed.
func Project2D(ctx context.Context, X [][]float64, opts TSNEOptions) ([][2]float64, error) {
	n := len(X)
	out := make([][2]float64, n)
	if n < 2 {
		return out, nil
	}
	if opts.Perplexity <= 0 || opts.Perplexity > float64(n-1) {
		opts.Perplexity = PerplexityFor(n)
	}
	if opts.Iterations <= 0 {
		opts.Iterations = defaultTSNEIters
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = defaultLearningRate
	}

	P := jointProbabilities(squaredDistances(X), opts.Perplexity)

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec
	Y := make([][2]float64, n)
	for i := range Y {
		Y[i] = [2]float64{rng.NormFloat64() * 1e-4, rng.NormFloat64() * 1e-4}
	}
	update := make([][2]float64, n)
	gains := make([][2]float64, n)
	for i := range gains {
		gains[i] = [2]float64{1, 1}
	}

	num := mat.NewDense(n, n, nil)
	for iter := 0; iter < opts.Iterations; iter++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		exaggeration := 1.0
		if iter < exaggerationIters {
			exaggeration = earlyExaggeration
		}
		momentum := 0.5
		if iter >= momentumSwitchIter {
			momentum = 0.8
		}

		// Student-t affinities in the embedding
		var sumQ float64
		for i := 0; i < n; i++ {
			num.Set(i, i, 0)
			for j := i + 1; j < n; j++ {
				dx := Y[i][0] - Y[j][0]
				dy := Y[i][1] - Y[j][1]
				q := 1 / (1 + dx*dx + dy*dy)
				num.Set(i, j, q)
				num.Set(j, i, q)
				sumQ += 2 * q
			}
		}
		if sumQ == 0 {
			sumQ = math.SmallestNonzeroFloat64
		}

		for i := 0; i < n; i++ {
			var grad [2]float64
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := num.At(i, j)
				mult := 4 * (exaggeration*P.At(i, j) - q/sumQ) * q
				grad[0] += mult * (Y[i][0] - Y[j][0])
				grad[1] += mult * (Y[i][1] - Y[j][1])
			}
			for d := 0; d < 2; d++ {
				if (grad[d] > 0) != (update[i][d] > 0) {
					gains[i][d] += 0.2
				} else {
					gains[i][d] *= 0.8
				}
				if gains[i][d] < minGain {
					gains[i][d] = minGain
				}
				update[i][d] = momentum*update[i][d] - opts.LearningRate*gains[i][d]*grad[d]
			}
		}
		for i := range Y {
			Y[i][0] += update[i][0]
			Y[i][1] += update[i][1]
		}
		center(Y)
	}

	copy(out, Y)
	return out, nil
}

// squaredDistances returns ||x_i - x_j||^2 for all pairs.
func squaredDistances(X [][]float64) *mat.Dense {
	n := len(X)
	d := len(X[0])
	data := mat.NewDense(n, d, nil)
	sq := make([]float64, n)
	for i, row := range X {
		data.SetRow(i, row)
		sq[i] = floats.Dot(row, row)
	}

	var gram mat.Dense
	gram.Mul(data, data.T())

	dist := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := sq[i] + sq[j] - 2*gram.At(i, j)
			if v < 0 || i == j {
				v = 0
			}
			dist.Set(i, j, v)
		}
	}
	return dist
}

// jointProbabilities calibrates a Gaussian per point to the target perplexity by binary search
// on its precision and returns the symmetrized affinity matrix.
func jointProbabilities(dist *mat.Dense, perplexity float64) *mat.Dense {
	n, _ := dist.Dims()
	target := math.Log(perplexity)
	cond := mat.NewDense(n, n, nil)
	row := make([]float64, n)

	for i := 0; i < n; i++ {
		beta, lo, hi := 1.0, 0.0, math.Inf(1)
		for step := 0; step < perplexitySearchIter; step++ {
			var sum, weighted float64
			for j := 0; j < n; j++ {
				if j == i {
					row[j] = 0
					continue
				}
				row[j] = math.Exp(-dist.At(i, j) * beta)
				sum += row[j]
				weighted += dist.At(i, j) * row[j]
			}
			if sum == 0 {
				sum = math.SmallestNonzeroFloat64
			}
			entropy := math.Log(sum) + beta*weighted/sum
			if math.Abs(entropy-target) < 1e-5 {
				break
			}
			if entropy > target {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				beta = (beta + lo) / 2
			}
		}
		s := floats.Sum(row)
		if s > 0 {
			floats.Scale(1/s, row)
		}
		cond.SetRow(i, row)
	}

	P := mat.NewDense(n, n, nil)
	P.Add(cond, cond.T())
	total := mat.Sum(P)
	if total > 0 {
		P.Scale(1/total, P)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if P.At(i, j) < 1e-12 {
				P.Set(i, j, 1e-12)
			}
		}
	}
	return P
}

func center(Y [][2]float64) {
	var mx, my float64
	for _, p := range Y {
		mx += p[0]
		my += p[1]
	}
	mx /= float64(len(Y))
	my /= float64(len(Y))
	for i := range Y {
		Y[i][0] -= mx
		Y[i][1] -= my
	}
}
