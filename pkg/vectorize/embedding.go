package vectorize

import (
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"

	"github.com/getzep/textlab/pkg/models"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// maxEmbeddingVocab bounds the co-occurrence matrix handed to the SVD.
const maxEmbeddingVocab = 2000

var errSVDFailed = errors.New("singular value decomposition did not converge")

// embeddingVectorizer learns word vectors from the fit corpus (positive PMI over a symmetric
// co-occurrence window, reduced with a truncated SVD) and represents a document as the mean of
// its in-vocabulary word vectors.
//
// With noise > 0 it becomes the document-embedding baseline: a small perturbation seeded from
// a hash of the text is added to the average. This is a naive approximation of a document
// model, not a trained one. The perturbation is deterministic per text.
type embeddingVectorizer struct {
	method      models.RepresentationMethod
	dim         int
	window      int
	minCount    int
	maxFeatures int
	noise       float64
	vocab       []string
	index       map[string]int
	vectors     [][]float64
	fitted      bool
}

func newEmbeddingVectorizer(
	method models.RepresentationMethod,
	opts Options,
	noise float64,
) *embeddingVectorizer {
	maxFeatures := opts.MaxFeatures
	if maxFeatures == 0 || maxFeatures > maxEmbeddingVocab {
		maxFeatures = maxEmbeddingVocab
	}
	return &embeddingVectorizer{
		method:      method,
		dim:         opts.EmbeddingDim,
		window:      opts.Window,
		minCount:    opts.MinCount,
		maxFeatures: maxFeatures,
		noise:       noise,
	}
}

func restoreEmbeddingVectorizer(state models.VectorizerState) *embeddingVectorizer {
	vectors := make([][]float64, len(state.Embeddings))
	for i, e := range state.Embeddings {
		vectors[i] = append([]float64(nil), e...)
	}
	return &embeddingVectorizer{
		method:  state.Method,
		dim:     state.Dim,
		noise:   state.Noise,
		vocab:   append([]string(nil), state.Vocabulary...),
		index:   indexOf(state.Vocabulary),
		vectors: vectors,
		fitted:  true,
	}
}

func (v *embeddingVectorizer) Method() models.RepresentationMethod {
	return v.method
}

func (v *embeddingVectorizer) Fit(corpus []string) error {
	docs := make([][]string, len(corpus))
	for i, text := range corpus {
		docs[i] = tokens(text)
	}
	vocab, _ := buildVocabulary(docs, v.maxFeatures, v.minCount)
	if len(vocab) == 0 {
		return ErrEmptyVocabulary
	}
	index := indexOf(vocab)

	ppmi := v.ppmi(docs, index)
	vectors, err := truncatedSVD(ppmi, v.dim)
	if err != nil {
		return err
	}

	v.vocab = vocab
	v.index = index
	v.vectors = vectors
	v.fitted = true
	return nil
}

// ppmi builds the positive pointwise mutual information matrix of windowed co-occurrences.
func (v *embeddingVectorizer) ppmi(docs [][]string, index map[string]int) *mat.Dense {
	n := len(index)
	counts := mat.NewDense(n, n, nil)
	for _, doc := range docs {
		for i, w := range doc {
			wi, ok := index[w]
			if !ok {
				continue
			}
			lo := i - v.window
			if lo < 0 {
				lo = 0
			}
			hi := i + v.window
			if hi >= len(doc) {
				hi = len(doc) - 1
			}
			for j := lo; j <= hi; j++ {
				if j == i {
					continue
				}
				if cj, ok := index[doc[j]]; ok {
					counts.Set(wi, cj, counts.At(wi, cj)+1)
				}
			}
		}
	}

	rowSums := make([]float64, n)
	colSums := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := counts.At(i, j)
			rowSums[i] += c
			colSums[j] += c
			total += c
		}
	}
	if total == 0 {
		return counts
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := counts.At(i, j)
			if c == 0 {
				continue
			}
			pmi := math.Log(c * total / (rowSums[i] * colSums[j]))
			if pmi < 0 {
				pmi = 0
			}
			counts.Set(i, j, pmi)
		}
	}
	return counts
}

// truncatedSVD returns the rows of U_k * sqrt(S_k). When the matrix has rank below dim the
// remaining columns are zero so every vector has exactly dim entries. Column signs are fixed so
// the largest magnitude entry is positive.
func truncatedSVD(m *mat.Dense, dim int) ([][]float64, error) {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, dim)
	}
	if mat.Norm(m, 2) == 0 {
		return out, nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, models.NewStageError("represent", -1, errSVDFailed)
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	k := dim
	if len(values) < k {
		k = len(values)
	}
	for c := 0; c < k; c++ {
		scale := math.Sqrt(values[c])
		sign := 1.0
		var maxAbs float64
		for r := 0; r < rows; r++ {
			if a := math.Abs(u.At(r, c)); a > maxAbs {
				maxAbs = a
				if u.At(r, c) < 0 {
					sign = -1
				} else {
					sign = 1
				}
			}
		}
		for r := 0; r < rows; r++ {
			out[r][c] = sign * scale * u.At(r, c)
		}
	}
	return out, nil
}

func (v *embeddingVectorizer) Transform(text string) []float64 {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	vec := make([]float64, v.dim)
	var found int
	for _, t := range tokens(text) {
		if i, ok := v.index[t]; ok {
			vek.Add_Inplace(vec, v.vectors[i])
			found++
		}
	}
	if found > 0 {
		vek.DivNumber_Inplace(vec, float64(found))
	}
	if v.noise > 0 && text != "" {
		rng := rand.New(rand.NewSource(textSeed(text))) //nolint:gosec
		for i := range vec {
			vec[i] += rng.NormFloat64() * v.noise
		}
	}
	return vec
}

func textSeed(text string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return int64(h.Sum64())
}

func (v *embeddingVectorizer) TransformMany(texts []string) [][]float64 {
	return transformMany(v, texts)
}

func (v *embeddingVectorizer) Width() int {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return v.dim
}

// Features names the embedding dimensions dim_0 .. dim_{n-1}.
func (v *embeddingVectorizer) Features() []string {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	names := make([]string, v.dim)
	for i := range names {
		names[i] = "dim_" + strconv.Itoa(i)
	}
	return names
}

func (v *embeddingVectorizer) State() models.VectorizerState {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	vectors := make([][]float64, len(v.vectors))
	for i, e := range v.vectors {
		vectors[i] = append([]float64(nil), e...)
	}
	return models.VectorizerState{
		Method:     v.method,
		Vocabulary: append([]string(nil), v.vocab...),
		Embeddings: vectors,
		Dim:        v.dim,
		Noise:      v.noise,
	}
}
