package vectorize

import (
	"github.com/getzep/textlab/pkg/models"
)

// countVectorizer implements one-hot (binary unigram), bag-of-words (unigram counts) and n-gram
// (bigram counts).
type countVectorizer struct {
	method      models.RepresentationMethod
	n           int
	binary      bool
	maxFeatures int
	vocab       []string
	index       map[string]int
	fitted      bool
}

func newCountVectorizer(
	method models.RepresentationMethod,
	n int,
	binary bool,
	maxFeatures int,
) *countVectorizer {
	return &countVectorizer{method: method, n: n, binary: binary, maxFeatures: maxFeatures}
}

func restoreCountVectorizer(state models.VectorizerState) *countVectorizer {
	v := newCountVectorizer(state.Method, 1, state.Method == models.RepresentationOneHot, 0)
	if state.Method == models.RepresentationNGram {
		v.n = 2
	}
	v.vocab = append([]string(nil), state.Vocabulary...)
	v.index = indexOf(v.vocab)
	v.fitted = true
	return v
}

func (v *countVectorizer) Method() models.RepresentationMethod {
	return v.method
}

func (v *countVectorizer) Fit(corpus []string) error {
	docs := make([][]string, len(corpus))
	for i, text := range corpus {
		docs[i] = terms(text, v.n)
	}
	vocab, _ := buildVocabulary(docs, v.maxFeatures, 1)
	if len(vocab) == 0 {
		return ErrEmptyVocabulary
	}
	v.vocab = vocab
	v.index = indexOf(vocab)
	v.fitted = true
	return nil
}

func (v *countVectorizer) Transform(text string) []float64 {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	vec := make([]float64, len(v.vocab))
	for _, t := range terms(text, v.n) {
		i, ok := v.index[t]
		if !ok {
			continue
		}
		if v.binary {
			vec[i] = 1
		} else {
			vec[i]++
		}
	}
	return vec
}

func (v *countVectorizer) TransformMany(texts []string) [][]float64 {
	return transformMany(v, texts)
}

func (v *countVectorizer) Width() int {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return len(v.vocab)
}

func (v *countVectorizer) Features() []string {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return append([]string(nil), v.vocab...)
}

func (v *countVectorizer) State() models.VectorizerState {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return models.VectorizerState{
		Method:     v.method,
		Vocabulary: append([]string(nil), v.vocab...),
	}
}
