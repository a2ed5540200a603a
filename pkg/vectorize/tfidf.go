package vectorize

import (
	"math"

	"github.com/getzep/textlab/pkg/models"
	"github.com/viterin/vek"
)

// tfidfVectorizer weights unigram counts by a smoothed inverse document frequency,
// idf(t) = ln((1+n)/(1+df(t))) + 1, and L2-normalizes each row.
type tfidfVectorizer struct {
	maxFeatures int
	vocab       []string
	index       map[string]int
	idf         []float64
	fitted      bool
}

func newTFIDFVectorizer(maxFeatures int) *tfidfVectorizer {
	return &tfidfVectorizer{maxFeatures: maxFeatures}
}

func restoreTFIDFVectorizer(state models.VectorizerState) *tfidfVectorizer {
	return &tfidfVectorizer{
		vocab:  append([]string(nil), state.Vocabulary...),
		index:  indexOf(state.Vocabulary),
		idf:    append([]float64(nil), state.IDF...),
		fitted: true,
	}
}

func (v *tfidfVectorizer) Method() models.RepresentationMethod {
	return models.RepresentationTFIDF
}

func (v *tfidfVectorizer) Fit(corpus []string) error {
	docs := make([][]string, len(corpus))
	for i, text := range corpus {
		docs[i] = tokens(text)
	}
	vocab, df := buildVocabulary(docs, v.maxFeatures, 1)
	if len(vocab) == 0 {
		return ErrEmptyVocabulary
	}

	n := float64(len(corpus))
	idf := make([]float64, len(vocab))
	for i, t := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	v.vocab = vocab
	v.index = indexOf(vocab)
	v.idf = idf
	v.fitted = true
	return nil
}

func (v *tfidfVectorizer) Transform(text string) []float64 {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	vec := make([]float64, len(v.vocab))
	for _, t := range tokens(text) {
		if i, ok := v.index[t]; ok {
			vec[i]++
		}
	}
	for i := range vec {
		if vec[i] != 0 {
			vec[i] *= v.idf[i]
		}
	}
	if norm := vek.Norm(vec); norm > 0 {
		vek.DivNumber_Inplace(vec, norm)
	}
	return vec
}

func (v *tfidfVectorizer) TransformMany(texts []string) [][]float64 {
	return transformMany(v, texts)
}

func (v *tfidfVectorizer) Width() int {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return len(v.vocab)
}

func (v *tfidfVectorizer) Features() []string {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return append([]string(nil), v.vocab...)
}

func (v *tfidfVectorizer) State() models.VectorizerState {
	if !v.fitted {
		panic(ErrNotFitted)
	}
	return models.VectorizerState{
		Method:     models.RepresentationTFIDF,
		Vocabulary: append([]string(nil), v.vocab...),
		IDF:        append([]float64(nil), v.idf...),
	}
}
