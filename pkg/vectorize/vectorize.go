package vectorize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getzep/textlab/pkg/models"
)

// ErrNotFitted is the panic value when a vectorizer is used before Fit. Using an unfitted
// vectorizer is a programming error, not a recoverable condition.
var ErrNotFitted = errors.New("vectorizer used before fit")

// ErrEmptyVocabulary is returned by Fit when the corpus contains no usable tokens.
var ErrEmptyVocabulary = models.NewValidationError("corpus produced an empty vocabulary")

// Vectorizer maps text to fixed-width numeric vectors. Width is frozen by Fit; every Transform
// afterwards returns exactly Width values, including for out-of-vocabulary text.
type Vectorizer interface {
	Method() models.RepresentationMethod
	Fit(corpus []string) error
	Transform(text string) []float64
	TransformMany(texts []string) [][]float64
	Width() int
	// Features names each vector dimension.
	Features() []string
	State() models.VectorizerState
}

type Options struct {
	// MaxFeatures caps the vocabulary by document frequency. Zero means no cap.
	MaxFeatures  int     `mapstructure:"max_features"`
	EmbeddingDim int     `mapstructure:"embedding_dim"`
	Window       int     `mapstructure:"window"`
	MinCount     int     `mapstructure:"min_count"`
	Noise        float64 `mapstructure:"noise"`
}

func DefaultOptions() Options {
	return Options{
		MaxFeatures:  5000,
		EmbeddingDim: 50,
		Window:       2,
		MinCount:     1,
		Noise:        0.01,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFeatures < 0 {
		o.MaxFeatures = 0
	}
	if o.EmbeddingDim <= 0 {
		o.EmbeddingDim = d.EmbeddingDim
	}
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.MinCount <= 0 {
		o.MinCount = d.MinCount
	}
	if o.Noise < 0 {
		o.Noise = 0
	}
	return o
}

// New returns an unfitted vectorizer for method.
func New(method models.RepresentationMethod, opts Options) (Vectorizer, error) {
	opts = opts.withDefaults()
	switch method {
	case models.RepresentationOneHot:
		return newCountVectorizer(method, 1, true, 0), nil
	case models.RepresentationBagOfWords:
		return newCountVectorizer(method, 1, false, opts.MaxFeatures), nil
	case models.RepresentationNGram:
		return newCountVectorizer(method, 2, false, opts.MaxFeatures), nil
	case models.RepresentationTFIDF:
		return newTFIDFVectorizer(opts.MaxFeatures), nil
	case models.RepresentationAveragedEmbedding:
		return newEmbeddingVectorizer(method, opts, 0), nil
	case models.RepresentationDocumentEmbedding:
		return newEmbeddingVectorizer(method, opts, opts.Noise), nil
	default:
		return nil, models.NewValidationError("unsupported representation method: %q", method)
	}
}

// FromState restores a fitted vectorizer.
func FromState(state models.VectorizerState) (Vectorizer, error) {
	var v Vectorizer
	switch state.Method {
	case models.RepresentationOneHot, models.RepresentationBagOfWords, models.RepresentationNGram:
		v = restoreCountVectorizer(state)
	case models.RepresentationTFIDF:
		if len(state.IDF) != len(state.Vocabulary) {
			return nil, fmt.Errorf(
				"corrupt tf-idf state: %d idf weights for %d terms",
				len(state.IDF),
				len(state.Vocabulary),
			)
		}
		v = restoreTFIDFVectorizer(state)
	case models.RepresentationAveragedEmbedding, models.RepresentationDocumentEmbedding:
		if len(state.Embeddings) != len(state.Vocabulary) {
			return nil, fmt.Errorf(
				"corrupt embedding state: %d vectors for %d terms",
				len(state.Embeddings),
				len(state.Vocabulary),
			)
		}
		v = restoreEmbeddingVectorizer(state)
	default:
		return nil, fmt.Errorf("unsupported representation method in state: %q", state.Method)
	}
	return v, nil
}

// tokens splits pre-normalized text on whitespace.
func tokens(text string) []string {
	return strings.Fields(text)
}

func transformMany(v Vectorizer, texts []string) [][]float64 {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = v.Transform(t)
	}
	return out
}
