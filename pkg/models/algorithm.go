package models

import (
	"sort"
	"strings"
)

// Algorithm names a classification algorithm.
type Algorithm string

const (
	AlgorithmNaiveBayes         Algorithm = "naive-bayes"
	AlgorithmLogisticRegression Algorithm = "logistic-regression"
	AlgorithmSVM                Algorithm = "svm"
	AlgorithmKNN                Algorithm = "knn"
)

// Algorithms lists every supported algorithm in canonical order. Comparisons are reported in
// this order.
var Algorithms = []Algorithm{
	AlgorithmNaiveBayes,
	AlgorithmLogisticRegression,
	AlgorithmSVM,
	AlgorithmKNN,
}

var algorithmAliases = map[string]Algorithm{
	"naive-bayes":         AlgorithmNaiveBayes,
	"naive_bayes":         AlgorithmNaiveBayes,
	"naivebayes":          AlgorithmNaiveBayes,
	"nb":                  AlgorithmNaiveBayes,
	"logistic-regression": AlgorithmLogisticRegression,
	"logistic_regression": AlgorithmLogisticRegression,
	"logistic":            AlgorithmLogisticRegression,
	"svm":                 AlgorithmSVM,
	"knn":                 AlgorithmKNN,
}

// ParseAlgorithm resolves an algorithm name. Unknown names are a validation error, never a
// fallback to a default algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	a, ok := algorithmAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", NewValidationError("unsupported algorithm: %q", name)
	}
	return a, nil
}

// IsLinear reports whether the algorithm exposes per-feature importances.
func (a Algorithm) IsLinear() bool {
	return a == AlgorithmNaiveBayes || a == AlgorithmLogisticRegression
}

// IsInstanceBased reports whether the algorithm predicts from stored training instances.
func (a Algorithm) IsInstanceBased() bool {
	return a == AlgorithmKNN
}

// HasProbabilities reports whether predictions carry a class probability.
func (a Algorithm) HasProbabilities() bool {
	return a != AlgorithmSVM
}

// DefaultHyperparameter returns the value used when a request omits one.
func (a Algorithm) DefaultHyperparameter() float64 {
	switch a {
	case AlgorithmKNN:
		return 5
	default:
		return 1.0
	}
}

// HyperparameterName names the single scalar each algorithm accepts.
func (a Algorithm) HyperparameterName() string {
	switch a {
	case AlgorithmNaiveBayes:
		return "alpha"
	case AlgorithmKNN:
		return "k"
	default:
		return "C"
	}
}

// ValidateHyperparameter checks the range of the algorithm's hyperparameter.
func (a Algorithm) ValidateHyperparameter(v float64) error {
	switch a {
	case AlgorithmNaiveBayes:
		if v < 0 {
			return NewValidationError("alpha must be >= 0, got %v", v)
		}
	case AlgorithmLogisticRegression, AlgorithmSVM:
		if v <= 0 {
			return NewValidationError("C must be > 0, got %v", v)
		}
	case AlgorithmKNN:
		if v < 1 || v != float64(int(v)) {
			return NewValidationError("k must be a positive integer, got %v", v)
		}
	default:
		return NewValidationError("unsupported algorithm: %q", a)
	}
	return nil
}

// RepresentationMethod names a vectorization strategy.
type RepresentationMethod string

const (
	RepresentationOneHot            RepresentationMethod = "one-hot"
	RepresentationBagOfWords        RepresentationMethod = "bag-of-words"
	RepresentationTFIDF             RepresentationMethod = "tf-idf"
	RepresentationNGram             RepresentationMethod = "n-gram"
	RepresentationAveragedEmbedding RepresentationMethod = "averaged-embedding"
	RepresentationDocumentEmbedding RepresentationMethod = "document-embedding"
)

// RepresentationMethods lists every supported method.
var RepresentationMethods = []RepresentationMethod{
	RepresentationOneHot,
	RepresentationBagOfWords,
	RepresentationTFIDF,
	RepresentationNGram,
	RepresentationAveragedEmbedding,
	RepresentationDocumentEmbedding,
}

var representationAliases = map[string]RepresentationMethod{
	"one-hot":            RepresentationOneHot,
	"onehot":             RepresentationOneHot,
	"bag-of-words":       RepresentationBagOfWords,
	"bow":                RepresentationBagOfWords,
	"tf-idf":             RepresentationTFIDF,
	"tfidf":              RepresentationTFIDF,
	"n-gram":             RepresentationNGram,
	"ngram":              RepresentationNGram,
	"averaged-embedding": RepresentationAveragedEmbedding,
	"word2vec":           RepresentationAveragedEmbedding,
	"glove":              RepresentationAveragedEmbedding,
	"document-embedding": RepresentationDocumentEmbedding,
	"doc2vec":            RepresentationDocumentEmbedding,
}

// ParseRepresentationMethod resolves a representation name, rejecting unknown names.
func ParseRepresentationMethod(name string) (RepresentationMethod, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	m, ok := representationAliases[key]
	if !ok {
		return "", NewValidationError("unsupported representation method: %q", name)
	}
	return m, nil
}

// SortAlgorithms orders algorithms canonically. Unknown names sort last, by name.
func SortAlgorithms(algorithms []Algorithm) {
	rank := func(a Algorithm) int {
		for i, c := range Algorithms {
			if c == a {
				return i
			}
		}
		return len(Algorithms)
	}
	sort.SliceStable(algorithms, func(i, j int) bool {
		ri, rj := rank(algorithms[i]), rank(algorithms[j])
		if ri != rj {
			return ri < rj
		}
		return algorithms[i] < algorithms[j]
	})
}
