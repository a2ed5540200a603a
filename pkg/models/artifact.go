package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactFormatVersion is written into every persisted artifact. Loaders accept any artifact
// whose major version matches.
const ArtifactFormatVersion = "1.0.0"

// PlaceholderAccuracy is reported in comparisons for algorithms with no trained artifact.
const PlaceholderAccuracy = 0.0

// FeatureImportance is one entry of EvaluationReport.TopFeatures.
type FeatureImportance struct {
	Feature    string  `json:"feature"    msgpack:"feature"`
	Importance float64 `json:"importance" msgpack:"importance"`
}

// ProjectedPoint is one test record projected to 2-D.
type ProjectedPoint struct {
	X     float64 `json:"x"     msgpack:"x"`
	Y     float64 `json:"y"     msgpack:"y"`
	Label string  `json:"label" msgpack:"label"`
}

// EvaluationReport holds the test-split metrics computed once at training time.
// TopFeatures is set only for linear-family algorithms, ClusterProjection only for
// instance-based ones.
type EvaluationReport struct {
	Accuracy          float64             `json:"accuracy"                     msgpack:"accuracy"`
	Labels            []string            `json:"labels"                       msgpack:"labels"`
	ConfusionMatrix   [][]int             `json:"confusion_matrix"             msgpack:"confusion_matrix"`
	TopFeatures       []FeatureImportance `json:"top_features,omitempty"       msgpack:"top_features,omitempty"`
	ClusterProjection []ProjectedPoint    `json:"cluster_projection,omitempty" msgpack:"cluster_projection,omitempty"`
	TrainSize         int                 `json:"train_size"                   msgpack:"train_size"`
	TestSize          int                 `json:"test_size"                    msgpack:"test_size"`
	FeatureCount      int                 `json:"feature_count"                msgpack:"feature_count"`
}

// VectorizerState is the fitted state of a representation. Which fields are populated depends
// on Method.
type VectorizerState struct {
	Method     RepresentationMethod `msgpack:"method"`
	Vocabulary []string             `msgpack:"vocabulary"`
	IDF        []float64            `msgpack:"idf,omitempty"`
	Embeddings [][]float64          `msgpack:"embeddings,omitempty"`
	Dim        int                  `msgpack:"dim,omitempty"`
	Noise      float64              `msgpack:"noise,omitempty"`
}

// ClassifierState is the trained state of a classifier. Which fields are populated depends on
// Algorithm.
type ClassifierState struct {
	Algorithm      Algorithm   `msgpack:"algorithm"`
	Hyperparameter float64     `msgpack:"hyperparameter"`
	NumClasses     int         `msgpack:"num_classes"`
	NumFeatures    int         `msgpack:"num_features"`
	ClassLogPrior  []float64   `msgpack:"class_log_prior,omitempty"`
	FeatureLogProb [][]float64 `msgpack:"feature_log_prob,omitempty"`
	Coef           [][]float64 `msgpack:"coef,omitempty"`
	Intercept      []float64   `msgpack:"intercept,omitempty"`
	TrainX         [][]float64 `msgpack:"train_x,omitempty"`
	TrainY         []int       `msgpack:"train_y,omitempty"`
}

// ModelArtifact is a trained (representation, classifier) pair for one task and algorithm.
// Artifacts are replaced wholesale on retraining, never patched.
type ModelArtifact struct {
	ID             uuid.UUID            `msgpack:"id"`
	FormatVersion  string               `msgpack:"format_version"`
	TaskID         string               `msgpack:"task_id"`
	Algorithm      Algorithm            `msgpack:"algorithm"`
	Representation RepresentationMethod `msgpack:"representation"`
	Normalization  NormalizationOptions `msgpack:"normalization"`
	Hyperparameter float64              `msgpack:"hyperparameter"`
	Classes        []string             `msgpack:"classes"`
	TrainedAt      time.Time            `msgpack:"trained_at"`
	DatasetName    string               `msgpack:"dataset_name"`
	Metrics        EvaluationReport     `msgpack:"metrics"`
	Vectorizer     VectorizerState      `msgpack:"vectorizer"`
	Classifier     ClassifierState      `msgpack:"classifier"`
}

// Summary returns the listing view of the artifact.
func (a *ModelArtifact) Summary(active bool) ArtifactSummary {
	return ArtifactSummary{
		ID:             a.ID,
		TaskID:         a.TaskID,
		Algorithm:      a.Algorithm,
		Representation: a.Representation,
		Hyperparameter: a.Hyperparameter,
		Accuracy:       a.Metrics.Accuracy,
		TrainedAt:      a.TrainedAt,
		DatasetName:    a.DatasetName,
		Active:         active,
	}
}

// ArtifactSummary describes a stored artifact without its fitted state.
type ArtifactSummary struct {
	ID             uuid.UUID            `json:"id"`
	TaskID         string               `json:"task_id"`
	Algorithm      Algorithm            `json:"algorithm"`
	Representation RepresentationMethod `json:"representation"`
	Hyperparameter float64              `json:"hyperparameter"`
	Accuracy       float64              `json:"accuracy"`
	TrainedAt      time.Time            `json:"trained_at"`
	DatasetName    string               `json:"dataset_name,omitempty"`
	Active         bool                 `json:"active"`
	SizeBytes      int                  `json:"size_bytes,omitempty"`
}

// TrainRequest selects what to train. A nil Hyperparameter means the algorithm default; any
// other value, zero included, is validated and used as given.
type TrainRequest struct {
	TaskID         string
	Algorithm      Algorithm
	Representation RepresentationMethod
	Hyperparameter *float64
	Normalization  NormalizationOptions
}

// Prediction is the result of classifying one text. Confidence is nil for algorithms without
// class probabilities.
type Prediction struct {
	TaskID     string    `json:"task_id"`
	Algorithm  Algorithm `json:"algorithm"`
	Label      string    `json:"label"`
	RawLabel   string    `json:"raw_label"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// ComparisonEntry is one row of a Comparison. Untrained algorithms carry PlaceholderAccuracy and
// no prediction.
type ComparisonEntry struct {
	Algorithm  Algorithm `json:"algorithm"`
	Trained    bool      `json:"trained"`
	Accuracy   float64   `json:"accuracy"`
	Prediction string    `json:"prediction,omitempty"`
	RawLabel   string    `json:"raw_label,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	TrainedAt  time.Time `json:"trained_at,omitempty"`
}

// Comparison reports every candidate algorithm's stored accuracy and live prediction.
type Comparison struct {
	TaskID  string            `json:"task_id"`
	Text    string            `json:"text"`
	Entries []ComparisonEntry `json:"entries"`
	Best    Algorithm         `json:"best,omitempty"`
}
