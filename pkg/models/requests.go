package models

import (
	"time"

	"github.com/google/uuid"
)

type NormalizeRequest struct {
	Records []Record       `json:"records" validate:"required,min=1"`
	Options map[string]any `json:"options,omitempty"`
}

type NormalizeResponse struct {
	Records []CleanedRecord `json:"records"`
}

// RepresentRequest vectorizes records. Options, when set, normalizes the text first.
type RepresentRequest struct {
	Records     []Record       `json:"records"                validate:"required,min=1"`
	Method      string         `json:"method"                 validate:"required"`
	MaxFeatures int            `json:"max_features,omitempty" validate:"gte=0"`
	Options     map[string]any `json:"options,omitempty"`
}

type RepresentResponse struct {
	Method   RepresentationMethod `json:"method"`
	Features []string             `json:"features"`
	Records  []RepresentedRecord  `json:"records"`
}

type AugmentRequest struct {
	Records     []Record `json:"records"               validate:"required,min=1"`
	Method      string   `json:"method"                validate:"required"`
	Probability float64  `json:"probability,omitempty" validate:"gte=0,lte=1"`
	Seed        int64    `json:"seed,omitempty"`
}

type AugmentResponse struct {
	Method  string   `json:"method"`
	Records []Record `json:"records"`
}

type DatasetStatsResponse struct {
	Name string `json:"name,omitempty"`
	DatasetStats
}

// TrainRequestBody is the JSON form of a training request. Uploads pass the same fields as
// query parameters.
type TrainRequestBody struct {
	Algorithm      string           `json:"algorithm"                 validate:"required"`
	Representation string           `json:"representation"            validate:"required"`
	Hyperparameter *float64         `json:"hyperparameter,omitempty"  validate:"omitempty,gte=0"`
	Options        map[string]any   `json:"options,omitempty"`
	Async          bool             `json:"async,omitempty"`
	Activate       bool             `json:"activate,omitempty"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty" validate:"gte=0"`
	DatasetName    string           `json:"dataset_name,omitempty"`
	Data           []map[string]any `json:"data"                      validate:"required,min=1"`
}

type TrainResponse struct {
	Model   ArtifactSummary  `json:"model"`
	Metrics EvaluationReport `json:"metrics"`
}

type TrainJobResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status JobStatus `json:"status"`
}

// ModelDetail is an artifact without its fitted state.
type ModelDetail struct {
	ID             uuid.UUID            `json:"id"`
	TaskID         string               `json:"task_id"`
	Algorithm      Algorithm            `json:"algorithm"`
	Representation RepresentationMethod `json:"representation"`
	Normalization  NormalizationOptions `json:"normalization"`
	Hyperparameter float64              `json:"hyperparameter"`
	Classes        []string             `json:"classes"`
	TrainedAt      time.Time            `json:"trained_at"`
	DatasetName    string               `json:"dataset_name,omitempty"`
	FormatVersion  string               `json:"format_version"`
	Metrics        EvaluationReport     `json:"metrics"`
	Active         bool                 `json:"active"`
}

type PredictRequest struct {
	Text      string `json:"text"`
	Algorithm string `json:"algorithm,omitempty"`
}

type CompareRequest struct {
	Text       string   `json:"text"`
	Algorithms []string `json:"algorithms,omitempty"`
}
