package models

import (
	"context"
)

// ArtifactStore persists ModelArtifacts keyed by (task id, algorithm). Save replaces any artifact
// under the same key atomically. Load of a missing key returns an error wrapping ErrNotTrained;
// I/O and decode failures are storage errors.
type ArtifactStore interface {
	Save(ctx context.Context, artifact *ModelArtifact) error
	Load(ctx context.Context, taskID string, algorithm Algorithm) (*ModelArtifact, error)
	Delete(ctx context.Context, taskID string, algorithm Algorithm) error
	// List returns summaries of every artifact stored for the task.
	List(ctx context.Context, taskID string) ([]ArtifactSummary, error)
	// SetActive selects the algorithm used for live predictions of a task. The artifact must exist.
	SetActive(ctx context.Context, taskID string, algorithm Algorithm) error
	// Active returns the active algorithm of a task, or an error wrapping ErrNotTrained.
	Active(ctx context.Context, taskID string) (Algorithm, error)
	// Close is called when the application is shutting down.
	Close() error
}

// ArtifactVersioner is implemented by stores that can report which artifact is stored under a
// key without decoding it. The version changes whenever the artifact is replaced, including by
// another process sharing the store.
type ArtifactVersioner interface {
	Version(ctx context.Context, taskID string, algorithm Algorithm) (string, error)
}

// ModelTrainer trains an artifact from a dataset.
type ModelTrainer interface {
	Train(ctx context.Context, ds *Dataset, req TrainRequest) (*ModelArtifact, error)
}

// Inference answers predictions from stored artifacts.
type Inference interface {
	Predict(ctx context.Context, taskID, text string) (*Prediction, error)
	PredictWith(ctx context.Context, taskID string, algorithm Algorithm, text string) (*Prediction, error)
	Compare(ctx context.Context, taskID, text string, candidates []Algorithm) (*Comparison, error)
}
