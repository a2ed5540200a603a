package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/store"
	"github.com/getzep/textlab/pkg/training"
)

var _ models.Task = &ModelTrainerTask{}

// ModelTrainerTask trains and saves a model for each TrainJobPayload it receives and records
// the outcome in the job registry.
type ModelTrainerTask struct {
	BaseTask
	trainer models.ModelTrainer
}

// NewModelTrainerTask uses appState.Trainer so queued jobs share its concurrency limit. A
// trainer is built from config when the app state has none.
func NewModelTrainerTask(appState *models.AppState) *ModelTrainerTask {
	trainer := appState.Trainer
	if trainer == nil {
		trainer = training.NewTrainerFromConfig(appState.Config)
	}
	return &ModelTrainerTask{
		BaseTask: BaseTask{appState: appState},
		trainer:  trainer,
	}
}

// Execute returns an error, and so has the message retried, only for storage failures. A job
// that cannot succeed as submitted is marked failed and acked.
func (t *ModelTrainerTask) Execute(ctx context.Context, msg *message.Message) error {
	var payload models.TrainJobPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Errorf("ModelTrainerTask dropping malformed message %s: %v", msg.UUID, err)
		return nil
	}
	jobs := t.appState.Jobs
	jobs.Update(payload.JobID, models.JobRunning, nil, nil)

	timeout := time.Duration(payload.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = time.Duration(t.appState.Config.Train.TimeoutSeconds) * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ds := dataset.New(payload.DatasetName, payload.Records)
	artifact, err := t.trainer.Train(ctx, ds, models.TrainRequest{
		TaskID:         payload.TaskID,
		Algorithm:      payload.Algorithm,
		Representation: payload.Representation,
		Hyperparameter: payload.Hyperparameter,
		Normalization:  payload.Normalization,
	})
	if err != nil {
		status := models.JobFailed
		if errors.Is(err, models.ErrTrainingTimeout) {
			status = models.JobTimedOut
		}
		log.Warnf("ModelTrainerTask job %s: %v", payload.JobID, err)
		jobs.Update(payload.JobID, status, nil, err)
		return nil
	}

	if err := t.appState.ArtifactStore.Save(ctx, artifact); err != nil {
		jobs.Update(payload.JobID, models.JobFailed, nil, err)
		if errors.Is(err, store.ErrStorage) {
			return fmt.Errorf("ModelTrainerTask save failed: %w", err)
		}
		return nil
	}
	if payload.Activate {
		if err := t.appState.ArtifactStore.SetActive(ctx, artifact.TaskID, artifact.Algorithm); err != nil {
			jobs.Update(payload.JobID, models.JobFailed, nil, err)
			return fmt.Errorf("ModelTrainerTask activate failed: %w", err)
		}
	}

	jobs.Update(payload.JobID, models.JobSucceeded, &artifact.Metrics, nil)
	return nil
}
