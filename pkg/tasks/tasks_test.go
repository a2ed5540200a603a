package tasks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/store/filestore"
	"github.com/getzep/textlab/pkg/testutils"
)

func newAppState(t *testing.T) *models.AppState {
	t.Helper()
	cfg := config.Defaults()
	cfg.Store.File.Root = t.TempDir()

	st, err := filestore.NewFileStore(cfg.Store.File.Root)
	require.NoError(t, err)

	return &models.AppState{
		ArtifactStore: st,
		Catalog:       models.DefaultCatalog(),
		Jobs:          NewMemoryJobRegistry(time.Hour),
		Config:        &cfg,
	}
}

func trainPayload(job *models.TrainJob, records []models.Record) models.TrainJobPayload {
	return models.TrainJobPayload{
		JobID:          job.ID,
		TaskID:         job.TaskID,
		DatasetName:    "synthetic",
		Algorithm:      job.Algorithm,
		Representation: models.RepresentationBagOfWords,
		Records:        records,
	}
}

func newMessage(t *testing.T, payload any) *message.Message {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), b)
}

func TestModelTrainerTask_Execute(t *testing.T) {
	ctx := context.Background()
	appState := newAppState(t)
	task := NewModelTrainerTask(appState)

	job := appState.Jobs.Create(models.TaskSentiment, models.AlgorithmNaiveBayes)
	assert.Equal(t, models.JobQueued, job.Status)

	msg := newMessage(t, trainPayload(job, testutils.GenerateCorpus(40, nil, 5)))
	require.NoError(t, task.Execute(ctx, msg))

	got, err := appState.Jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSucceeded, got.Status)
	require.NotNil(t, got.Metrics)
	assert.Equal(t, 40, got.Metrics.TrainSize+got.Metrics.TestSize)

	a, err := appState.ArtifactStore.Load(ctx, models.TaskSentiment, models.AlgorithmNaiveBayes)
	require.NoError(t, err)
	assert.Equal(t, models.RepresentationBagOfWords, a.Representation)
}

func TestModelTrainerTask_ValidationFailureIsNotRetried(t *testing.T) {
	appState := newAppState(t)
	task := NewModelTrainerTask(appState)

	job := appState.Jobs.Create(models.TaskSentiment, models.AlgorithmSVM)
	records := testutils.GenerateCorpus(10, []string{"positive"}, 5)
	require.NoError(t, task.Execute(context.Background(), newMessage(t, trainPayload(job, records))))

	got, err := appState.Jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.Contains(t, got.Error, "two distinct labels")
}

func TestModelTrainerTask_Activate(t *testing.T) {
	ctx := context.Background()
	appState := newAppState(t)
	task := NewModelTrainerTask(appState)
	records := testutils.GenerateCorpus(30, nil, 2)

	first := appState.Jobs.Create(models.TaskSentiment, models.AlgorithmNaiveBayes)
	require.NoError(t, task.Execute(ctx, newMessage(t, trainPayload(first, records))))

	second := appState.Jobs.Create(models.TaskSentiment, models.AlgorithmLogisticRegression)
	payload := trainPayload(second, records)
	payload.Activate = true
	require.NoError(t, task.Execute(ctx, newMessage(t, payload)))

	active, err := appState.ArtifactStore.Active(ctx, models.TaskSentiment)
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmLogisticRegression, active)
}

func TestRunTaskRouter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	appState := newAppState(t)
	router, publisher, err := NewChannelQueue()
	require.NoError(t, err)

	RunTaskRouter(ctx, appState, router, publisher)
	require.NotNil(t, appState.TaskRouter)
	require.NotNil(t, appState.TaskPublisher)
	assert.True(t, appState.TaskRouter.IsRunning())

	job := appState.Jobs.Create(models.TaskSpam, models.AlgorithmKNN)
	err = appState.TaskPublisher.Publish(
		models.ModelTrainerTopic,
		map[string]string{"task_id": job.TaskID},
		trainPayload(job, testutils.GenerateCorpus(30, []string{"ham", "spam"}, 9)),
	)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, err := appState.Jobs.Get(job.ID)
		return err == nil && got.Status.Done()
	}, 20*time.Second, 100*time.Millisecond)

	got, err := appState.Jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobSucceeded, got.Status, got.Error)

	require.NoError(t, appState.TaskRouter.Close())
}

func TestMemoryJobRegistry(t *testing.T) {
	r := NewMemoryJobRegistry(time.Millisecond)

	_, err := r.Get(uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	job := r.Create(models.TaskTopicClassification, models.AlgorithmSVM)
	job.Status = models.JobSucceeded
	stored, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, stored.Status)

	r.Update(job.ID, models.JobTimedOut, nil, models.ErrTrainingTimeout)
	stored, err = r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobTimedOut, stored.Status)
	assert.Equal(t, models.ErrTrainingTimeout.Error(), stored.Error)

	// finished jobs past retention are pruned on the next Create
	time.Sleep(5 * time.Millisecond)
	r.Create(models.TaskTopicClassification, models.AlgorithmKNN)
	_, err = r.Get(job.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	r.Update(job.ID, models.JobFailed, nil, nil)
}
