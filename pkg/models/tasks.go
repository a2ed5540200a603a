package models

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type TaskTopic string

const (
	ModelTrainerTopic TaskTopic = "model_trainer"
)

type Task interface {
	Execute(ctx context.Context, event *message.Message) error
	HandleError(err error)
}

type TaskRouter interface {
	Run(ctx context.Context) error
	AddTask(ctx context.Context, name string, taskType TaskTopic, task Task)
	RunHandlers(ctx context.Context) error
	IsRunning() bool
	Close() error
}

type TaskPublisher interface {
	Publish(taskType TaskTopic, metadata map[string]string, payload any) error
	Close() error
}

// TrainJobPayload is the message body published to ModelTrainerTopic.
type TrainJobPayload struct {
	JobID          uuid.UUID            `json:"job_id"`
	TaskID         string               `json:"task_id"`
	DatasetName    string               `json:"dataset_name"`
	Algorithm      Algorithm            `json:"algorithm"`
	Representation RepresentationMethod `json:"representation"`
	Hyperparameter *float64             `json:"hyperparameter,omitempty"`
	Normalization  NormalizationOptions `json:"normalization"`
	Records        []Record             `json:"records"`
	TimeoutSeconds int                  `json:"timeout_seconds,omitempty"`
	Activate       bool                 `json:"activate"`
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
)

// Done reports whether the job has finished, successfully or not.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed || s == JobTimedOut
}

// TrainJob tracks one asynchronous training request.
type TrainJob struct {
	ID        uuid.UUID         `json:"id"`
	TaskID    string            `json:"task_id"`
	Algorithm Algorithm         `json:"algorithm"`
	Status    JobStatus         `json:"status"`
	Error     string            `json:"error,omitempty"`
	Metrics   *EvaluationReport `json:"metrics,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// JobRegistry records the status of asynchronous training jobs.
type JobRegistry interface {
	Create(taskID string, algorithm Algorithm) *TrainJob
	Get(id uuid.UUID) (*TrainJob, error)
	Update(id uuid.UUID, status JobStatus, metrics *EvaluationReport, err error)
}
