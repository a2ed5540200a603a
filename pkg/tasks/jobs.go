package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getzep/textlab/pkg/models"
)

// Force compiler to validate that MemoryJobRegistry implements the JobRegistry interface.
var _ models.JobRegistry = &MemoryJobRegistry{}

// MemoryJobRegistry keeps job status in process memory. Finished jobs older than Retention are
// pruned when new jobs are created.
type MemoryJobRegistry struct {
	Retention time.Duration

	mu   sync.RWMutex
	jobs map[uuid.UUID]*models.TrainJob
}

func NewMemoryJobRegistry(retention time.Duration) *MemoryJobRegistry {
	return &MemoryJobRegistry{
		Retention: retention,
		jobs:      make(map[uuid.UUID]*models.TrainJob),
	}
}

func (r *MemoryJobRegistry) Create(taskID string, algorithm models.Algorithm) *models.TrainJob {
	now := time.Now().UTC()
	job := &models.TrainJob{
		ID:        uuid.New(),
		TaskID:    taskID,
		Algorithm: algorithm,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(now)
	r.jobs[job.ID] = job

	cp := *job
	return &cp
}

func (r *MemoryJobRegistry) Get(id uuid.UUID) (*models.TrainJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, models.NewNotFoundError("job " + id.String())
	}
	cp := *job
	return &cp, nil
}

// Update records a status change. Unknown ids are ignored, as a job may have been pruned.
func (r *MemoryJobRegistry) Update(
	id uuid.UUID,
	status models.JobStatus,
	metrics *models.EvaluationReport,
	err error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.UpdatedAt = time.Now().UTC()
	if metrics != nil {
		job.Metrics = metrics
	}
	job.Error = ""
	if err != nil {
		job.Error = err.Error()
	}
}

func (r *MemoryJobRegistry) prune(now time.Time) {
	if r.Retention <= 0 {
		return
	}
	for id, job := range r.jobs {
		if job.Status.Done() && now.Sub(job.UpdatedAt) > r.Retention {
			delete(r.jobs, id)
		}
	}
}
