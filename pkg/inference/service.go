package inference

import (
	"context"
	"errors"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/classify"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/textproc"
	"github.com/getzep/textlab/pkg/vectorize"
)

var log = internal.GetLogger()

const restoredModelCacheSize = 32

// Service answers predict and compare requests from stored artifacts.
type Service struct {
	store   models.ArtifactStore
	catalog *models.Catalog
	// fitted models restored from artifacts, keyed by artifact id
	restored *lru.Cache[uuid.UUID, *model]
}

// NewService returns a Service reading artifacts from store. Task ids are resolved with catalog.
func NewService(store models.ArtifactStore, catalog *models.Catalog) *Service {
	restored, err := lru.New[uuid.UUID, *model](restoredModelCacheSize)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Service{store: store, catalog: catalog, restored: restored}
}

// model is an artifact with its representation and classifier restored.
type model struct {
	artifact   *models.ModelArtifact
	pipeline   *textproc.Pipeline
	vectorizer vectorize.Vectorizer
	classifier classify.Classifier
}

func (m *model) predict(text string) (string, *float64) {
	x := m.vectorizer.Transform(m.pipeline.Run(text).Text)
	idx, confidence := classify.PredictWithConfidence(m.classifier, x)
	return m.artifact.Classes[idx], confidence
}

func (s *Service) load(ctx context.Context, taskID string, algorithm models.Algorithm) (*model, error) {
	artifact, err := s.store.Load(ctx, taskID, algorithm)
	if err != nil {
		return nil, err
	}
	if m, ok := s.restored.Get(artifact.ID); ok {
		return m, nil
	}

	vec, err := vectorize.FromState(artifact.Vectorizer)
	if err != nil {
		return nil, models.NewStageError("represent", -1, err)
	}
	clf, err := classify.FromState(artifact.Classifier)
	if err != nil {
		return nil, models.NewStageError("predict", -1, err)
	}
	if vec.Width() != artifact.Classifier.NumFeatures {
		return nil, models.NewStageError("predict", -1, models.NewValidationError(
			"artifact feature width mismatch: representation %d, classifier %d",
			vec.Width(), artifact.Classifier.NumFeatures,
		))
	}

	m := &model{
		artifact:   artifact,
		pipeline:   textproc.NewPipeline(artifact.Normalization),
		vectorizer: vec,
		classifier: clf,
	}
	s.restored.Add(artifact.ID, m)
	return m, nil
}

// Predict classifies text with the task's active artifact.
func (s *Service) Predict(ctx context.Context, taskID, text string) (*models.Prediction, error) {
	task, err := s.catalog.Lookup(taskID)
	if err != nil {
		return nil, err
	}
	algorithm, err := s.store.Active(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return s.predict(ctx, task, algorithm, text)
}

// PredictWith classifies text with the artifact trained for algorithm, active or not.
func (s *Service) PredictWith(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
	text string,
) (*models.Prediction, error) {
	task, err := s.catalog.Lookup(taskID)
	if err != nil {
		return nil, err
	}
	algorithm, err = models.ParseAlgorithm(string(algorithm))
	if err != nil {
		return nil, err
	}
	return s.predict(ctx, task, algorithm, text)
}

func (s *Service) predict(
	ctx context.Context,
	task models.TaskDefinition,
	algorithm models.Algorithm,
	text string,
) (*models.Prediction, error) {
	m, err := s.load(ctx, task.ID, algorithm)
	if err != nil {
		return nil, err
	}
	raw, confidence := m.predict(text)
	return &models.Prediction{
		TaskID:     task.ID,
		Algorithm:  algorithm,
		Label:      task.DecodeLabel(raw),
		RawLabel:   raw,
		Confidence: confidence,
	}, nil
}

// Compare reports the stored accuracy and a live prediction for every candidate algorithm.
// Empty candidates means every algorithm. Candidates without an artifact are reported with
// models.PlaceholderAccuracy; if none of them is trained the task is not trained.
func (s *Service) Compare(
	ctx context.Context,
	taskID, text string,
	candidates []models.Algorithm,
) (*models.Comparison, error) {
	task, err := s.catalog.Lookup(taskID)
	if err != nil {
		return nil, err
	}
	algorithms, err := canonicalCandidates(candidates)
	if err != nil {
		return nil, err
	}

	comparison := &models.Comparison{
		TaskID:  task.ID,
		Text:    text,
		Entries: make([]models.ComparisonEntry, 0, len(algorithms)),
	}
	bestAccuracy := -1.0
	for _, a := range algorithms {
		entry := models.ComparisonEntry{Algorithm: a, Accuracy: models.PlaceholderAccuracy}

		m, err := s.load(ctx, task.ID, a)
		switch {
		case errors.Is(err, models.ErrNotTrained):
			log.Debugf("compare: no %s artifact for task %s", a, task.ID)
		case err != nil:
			return nil, err
		default:
			raw, confidence := m.predict(text)
			entry.Trained = true
			entry.Accuracy = m.artifact.Metrics.Accuracy
			entry.Prediction = task.DecodeLabel(raw)
			entry.RawLabel = raw
			entry.Confidence = confidence
			entry.TrainedAt = m.artifact.TrainedAt
			if entry.Accuracy > bestAccuracy {
				bestAccuracy = entry.Accuracy
				comparison.Best = a
			}
		}
		comparison.Entries = append(comparison.Entries, entry)
	}

	if comparison.Best == "" {
		return nil, models.NewNotTrainedError(task.ID, "")
	}
	return comparison, nil
}

// canonicalCandidates parses, de-duplicates and orders candidate algorithms.
func canonicalCandidates(candidates []models.Algorithm) ([]models.Algorithm, error) {
	if len(candidates) == 0 {
		out := make([]models.Algorithm, len(models.Algorithms))
		copy(out, models.Algorithms)
		return out, nil
	}
	seen := make(map[models.Algorithm]bool, len(candidates))
	out := make([]models.Algorithm, 0, len(candidates))
	for _, c := range candidates {
		a, err := models.ParseAlgorithm(string(c))
		if err != nil {
			return nil, err
		}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	models.SortAlgorithms(out)
	return out, nil
}
