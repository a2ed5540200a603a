package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/classify"
	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/textproc"
	"github.com/getzep/textlab/pkg/vectorize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/getzep/textlab/config"
)

var log = internal.GetLogger()

// ErrSingleClass is returned when the labeled records carry fewer than two distinct labels.
var ErrSingleClass = models.NewValidationError("training data must contain at least two distinct labels")

// Trainer runs the split -> normalize -> represent -> train -> evaluate sequence.
type Trainer struct {
	Vectorize    vectorize.Options
	TestFraction float64
	Seed         int64
	Logger       internal.LeveledLogger

	// slots bounds concurrent trainings when set. A slot is held until the training goroutine
	// returns, including after the caller has given up on it.
	slots *semaphore.Weighted
	// onStage is called at every stage boundary
	onStage func(stage string)
}

func NewTrainer(opts vectorize.Options) *Trainer {
	return &Trainer{
		Vectorize:    opts,
		TestFraction: DefaultTestFraction,
		Seed:         DefaultSeed,
		Logger:       internal.NewLeveledLogrus(log),
	}
}

// NewTrainerFromConfig returns a Trainer using the configured vectorizer options. At most
// cfg.Train.Workers trainings run at once.
func NewTrainerFromConfig(cfg *config.Config) *Trainer {
	t := NewTrainer(vectorize.Options{
		MaxFeatures:  cfg.Vectorize.MaxFeatures,
		EmbeddingDim: cfg.Vectorize.EmbeddingDim,
		Window:       cfg.Vectorize.Window,
		MinCount:     cfg.Vectorize.MinCount,
		Noise:        cfg.Vectorize.Noise,
	})
	if cfg.Train.Workers > 0 {
		t.slots = semaphore.NewWeighted(int64(cfg.Train.Workers))
	}
	return t
}

// Train trains with default vectorizer options.
func Train(ctx context.Context, ds *models.Dataset, req models.TrainRequest) (*models.ModelArtifact, error) {
	return NewTrainer(vectorize.DefaultOptions()).Train(ctx, ds, req)
}

type result struct {
	artifact *models.ModelArtifact
	err      error
}

// Train validates the request, then trains in a separate goroutine so a ctx deadline can abandon
// it. On deadline or cancellation ErrTrainingTimeout is returned and any late result is
// discarded.
func (t *Trainer) Train(
	ctx context.Context,
	ds *models.Dataset,
	req models.TrainRequest,
) (*models.ModelArtifact, error) {
	req, err := t.validate(ds, req)
	if err != nil {
		return nil, err
	}

	if t.slots != nil {
		if err := t.slots.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrTrainingTimeout, err)
		}
	}

	done := make(chan result, 1)
	go func() {
		if t.slots != nil {
			defer t.slots.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: models.NewStageError("train", -1, fmt.Errorf("panic: %v", r))}
			}
		}()
		a, err := t.train(ctx, ds, req)
		done <- result{artifact: a, err: err}
	}()

	select {
	case <-ctx.Done():
		t.Logger.Warn("training abandoned", "task", req.TaskID, "model.name", req.Algorithm)
		return nil, fmt.Errorf("%w: %w", models.ErrTrainingTimeout, ctx.Err())
	case r := <-done:
		if r.err != nil && (errors.Is(r.err, context.DeadlineExceeded) || errors.Is(r.err, context.Canceled)) {
			return nil, fmt.Errorf("%w: %w", models.ErrTrainingTimeout, r.err)
		}
		return r.artifact, r.err
	}
}

func (t *Trainer) validate(ds *models.Dataset, req models.TrainRequest) (models.TrainRequest, error) {
	if req.TaskID == "" {
		return req, models.NewValidationError("task id is required")
	}
	algorithm, err := models.ParseAlgorithm(string(req.Algorithm))
	if err != nil {
		return req, err
	}
	req.Algorithm = algorithm

	method, err := models.ParseRepresentationMethod(string(req.Representation))
	if err != nil {
		return req, err
	}
	req.Representation = method

	hyperparameter := algorithm.DefaultHyperparameter()
	if req.Hyperparameter != nil {
		hyperparameter = *req.Hyperparameter
	}
	if err := algorithm.ValidateHyperparameter(hyperparameter); err != nil {
		return req, err
	}
	req.Hyperparameter = &hyperparameter

	if ds == nil || ds.Len() == 0 {
		return req, models.NewValidationError("dataset is empty")
	}
	stats := ds.Stats()
	if stats.LabeledCount == 0 {
		return req, models.NewValidationError("dataset has no labeled records")
	}
	if len(stats.LabelDistribution) < 2 {
		return req, ErrSingleClass
	}
	if stats.LabeledCount < 2 {
		return req, models.NewValidationError("at least two labeled records are required")
	}
	return req, nil
}

func (t *Trainer) train(
	ctx context.Context,
	ds *models.Dataset,
	req models.TrainRequest,
) (*models.ModelArtifact, error) {
	started := time.Now()
	records := dataset.Labeled(ds.Records())

	classes := make([]string, 0)
	for label := range ds.Stats().LabelDistribution {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	trainIdx, testIdx := Split(len(records), t.TestFraction, t.Seed)
	trainText, trainY := t.prepare(records, trainIdx, classIndex, req.Normalization)
	testText, testY := t.prepare(records, testIdx, classIndex, req.Normalization)
	if err := t.checkpoint(ctx, "represent"); err != nil {
		return nil, err
	}

	vec, err := vectorize.New(req.Representation, t.Vectorize)
	if err != nil {
		return nil, err
	}
	if err := vec.Fit(trainText); err != nil {
		return nil, models.NewStageError("represent", -1, err)
	}
	if err := t.checkpoint(ctx, "transform"); err != nil {
		return nil, err
	}
	trainX := vec.TransformMany(trainText)
	testX := vec.TransformMany(testText)
	if err := t.checkpoint(ctx, "train"); err != nil {
		return nil, err
	}

	t.Logger.Info("training model",
		"model.name", req.Algorithm,
		"data.samples", len(trainX),
		"data.features", vec.Width(),
		"ml.operation", "train",
	)

	clf, err := classify.New(req.Algorithm, *req.Hyperparameter)
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(ctx, trainX, trainY, len(classes)); err != nil {
		return nil, models.NewStageError("train", -1, err)
	}

	if err := t.checkpoint(ctx, "evaluate"); err != nil {
		return nil, err
	}
	yTrue := make([]string, len(testX))
	yPred := make([]string, len(testX))
	for i, x := range testX {
		yTrue[i] = classes[testY[i]]
		yPred[i] = classes[clf.Predict(x)]
	}
	accuracy, labels, matrix := Evaluate(yTrue, yPred)

	report := models.EvaluationReport{
		Accuracy:        accuracy,
		Labels:          labels,
		ConfusionMatrix: matrix,
		TrainSize:       len(trainX),
		TestSize:        len(testX),
		FeatureCount:    vec.Width(),
	}

	if req.Algorithm.IsLinear() {
		if fw, ok := clf.(classify.FeatureWeighter); ok {
			report.TopFeatures = TopFeatures(vec.Features(), fw.FeatureImportance(), TopFeatureCount)
		}
	}
	if req.Algorithm.IsInstanceBased() {
		points, err := classify.Project2D(ctx, testX, classify.TSNEOptions{Seed: t.Seed})
		if err != nil {
			return nil, models.NewStageError("evaluate", -1, err)
		}
		report.ClusterProjection = make([]models.ProjectedPoint, len(points))
		for i, p := range points {
			report.ClusterProjection[i] = models.ProjectedPoint{X: p[0], Y: p[1], Label: yTrue[i]}
		}
	}

	log.WithFields(logrus.Fields{
		"model.name":    req.Algorithm,
		"task":          req.TaskID,
		"accuracy":      accuracy,
		"ml.operation":  "evaluate",
		"data.samples":  len(testX),
		"ml.duration_s": time.Since(started).Seconds(),
	}).Info("model trained")

	return &models.ModelArtifact{
		ID:             uuid.New(),
		FormatVersion:  models.ArtifactFormatVersion,
		TaskID:         req.TaskID,
		Algorithm:      req.Algorithm,
		Representation: req.Representation,
		Normalization:  req.Normalization,
		Hyperparameter: *req.Hyperparameter,
		Classes:        classes,
		TrainedAt:      time.Now().UTC(),
		DatasetName:    ds.Name,
		Metrics:        report,
		Vectorizer:     vec.State(),
		Classifier:     clf.State(),
	}, nil
}

// checkpoint stops a training whose caller has gone away before the next stage starts.
func (t *Trainer) checkpoint(ctx context.Context, stage string) error {
	if t.onStage != nil {
		t.onStage(stage)
	}
	return ctx.Err()
}

// prepare normalizes the selected records and maps their labels to class indices.
func (t *Trainer) prepare(
	records []models.Record,
	idx []int,
	classIndex map[string]int,
	opts models.NormalizationOptions,
) ([]string, []int) {
	texts := make([]string, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		texts[i] = records[j].Text
		y[i] = classIndex[*records[j].Label]
	}
	return textproc.NormalizeTexts(texts, opts), y
}
