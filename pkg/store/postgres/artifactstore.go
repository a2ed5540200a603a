package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/store"
)

var log = internal.GetLogger()

// Force compiler to validate that PostgresArtifactStore implements the ArtifactStore interface.
var _ models.ArtifactStore = &PostgresArtifactStore{}

var _ models.ArtifactVersioner = &PostgresArtifactStore{}

// PostgresArtifactStore keeps artifacts in the model_artifact table. Writers of a task are
// serialized with a transaction-scoped advisory lock.
type PostgresArtifactStore struct {
	db *bun.DB
}

// NewPostgresArtifactStore returns a new PostgresArtifactStore. Use this to correctly
// initialize the store.
func NewPostgresArtifactStore(ctx context.Context, db *bun.DB) (*PostgresArtifactStore, error) {
	if db == nil {
		return nil, store.NewStorageError("nil db received", nil)
	}
	if err := CreateSchema(ctx, db); err != nil {
		return nil, store.NewStorageError("failed to ensure postgres schema setup", err)
	}
	return &PostgresArtifactStore{db: db}, nil
}

func (s *PostgresArtifactStore) GetClient() *bun.DB {
	return s.db
}

// Save upserts the artifact. The first artifact saved for a task becomes its active model.
func (s *PostgresArtifactStore) Save(ctx context.Context, artifact *models.ModelArtifact) error {
	if artifact == nil {
		return store.NewStorageError("nil artifact", nil)
	}
	data, err := store.EncodeArtifact(artifact)
	if err != nil {
		return err
	}

	row := &ArtifactSchema{
		UUID:           artifact.ID,
		TaskID:         artifact.TaskID,
		Algorithm:      string(artifact.Algorithm),
		Representation: string(artifact.Representation),
		FormatVersion:  models.ArtifactFormatVersion,
		Hyperparameter: artifact.Hyperparameter,
		Accuracy:       artifact.Metrics.Accuracy,
		DatasetName:    artifact.DatasetName,
		TrainedAt:      artifact.TrainedAt,
		Data:           data,
	}

	return s.inTaskLock(ctx, artifact.TaskID, func(tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (task_id, algorithm) DO UPDATE").
			Set("uuid = EXCLUDED.uuid").
			Set("representation = EXCLUDED.representation").
			Set("format_version = EXCLUDED.format_version").
			Set("hyperparameter = EXCLUDED.hyperparameter").
			Set("accuracy = EXCLUDED.accuracy").
			Set("dataset_name = EXCLUDED.dataset_name").
			Set("trained_at = EXCLUDED.trained_at").
			Set("updated_at = EXCLUDED.updated_at").
			Set("data = EXCLUDED.data").
			Exec(ctx)
		if err != nil {
			return store.NewStorageError("failed to save artifact", err)
		}

		_, err = tx.NewInsert().
			Model(&ActiveArtifactSchema{TaskID: artifact.TaskID, Algorithm: string(artifact.Algorithm)}).
			On("CONFLICT (task_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return store.NewStorageError("failed to set active artifact", err)
		}
		return nil
	})
}

func (s *PostgresArtifactStore) Load(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
) (*models.ModelArtifact, error) {
	var row ArtifactSchema
	err := s.db.NewSelect().
		Model(&row).
		Where("task_id = ?", taskID).
		Where("algorithm = ?", algorithm).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotTrainedError(taskID, algorithm)
		}
		return nil, store.NewStorageError("failed to load artifact", err)
	}
	return store.DecodeArtifact(row.Data)
}

// Version returns the id of the stored artifact. Every save writes a new id.
func (s *PostgresArtifactStore) Version(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
) (string, error) {
	var id uuid.UUID
	err := s.db.NewSelect().
		Model((*ArtifactSchema)(nil)).
		Column("uuid").
		Where("task_id = ?", taskID).
		Where("algorithm = ?", algorithm).
		Scan(ctx, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.NewNotTrainedError(taskID, algorithm)
		}
		return "", store.NewStorageError("failed to read artifact version", err)
	}
	return id.String(), nil
}

// Delete removes an artifact. When the active artifact is deleted, the most recently trained
// remaining artifact of the task becomes active.
func (s *PostgresArtifactStore) Delete(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
) error {
	return s.inTaskLock(ctx, taskID, func(tx bun.Tx) error {
		r, err := tx.NewDelete().
			Model((*ArtifactSchema)(nil)).
			Where("task_id = ?", taskID).
			Where("algorithm = ?", algorithm).
			Exec(ctx)
		if err != nil {
			return store.NewStorageError("failed to delete artifact", err)
		}
		rowsAffected, err := r.RowsAffected()
		if err != nil {
			return store.NewStorageError("failed to delete artifact", err)
		}
		if rowsAffected == 0 {
			return models.NewNotTrainedError(taskID, algorithm)
		}

		active, err := activeAlgorithm(ctx, tx, taskID)
		if err != nil {
			if errors.Is(err, models.ErrNotTrained) {
				return nil
			}
			return err
		}
		if active != algorithm {
			return nil
		}

		var latest ArtifactSchema
		err = tx.NewSelect().
			Model(&latest).
			Column("algorithm").
			Where("task_id = ?", taskID).
			OrderExpr("trained_at DESC").
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.NewDelete().
				Model((*ActiveArtifactSchema)(nil)).
				Where("task_id = ?", taskID).
				Exec(ctx)
		case err == nil:
			err = upsertActive(ctx, tx, taskID, latest.Algorithm)
		}
		if err != nil {
			return store.NewStorageError("failed to update active artifact", err)
		}
		return nil
	})
}

// List returns the task's artifacts in canonical algorithm order without decoding them.
func (s *PostgresArtifactStore) List(ctx context.Context, taskID string) ([]models.ArtifactSummary, error) {
	var rows []ArtifactSchema
	err := s.db.NewSelect().
		Model(&rows).
		ExcludeColumn("data").
		ColumnExpr("octet_length(data) AS size_bytes").
		Where("task_id = ?", taskID).
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to list artifacts", err)
	}

	active, err := activeAlgorithm(ctx, s.db, taskID)
	if err != nil && !errors.Is(err, models.ErrNotTrained) {
		return nil, err
	}

	algorithms := make([]models.Algorithm, len(rows))
	byAlgorithm := make(map[models.Algorithm]*ArtifactSchema, len(rows))
	for i := range rows {
		a := models.Algorithm(rows[i].Algorithm)
		algorithms[i] = a
		byAlgorithm[a] = &rows[i]
	}
	models.SortAlgorithms(algorithms)

	summaries := make([]models.ArtifactSummary, len(algorithms))
	for i, a := range algorithms {
		summaries[i] = byAlgorithm[a].summary(a == active)
	}
	return summaries, nil
}

func (s *PostgresArtifactStore) SetActive(
	ctx context.Context,
	taskID string,
	algorithm models.Algorithm,
) error {
	return s.inTaskLock(ctx, taskID, func(tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*ArtifactSchema)(nil)).
			Where("task_id = ?", taskID).
			Where("algorithm = ?", algorithm).
			Exists(ctx)
		if err != nil {
			return store.NewStorageError("failed to check artifact", err)
		}
		if !exists {
			return models.NewNotTrainedError(taskID, algorithm)
		}
		if err := upsertActive(ctx, tx, taskID, string(algorithm)); err != nil {
			return store.NewStorageError("failed to set active artifact", err)
		}
		return nil
	})
}

func (s *PostgresArtifactStore) Active(ctx context.Context, taskID string) (models.Algorithm, error) {
	return activeAlgorithm(ctx, s.db, taskID)
}

func (s *PostgresArtifactStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func activeAlgorithm(ctx context.Context, db bun.IDB, taskID string) (models.Algorithm, error) {
	var row ActiveArtifactSchema
	err := db.NewSelect().
		Model(&row).
		Where("task_id = ?", taskID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.NewNotTrainedError(taskID, "")
		}
		return "", store.NewStorageError("failed to read active artifact", err)
	}
	return models.Algorithm(row.Algorithm), nil
}

func upsertActive(ctx context.Context, db bun.IDB, taskID, algorithm string) error {
	_, err := db.NewInsert().
		Model(&ActiveArtifactSchema{TaskID: taskID, Algorithm: algorithm}).
		On("CONFLICT (task_id) DO UPDATE").
		Set("algorithm = EXCLUDED.algorithm").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// inTaskLock runs fn in a transaction holding the task's advisory lock. The lock is released
// when the transaction ends.
func (s *PostgresArtifactStore) inTaskLock(
	ctx context.Context,
	taskID string,
	fn func(tx bun.Tx) error,
) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return store.NewStorageError("failed to begin transaction", err)
	}
	defer rollbackOnError(tx)

	lockRetryPolicy := retrypolicy.Builder[any]().
		HandleErrors(models.ErrLockAcquisitionFailed).
		WithBackoff(200*time.Millisecond, 10*time.Second).
		WithMaxRetries(7).
		Build()

	_, err = failsafe.Get(func() (any, error) {
		return tryAcquireAdvisoryXactLock(ctx, tx, "model_artifact:"+taskID)
	}, lockRetryPolicy)
	if err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return store.NewStorageError("failed to commit transaction", err)
	}
	return nil
}

func generateLockID(key string) int64 {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	hash := hasher.Sum(nil)
	return int64(binary.BigEndian.Uint64(hash[:8]))
}

// tryAcquireAdvisoryXactLock attempts to acquire a transaction-scoped advisory lock with
// pg_try_advisory_xact_lock. It fails immediately if the lock is held elsewhere.
func tryAcquireAdvisoryXactLock(ctx context.Context, tx bun.Tx, key string) (int64, error) {
	lockID := generateLockID(key)

	var acquired bool
	if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock(?)", lockID).Scan(&acquired); err != nil {
		return 0, fmt.Errorf("tryAcquireAdvisoryXactLock: %w", err)
	}
	if !acquired {
		return 0, models.NewAdvisoryLockError(fmt.Errorf("failed to acquire advisory lock for %s", key))
	}
	return lockID, nil
}

// rollbackOnError rolls back the transaction if an error is encountered.
// If the error is sql.ErrTxDone, the transaction has already been committed or rolled back
// and we ignore the error.
func rollbackOnError(tx bun.Tx) {
	if rollBackErr := tx.Rollback(); rollBackErr != nil && !errors.Is(rollBackErr, sql.ErrTxDone) {
		log.Error("failed to rollback transaction", rollBackErr)
	}
}
