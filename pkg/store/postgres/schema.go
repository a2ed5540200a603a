package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/store"
	"github.com/getzep/textlab/pkg/store/postgres/migrations"
)

// ArtifactSchema stores one encoded ModelArtifact per (task_id, algorithm). The summary
// columns duplicate fields of Data so listings never decode the blob.
type ArtifactSchema struct {
	bun.BaseModel `bun:"table:model_artifact,alias:ma" yaml:"-"`

	UUID           uuid.UUID `bun:",pk,type:uuid"                                               yaml:"uuid"`
	TaskID         string    `bun:",notnull,unique:task_algorithm"                              yaml:"task_id"`
	Algorithm      string    `bun:",notnull,unique:task_algorithm"                              yaml:"algorithm"`
	Representation string    `bun:",notnull"                                                    yaml:"representation"`
	FormatVersion  string    `bun:",notnull"                                                    yaml:"format_version"`
	Hyperparameter float64   `bun:",notnull"                                                    yaml:"hyperparameter"`
	Accuracy       float64   `bun:",notnull"                                                    yaml:"accuracy"`
	DatasetName    string    `bun:",nullzero"                                                   yaml:"dataset_name,omitempty"`
	TrainedAt      time.Time `bun:"type:timestamptz,notnull"                                    yaml:"trained_at"`
	CreatedAt      time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"created_at,omitempty"`
	UpdatedAt      time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"updated_at,omitempty"`
	Data           []byte    `bun:"type:bytea,notnull"                                          yaml:"-"`
	SizeBytes      int       `bun:",scanonly"                                                   yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*ArtifactSchema)(nil)

func (s *ArtifactSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *ArtifactSchema) summary(active bool) models.ArtifactSummary {
	return models.ArtifactSummary{
		ID:             s.UUID,
		TaskID:         s.TaskID,
		Algorithm:      models.Algorithm(s.Algorithm),
		Representation: models.RepresentationMethod(s.Representation),
		Hyperparameter: s.Hyperparameter,
		Accuracy:       s.Accuracy,
		TrainedAt:      s.TrainedAt.UTC(),
		DatasetName:    s.DatasetName,
		Active:         active,
		SizeBytes:      s.SizeBytes,
	}
}

// ActiveArtifactSchema records which algorithm answers predictions for a task.
type ActiveArtifactSchema struct {
	bun.BaseModel `bun:"table:active_artifact,alias:aa" yaml:"-"`

	TaskID    string    `bun:",pk"                                                          yaml:"task_id"`
	Algorithm string    `bun:",notnull"                                                     yaml:"algorithm"`
	UpdatedAt time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"updated_at,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*ActiveArtifactSchema)(nil)

func (s *ActiveArtifactSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		s.UpdatedAt = time.Now()
	}
	return nil
}

var tableList = []any{
	&ArtifactSchema{},
	&ActiveArtifactSchema{},
}

// CreateSchema creates the artifact tables if they are missing and applies migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, schema := range tableList {
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	if err := migrations.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// NewPostgresConn opens a connection pool for cfg.Store.Postgres.DSN and verifies it with a ping.
func NewPostgresConn(cfg *config.Config) (*bun.DB, error) {
	if cfg.Store.Postgres.DSN == "" {
		return nil, store.NewStorageError("store.postgres.dsn must be set", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.Store.Postgres.DSN),
			pgdriver.WithReadTimeout(time.Minute),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Log.Level == "debug" {
		pgDebugLogging(db)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, store.NewStorageError("failed to connect to postgres", err)
	}

	return db, nil
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}
