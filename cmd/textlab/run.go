package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/pkg/inference"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/server"
	"github.com/getzep/textlab/pkg/store"
	"github.com/getzep/textlab/pkg/store/filestore"
	"github.com/getzep/textlab/pkg/store/postgres"
	"github.com/getzep/textlab/pkg/tasks"
	"github.com/getzep/textlab/pkg/training"
)

const (
	ShutdownTimeout = 30 * time.Second
	JobRetention    = 24 * time.Hour
)

// run is the entrypoint for the textlab server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring textlab: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting textlab server version %s", config.VersionString)

	config.SetLogLevel(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appState, err := NewAppState(ctx, cfg)
	if err != nil {
		log.Fatalf("Error initializing textlab: %s", err)
	}
	defer closeAppState(appState)

	router, publisher, err := newTaskQueue(cfg)
	if err != nil {
		log.Fatalf("Error initializing task queue: %s", err)
	}
	tasks.RunTaskRouter(ctx, appState, router, publisher)

	srv := server.Create(appState)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Listening on: %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(err)
	}
}

// NewAppState creates an AppState from the config file / ENV: the artifact store, the trainer,
// the inference service and the job registry. The task router is attached by RunTaskRouter.
func NewAppState(ctx context.Context, cfg *config.Config) (*models.AppState, error) {
	artifactStore, err := newArtifactStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog := models.DefaultCatalog()
	appState := &models.AppState{
		ArtifactStore: artifactStore,
		Catalog:       catalog,
		Trainer:       training.NewTrainerFromConfig(cfg),
		Inference:     inference.NewService(artifactStore, catalog),
		Jobs:          tasks.NewMemoryJobRegistry(JobRetention),
		Config:        cfg,
	}

	log.Info("Using artifact store: ", cfg.Store.Type)
	return appState, nil
}

// newArtifactStore initializes the artifact store based on the config file / ENV
func newArtifactStore(ctx context.Context, cfg *config.Config) (models.ArtifactStore, error) {
	var (
		artifactStore models.ArtifactStore
		err           error
	)
	switch cfg.Store.Type {
	case config.StoreTypeFile:
		artifactStore, err = filestore.NewFileStore(cfg.Store.File.Root)
	case config.StoreTypePostgres:
		db, dbErr := postgres.NewPostgresConn(cfg)
		if dbErr != nil {
			return nil, dbErr
		}
		artifactStore, err = postgres.NewPostgresArtifactStore(ctx, db)
	default:
		return nil, fmt.Errorf("store.type (%s) is not supported", cfg.Store.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Store.CacheSize <= 0 {
		return artifactStore, nil
	}
	return store.NewCachedStore(artifactStore, cfg.Store.CacheSize)
}

// newTaskQueue returns a Postgres backed queue with the postgres store and an in-process queue
// otherwise.
func newTaskQueue(cfg *config.Config) (*tasks.TaskRouter, *tasks.TaskPublisher, error) {
	if cfg.Store.Type != config.StoreTypePostgres {
		return tasks.NewChannelQueue()
	}
	db, err := tasks.NewPostgresConnForQueue(cfg.Store.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	return tasks.NewSQLQueue(db)
}

func closeAppState(appState *models.AppState) {
	if appState.TaskRouter != nil {
		if err := appState.TaskRouter.Close(); err != nil {
			log.Errorf("Error closing task router: %v", err)
		}
	}
	if appState.TaskPublisher != nil {
		if err := appState.TaskPublisher.Close(); err != nil {
			log.Errorf("Error closing task publisher: %v", err)
		}
	}
	if err := appState.ArtifactStore.Close(); err != nil {
		log.Errorf("Error closing artifact store: %v", err)
	}
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			log.Fatalf("Error dumping config: %s", err)
		}
		fmt.Print(string(out))
		os.Exit(0)
	}
}
