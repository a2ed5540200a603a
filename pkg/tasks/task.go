package tasks

import (
	"context"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
)

var log = internal.GetLogger()

type BaseTask struct {
	appState *models.AppState
}

func (b *BaseTask) HandleError(err error) {
	log.Errorf("Task HandleError error: %s", err)
}

// Initialize adds every task handler to router.
func Initialize(ctx context.Context, appState *models.AppState, router models.TaskRouter) {
	log.Info("Initializing tasks")

	router.AddTask(
		ctx,
		string(models.ModelTrainerTopic),
		models.ModelTrainerTopic,
		NewModelTrainerTask(appState),
	)
	log.Infof("%s task added to task router", models.ModelTrainerTopic)
}
