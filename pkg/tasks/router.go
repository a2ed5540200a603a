package tasks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	wla "github.com/ma-hartma/watermill-logrus-adapter"

	"github.com/getzep/textlab/pkg/models"
)

const TaskCountThrottle = 50 // messages per second
const MaxQueueRetries = 3

// SubscriberFactory returns a new subscriber for one task handler.
type SubscriberFactory func() (message.Subscriber, error)

// Force compiler to validate that TaskRouter implements the models.TaskRouter interface.
var _ models.TaskRouter = &TaskRouter{}

// TaskRouter is a wrapper around watermill's Router that adds some
// functionality for managing tasks and handlers.
type TaskRouter struct {
	*message.Router
	logger        watermill.LoggerAdapter
	newSubscriber SubscriberFactory
	// closed after the router, e.g. the queue's database handle
	closers []io.Closer
}

// NewTaskRouter creates a new TaskRouter whose handlers subscribe through newSubscriber.
func NewTaskRouter(newSubscriber SubscriberFactory, closers ...io.Closer) (*TaskRouter, error) {
	var wlog = wla.NewLogrusLogger(log)

	cfg := message.RouterConfig{}
	router, err := message.NewRouter(cfg, wlog)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		// CorrelationID will copy the correlation id from the incoming message's metadata to the produced messages
		middleware.CorrelationID,

		// Throttle limits the number of messages processed per second.
		middleware.NewThrottle(TaskCountThrottle, time.Second).Middleware,

		// Recoverer handles panics from handlers.
		// In this case, it passes them as errors to the Retry middleware.
		middleware.Recoverer,

		// The handler function is retried if it returns an error.
		// After MaxRetries, the message is Nacked and it's up to the PubSub to resend it.
		middleware.Retry{
			MaxRetries:      MaxQueueRetries,
			InitialInterval: 1 * time.Second,
			Multiplier:      2,
			Logger:          wlog,
		}.Middleware,
	)

	return &TaskRouter{
		Router:        router,
		logger:        wlog,
		newSubscriber: newSubscriber,
		closers:       closers,
	}, nil
}

// AddTask adds a task handler to the router.
func (tr *TaskRouter) AddTask(_ context.Context, name string, taskType models.TaskTopic, task models.Task) {
	subscriber, err := tr.newSubscriber()
	if err != nil {
		log.Fatalf("Failed to create subscriber for task %s: %v", taskType, err)
	}
	tr.AddNoPublisherHandler(
		name,
		string(taskType),
		subscriber,
		TaskHandler(task),
	)
}

func (tr *TaskRouter) Close() (err error) {
	err = tr.Router.Close()
	for _, c := range tr.closers {
		if cErr := c.Close(); err == nil {
			err = cErr
		}
	}
	return err
}

// TaskHandler returns a message handler function for the given task.
// Handlers are NoPublishHandlerFuncs i.e. do not publish messages.
func TaskHandler(task models.Task) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := task.Execute(msg.Context(), msg)
		if err != nil {
			task.HandleError(err)
			return err
		}
		return nil
	}
}

var onceRouter sync.Once

// RunTaskRouter registers the tasks, publishes the router and publisher on appState and runs
// the router in the background. It returns once the router is running.
func RunTaskRouter(
	ctx context.Context,
	appState *models.AppState,
	router *TaskRouter,
	publisher models.TaskPublisher,
) {
	// Run once to avoid test situations where the router is initialized multiple times
	onceRouter.Do(func() {
		Initialize(ctx, appState, router)

		appState.TaskRouter = router
		appState.TaskPublisher = publisher

		go func() {
			log.Info("running task router")
			if err := router.Run(ctx); err != nil {
				log.Errorf("task router stopped: %v", err)
			}
		}()
		<-router.Running()
	})
}
