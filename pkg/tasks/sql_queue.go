package tasks

import (
	"database/sql"

	"github.com/ThreeDotsLabs/watermill"
	wsql "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	wla "github.com/ma-hartma/watermill-logrus-adapter"
)

// NewPostgresConnForQueue opens the queue's own connection pool. It must not be a bun.DB, as
// bun runs at an isolation level that is incompatible with watermill's SQL subscriber.
func NewPostgresConnForQueue(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewSQLQueuePublisher(db *sql.DB, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return wsql.NewPublisher(
		db,
		wsql.PublisherConfig{
			SchemaAdapter:        wsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		logger,
	)
}

func NewSQLQueueSubscriber(db *sql.DB, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return wsql.NewSubscriber(
		db,
		wsql.SubscriberConfig{
			SchemaAdapter:    wsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   &wsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
		},
		logger,
	)
}

// NewSQLQueue returns a router and publisher backed by Postgres tables. Queued jobs survive a
// restart.
func NewSQLQueue(db *sql.DB) (*TaskRouter, *TaskPublisher, error) {
	wlog := wla.NewLogrusLogger(log)
	publisher, err := NewSQLQueuePublisher(db, wlog)
	if err != nil {
		return nil, nil, err
	}
	router, err := NewTaskRouter(func() (message.Subscriber, error) {
		return NewSQLQueueSubscriber(db, wlog)
	}, db)
	if err != nil {
		return nil, nil, err
	}
	return router, NewTaskPublisher(publisher), nil
}

// NewChannelQueue returns an in-process router and publisher. Queued jobs are lost on exit.
func NewChannelQueue() (*TaskRouter, *TaskPublisher, error) {
	wlog := wla.NewLogrusLogger(log)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlog)
	router, err := NewTaskRouter(func() (message.Subscriber, error) {
		return pubSub, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return router, NewTaskPublisher(pubSub), nil
}
