package models

import (
	"github.com/getzep/textlab/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	ArtifactStore ArtifactStore
	Catalog       *Catalog
	Trainer       ModelTrainer
	Inference     Inference
	TaskRouter    TaskRouter
	TaskPublisher TaskPublisher
	Jobs          JobRegistry
	Config        *config.Config
}
