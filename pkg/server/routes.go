package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/server/apihandlers"
)

var log = internal.GetLogger()

const ReadHeaderTimeout = 5 * time.Second

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	cfg := appState.Config
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

// @title			textlab REST API
// @version		0.x
// @license.name	Apache 2.0
// @license.url	http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath		/api/v1
// @schemes		http https
func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	if size := appState.Config.Server.MaxRequestSize; size > 0 {
		router.Use(middleware.RequestSize(size))
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Stateless preprocessing routes
		r.Post("/normalize", apihandlers.NormalizeHandler(appState))
		r.Post("/represent", apihandlers.RepresentHandler(appState))
		r.Post("/augment", apihandlers.AugmentHandler(appState))
		r.Post("/datasets/stats", apihandlers.DatasetStatsHandler(appState))

		r.Get("/jobs/{jobId}", apihandlers.GetJobHandler(appState))

		r.Get("/tasks", apihandlers.ListTasksHandler(appState))
		r.Route("/tasks/{taskId}", func(r chi.Router) {
			r.Post("/train", apihandlers.TrainHandler(appState))
			r.Post("/predict", apihandlers.PredictHandler(appState))
			r.Post("/compare", apihandlers.CompareHandler(appState))

			// Stored model routes
			r.Route("/models", func(r chi.Router) {
				r.Get("/", apihandlers.ListModelsHandler(appState))
				r.Route("/{algorithm}", func(r chi.Router) {
					r.Get("/", apihandlers.GetModelHandler(appState))
					r.Delete("/", apihandlers.DeleteModelHandler(appState))
					r.Put("/active", apihandlers.ActivateModelHandler(appState))
				})
			})
		})
	})

	return router
}
