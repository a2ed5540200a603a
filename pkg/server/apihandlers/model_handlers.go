package apihandlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/server/handlertools"
)

// ListTasksHandler godoc
//
//	@Summary	Lists the supported tasks
//	@Tags		tasks
//	@Produce	json
//	@Success	200	{array}		models.TaskDefinition
//	@Failure	500	{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/tasks [get]
func ListTasksHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := handlertools.EncodeJSON(w, appState.Catalog.List()); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// TrainHandler godoc
//
//	@Summary		Trains a model for a task
//	@Description	The dataset is either a JSON body with a "data" array of rows or an upload. Uploads
//	@Description	pass algorithm, representation, hyperparameter, async, activate and timeout_seconds
//	@Description	as query parameters. The artifact is saved as soon as training succeeds. Async
//	@Description	requests return 202 with a job id to poll.
//	@Tags			tasks
//	@Accept			json,mpfd,text/csv
//	@Produce		json
//	@Param			taskId	path		string					true	"Task id or name"
//	@Param			request	body		models.TrainRequestBody	false	"Training request"
//	@Success		200		{object}	models.TrainResponse
//	@Success		202		{object}	models.TrainJobResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		413		{object}	APIError	"Request Entity Too Large"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Failure		504		{object}	APIError	"Training Timed Out"
//	@Router			/api/v1/tasks/{taskId}/train [post]
func TrainHandler(appState *models.AppState) http.HandlerFunc {
	maxSize := appState.Config.Server.MaxRequestSize
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := appState.Catalog.Lookup(chi.URLParam(r, "taskId"))
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		body, ds, err := readTrainRequest(r, maxSize)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		algorithm, err := models.ParseAlgorithm(body.Algorithm)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		representation, err := models.ParseRepresentationMethod(body.Representation)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		normalization, err := normalizationOptions(appState.Config, body.Options)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		if body.Async {
			enqueueTraining(w, appState, models.TrainJobPayload{
				TaskID:         task.ID,
				DatasetName:    ds.Name,
				Algorithm:      algorithm,
				Representation: representation,
				Hyperparameter: body.Hyperparameter,
				Normalization:  normalization,
				Records:        ds.Records(),
				TimeoutSeconds: body.TimeoutSeconds,
				Activate:       body.Activate,
			})
			return
		}

		timeout := body.TimeoutSeconds
		if timeout == 0 {
			timeout = appState.Config.Train.TimeoutSeconds
		}
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
			defer cancel()
		}

		artifact, err := appState.Trainer.Train(ctx, ds, models.TrainRequest{
			TaskID:         task.ID,
			Algorithm:      algorithm,
			Representation: representation,
			Hyperparameter: body.Hyperparameter,
			Normalization:  normalization,
		})
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		store := appState.ArtifactStore
		if err := store.Save(r.Context(), artifact); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if body.Activate {
			if err := store.SetActive(r.Context(), task.ID, algorithm); err != nil {
				handlertools.RenderError(w, err, http.StatusInternalServerError)
				return
			}
		}
		active, err := store.Active(r.Context(), task.ID)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		response := models.TrainResponse{
			Model:   artifact.Summary(active == algorithm),
			Metrics: artifact.Metrics,
		}
		if err := handlertools.EncodeJSON(w, response); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

func enqueueTraining(w http.ResponseWriter, appState *models.AppState, payload models.TrainJobPayload) {
	job := appState.Jobs.Create(payload.TaskID, payload.Algorithm)
	payload.JobID = job.ID

	err := appState.TaskPublisher.Publish(
		models.ModelTrainerTopic,
		map[string]string{"job_id": job.ID.String(), "task_id": payload.TaskID},
		payload,
	)
	if err != nil {
		log.Errorf("failed to publish training job %s: %v", job.ID, err)
		appState.Jobs.Update(job.ID, models.JobFailed, nil, err)
		handlertools.RenderError(w, err, http.StatusInternalServerError)
		return
	}

	response := models.TrainJobResponse{JobID: job.ID, Status: job.Status}
	if err := handlertools.EncodeJSONStatus(w, http.StatusAccepted, response); err != nil {
		log.Errorf("failed to encode job response: %v", err)
	}
}

// readTrainRequest reads either a JSON TrainRequestBody or an upload plus query parameters.
func readTrainRequest(r *http.Request, maxSize int64) (models.TrainRequestBody, *models.Dataset, error) {
	var body models.TrainRequestBody

	if !isUpload(r) {
		if err := handlertools.DecodeJSON(r, &body); err != nil {
			return body, nil, err
		}
		if err := validate.Struct(body); err != nil {
			return body, nil, err
		}
		records, err := dataset.FromRows(body.Data)
		if err != nil {
			return body, nil, err
		}
		name := body.DatasetName
		if name == "" {
			name = "request"
		}
		return body, dataset.New(name, records), nil
	}

	ds, err := readUpload(r, maxSize)
	if err != nil {
		return body, nil, err
	}

	query := r.URL.Query()
	body.Algorithm = query.Get("algorithm")
	body.Representation = query.Get("representation")
	body.DatasetName = ds.Name
	if body.Hyperparameter, err = handlertools.FloatFromQuery(r, "hyperparameter"); err != nil {
		return body, nil, err
	}
	if body.Async, err = handlertools.BoolFromQuery(r, "async"); err != nil {
		return body, nil, err
	}
	if body.Activate, err = handlertools.BoolFromQuery(r, "activate"); err != nil {
		return body, nil, err
	}
	if body.TimeoutSeconds, err = handlertools.IntFromQuery[int](r, "timeout_seconds"); err != nil {
		return body, nil, err
	}
	if body.Options, err = optionsFromForm(r); err != nil {
		return body, nil, err
	}
	if err := validate.StructExcept(body, "Data"); err != nil {
		return body, nil, err
	}
	return body, ds, nil
}

// GetJobHandler godoc
//
//	@Summary	Returns the status of an asynchronous training job
//	@Tags		jobs
//	@Produce	json
//	@Param		jobId	path		string	true	"Job id"
//	@Success	200		{object}	models.TrainJob
//	@Failure	400		{object}	APIError	"Bad Request"
//	@Failure	404		{object}	APIError	"Not Found"
//	@Router		/api/v1/jobs/{jobId} [get]
func GetJobHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := handlertools.UUIDFromURL(r, w, "jobId")
		if jobID == uuid.Nil {
			return
		}

		job, err := appState.Jobs.Get(jobID)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if err := handlertools.EncodeJSON(w, job); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// ListModelsHandler godoc
//
//	@Summary	Lists the trained models of a task
//	@Tags		models
//	@Produce	json
//	@Param		taskId	path		string	true	"Task id or name"
//	@Success	200		{array}		models.ArtifactSummary
//	@Failure	400		{object}	APIError	"Bad Request"
//	@Failure	500		{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/tasks/{taskId}/models [get]
func ListModelsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := appState.Catalog.Lookup(chi.URLParam(r, "taskId"))
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		summaries, err := appState.ArtifactStore.List(r.Context(), task.ID)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		if summaries == nil {
			summaries = []models.ArtifactSummary{}
		}
		if err := handlertools.EncodeJSON(w, summaries); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetModelHandler godoc
//
//	@Summary	Returns a trained model and its evaluation report
//	@Tags		models
//	@Produce	json
//	@Param		taskId		path		string	true	"Task id or name"
//	@Param		algorithm	path		string	true	"Algorithm"
//	@Success	200			{object}	models.ModelDetail
//	@Failure	400			{object}	APIError	"Bad Request"
//	@Failure	404			{object}	APIError	"Not Trained"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/tasks/{taskId}/models/{algorithm} [get]
func GetModelHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, algorithm, err := taskAndAlgorithmFromURL(appState, r)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		store := appState.ArtifactStore
		artifact, err := store.Load(r.Context(), task.ID, algorithm)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		active, err := store.Active(r.Context(), task.ID)
		if err != nil && !errors.Is(err, models.ErrNotTrained) {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		var detail models.ModelDetail
		if err := copier.Copy(&detail, artifact); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		detail.Active = active == algorithm

		if err := handlertools.EncodeJSON(w, detail); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// DeleteModelHandler godoc
//
//	@Summary		Deletes a trained model
//	@Description	Deleting the active model activates the most recently trained remaining one.
//	@Tags			models
//	@Produce		json
//	@Param			taskId		path		string	true	"Task id or name"
//	@Param			algorithm	path		string	true	"Algorithm"
//	@Success		200			{object}	string		"OK"
//	@Failure		400			{object}	APIError	"Bad Request"
//	@Failure		404			{object}	APIError	"Not Trained"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/tasks/{taskId}/models/{algorithm} [delete]
func DeleteModelHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, algorithm, err := taskAndAlgorithmFromURL(appState, r)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		if err := appState.ArtifactStore.Delete(r.Context(), task.ID, algorithm); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(OKResponse)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// ActivateModelHandler godoc
//
//	@Summary	Selects the model used for predictions of a task
//	@Tags		models
//	@Produce	json
//	@Param		taskId		path		string	true	"Task id or name"
//	@Param		algorithm	path		string	true	"Algorithm"
//	@Success	200			{object}	string		"OK"
//	@Failure	400			{object}	APIError	"Bad Request"
//	@Failure	404			{object}	APIError	"Not Trained"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/tasks/{taskId}/models/{algorithm}/active [put]
func ActivateModelHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, algorithm, err := taskAndAlgorithmFromURL(appState, r)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		if err := appState.ArtifactStore.SetActive(r.Context(), task.ID, algorithm); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(OKResponse)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

func taskAndAlgorithmFromURL(
	appState *models.AppState,
	r *http.Request,
) (models.TaskDefinition, models.Algorithm, error) {
	task, err := appState.Catalog.Lookup(chi.URLParam(r, "taskId"))
	if err != nil {
		return task, "", err
	}
	algorithm, err := models.ParseAlgorithm(chi.URLParam(r, "algorithm"))
	if err != nil {
		return task, "", err
	}
	return task, algorithm, nil
}
