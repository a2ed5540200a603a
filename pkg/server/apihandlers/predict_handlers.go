package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/server/handlertools"
)

// PredictHandler godoc
//
//	@Summary		Classifies a text
//	@Description	Uses the task's active model unless an algorithm is named.
//	@Tags			predict
//	@Accept			json
//	@Produce		json
//	@Param			taskId	path		string					true	"Task id or name"
//	@Param			request	body		models.PredictRequest	true	"Text to classify"
//	@Success		200		{object}	models.Prediction
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		404		{object}	APIError	"Not Trained"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/tasks/{taskId}/predict [post]
func PredictHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskId")

		var request models.PredictRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		var (
			prediction *models.Prediction
			err        error
		)
		if request.Algorithm == "" {
			prediction, err = appState.Inference.Predict(r.Context(), taskID, request.Text)
		} else {
			prediction, err = appState.Inference.PredictWith(
				r.Context(),
				taskID,
				models.Algorithm(request.Algorithm),
				request.Text,
			)
		}
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, prediction); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// CompareHandler godoc
//
//	@Summary		Compares algorithms on a text
//	@Description	Reports the stored test accuracy and a live prediction for each requested algorithm,
//	@Description	or for every algorithm when none are given. Untrained algorithms are listed with a
//	@Description	placeholder accuracy of 0.
//	@Tags			predict
//	@Accept			json
//	@Produce		json
//	@Param			taskId	path		string					true	"Task id or name"
//	@Param			request	body		models.CompareRequest	true	"Text and algorithms"
//	@Success		200		{object}	models.Comparison
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		404		{object}	APIError	"Not Trained"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/tasks/{taskId}/compare [post]
func CompareHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := chi.URLParam(r, "taskId")

		var request models.CompareRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		candidates := make([]models.Algorithm, len(request.Algorithms))
		for i, a := range request.Algorithms {
			candidates[i] = models.Algorithm(a)
		}

		comparison, err := appState.Inference.Compare(r.Context(), taskID, request.Text, candidates)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, comparison); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
