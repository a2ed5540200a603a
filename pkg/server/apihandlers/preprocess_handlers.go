package apihandlers

import (
	"net/http"

	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/server/handlertools"
	"github.com/getzep/textlab/pkg/textproc"
	"github.com/getzep/textlab/pkg/vectorize"
)

// NormalizeHandler godoc
//
//	@Summary		Normalizes records
//	@Description	Runs each record through the normalization pipeline. Options not set in the request
//	@Description	fall back to the configured defaults. Records are never dropped.
//	@Tags			preprocess
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.NormalizeRequest	true	"Records and options"
//	@Success		200		{object}	models.NormalizeResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/normalize [post]
func NormalizeHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.NormalizeRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		opts, err := normalizationOptions(appState.Config, request.Options)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		response := models.NormalizeResponse{
			Records: textproc.NormalizeRecords(request.Records, opts),
		}
		if err := handlertools.EncodeJSON(w, response); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// RepresentHandler godoc
//
//	@Summary		Vectorizes records
//	@Description	Fits the requested representation on the submitted texts and returns one vector per
//	@Description	record. Text is normalized first when options are given.
//	@Tags			preprocess
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.RepresentRequest	true	"Records and method"
//	@Success		200		{object}	models.RepresentResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/represent [post]
func RepresentHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.RepresentRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		method, err := models.ParseRepresentationMethod(request.Method)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		texts := make([]string, len(request.Records))
		for i, rec := range request.Records {
			texts[i] = rec.Text
		}
		if request.Options != nil {
			opts, err := normalizationOptions(appState.Config, request.Options)
			if err != nil {
				handlertools.RenderError(w, err, http.StatusBadRequest)
				return
			}
			texts = textproc.NormalizeTexts(texts, opts)
		}

		vec, err := vectorize.New(method, vectorizeOptions(appState.Config, request.MaxFeatures))
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := vec.Fit(texts); err != nil {
			handlertools.RenderError(w, models.NewStageError("represent", -1, err), http.StatusBadRequest)
			return
		}

		vectors := vec.TransformMany(texts)
		records := make([]models.RepresentedRecord, len(request.Records))
		for i, rec := range request.Records {
			records[i] = models.RepresentedRecord{
				Text:   texts[i],
				Label:  rec.Label,
				Vector: vectors[i],
			}
		}

		response := models.RepresentResponse{
			Method:   method,
			Features: vec.Features(),
			Records:  records,
		}
		if err := handlertools.EncodeJSON(w, response); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// DatasetStatsHandler godoc
//
//	@Summary		Describes a dataset
//	@Description	Accepts a CSV or JSON upload in the "file" field, a text/csv body or JSON rows and
//	@Description	returns record counts, the label distribution and the average text length.
//	@Tags			datasets
//	@Accept			json,mpfd,text/csv
//	@Produce		json
//	@Param			name	query		string	false	"Dataset name"
//	@Success		200		{object}	models.DatasetStatsResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		413		{object}	APIError	"Request Entity Too Large"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/datasets/stats [post]
func DatasetStatsHandler(appState *models.AppState) http.HandlerFunc {
	maxSize := appState.Config.Server.MaxRequestSize
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := readDataset(r, maxSize)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		response := models.DatasetStatsResponse{Name: ds.Name, DatasetStats: ds.Stats()}
		if err := handlertools.EncodeJSON(w, response); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// AugmentHandler godoc
//
//	@Summary		Augments records
//	@Description	Naive baselines only: "synonym" swaps words from a small fixed thesaurus with the
//	@Description	given probability, "back-translation" rewrites phrases from a fixed table.
//	@Tags			preprocess
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.AugmentRequest	true	"Records and method"
//	@Success		200		{object}	models.AugmentResponse
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/augment [post]
func AugmentHandler(_ *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.AugmentRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(request); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		augmenter, err := dataset.NewAugmenter(request.Method, request.Probability, request.Seed)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		response := models.AugmentResponse{
			Method:  augmenter.Name(),
			Records: augmenter.Augment(request.Records),
		}
		if err := handlertools.EncodeJSON(w, response); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
