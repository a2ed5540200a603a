package apihandlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/getzep/textlab/config"
	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/dataset"
	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/vectorize"
)

var log = internal.GetLogger()

var validate = validator.New()

const uploadField = "file"

// normalizationOptions overlays the configured defaults and then the request options onto
// models.DefaultNormalizationOptions.
func normalizationOptions(cfg *config.Config, overrides map[string]any) (models.NormalizationOptions, error) {
	opts := models.DefaultNormalizationOptions()
	if cfg != nil && len(cfg.Normalization) > 0 {
		defaults := make(map[string]any, len(cfg.Normalization))
		for k, v := range cfg.Normalization {
			defaults[k] = v
		}
		var err error
		opts, err = models.NormalizationOptionsFromMap(opts, defaults)
		if err != nil {
			return opts, err
		}
	}
	return models.NormalizationOptionsFromMap(opts, overrides)
}

func vectorizeOptions(cfg *config.Config, maxFeatures int) vectorize.Options {
	opts := vectorize.DefaultOptions()
	if cfg != nil {
		opts = vectorize.Options{
			MaxFeatures:  cfg.Vectorize.MaxFeatures,
			EmbeddingDim: cfg.Vectorize.EmbeddingDim,
			Window:       cfg.Vectorize.Window,
			MinCount:     cfg.Vectorize.MinCount,
			Noise:        cfg.Vectorize.Noise,
		}
	}
	if maxFeatures > 0 {
		opts.MaxFeatures = maxFeatures
	}
	return opts
}

// isUpload reports whether the request carries a dataset file rather than a JSON body.
func isUpload(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data" || mediaType == "text/csv"
}

// readUpload loads a dataset from a multipart "file" field or a raw text/csv body. The name
// query parameter overrides the uploaded file name.
func readUpload(r *http.Request, maxSize int64) (*models.Dataset, error) {
	name := r.URL.Query().Get("name")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		if name == "" {
			name = "upload.csv"
		}
		return dataset.Load(r.Body, name, dataset.FormatCSV)
	}

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, models.NewValidationError("invalid multipart upload: %v", err)
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, models.NewValidationError("missing %q upload field", uploadField)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, models.NewStageError("load", -1, err)
	}
	head = head[:n]
	format, err := dataset.DetectFormat(header.Filename, head)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = header.Filename
	}
	return dataset.Load(io.MultiReader(bytes.NewReader(head), file), name, format)
}

// readDataset accepts an upload or a JSON body holding a row array or {"data": [...]}.
func readDataset(r *http.Request, maxSize int64) (*models.Dataset, error) {
	if isUpload(r) {
		return readUpload(r, maxSize)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, models.NewStageError("load", -1, err)
	}
	records, err := dataset.ParseJSON(body)
	if err != nil {
		return nil, err
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "request"
	}
	return dataset.New(name, records), nil
}

// optionsFromForm reads normalization options passed as a JSON object in the "options" form
// value or query parameter of an upload.
func optionsFromForm(r *http.Request) (map[string]any, error) {
	raw := strings.TrimSpace(r.FormValue("options"))
	if raw == "" {
		return nil, nil
	}
	var opts map[string]any
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, models.NewValidationError("options must be a JSON object: %v", err)
	}
	return opts, nil
}
