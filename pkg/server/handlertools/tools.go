package handlertools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/getzep/textlab/internal"
	"github.com/getzep/textlab/pkg/models"
)

var log = internal.GetLogger()

// IntFromQuery extracts a query string value and converts it to an int
// if it is not empty. If the value is empty, it returns 0.
func IntFromQuery[T ~int | int32 | int64](
	r *http.Request,
	param string,
) (T, error) {
	bitsize := 0

	p := r.URL.Query().Get(param)
	var pInt T
	if p != "" {
		switch any(pInt).(type) {
		case int:
		case int32:
			bitsize = 32
		case int64:
			bitsize = 64
		default:
			return 0, errors.New("unsupported type")
		}

		pInt, err := strconv.ParseInt(p, 10, bitsize)
		if err != nil {
			return 0, models.NewValidationError("invalid %s: %q", param, p)
		}
		return T(pInt), nil
	}
	return 0, nil
}

// FloatFromQuery extracts a query string value as a float64. An absent or empty value returns
// nil, so an explicit 0 stays distinguishable from "not given".
func FloatFromQuery(r *http.Request, param string) (*float64, error) {
	p := r.URL.Query().Get(param)
	if p == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return nil, models.NewValidationError("invalid %s: %q", param, p)
	}
	return &f, nil
}

// BoolFromQuery extracts a query string value and converts it to a bool
func BoolFromQuery(r *http.Request, param string) (bool, error) {
	p := r.URL.Query().Get(param)
	if p != "" {
		b, err := strconv.ParseBool(p)
		if err != nil {
			return false, models.NewValidationError("invalid %s: %q", param, p)
		}
		return b, nil
	}
	return false, nil
}

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data interface{}) error {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	return json.NewEncoder(w).Encode(data)
}

// EncodeJSONStatus writes status and then data as JSON.
func EncodeJSONStatus(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the provided data struct.
func DecodeJSON(r *http.Request, data interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return models.NewValidationError("invalid request body: %v", err)
	}
	return nil
}

// StatusFromError maps the error taxonomy to an HTTP status. fallback is returned for errors
// outside the taxonomy.
func StatusFromError(err error, fallback int) int {
	var maxBytesErr *http.MaxBytesError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, models.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrBadRequest), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotTrained), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTrainingTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrLockAcquisitionFailed):
		return http.StatusConflict
	}
	return fallback
}

// RenderError renders an error response. Errors from the error taxonomy override status.
func RenderError(w http.ResponseWriter, err error, status int) {
	status = StatusFromError(err, status)

	if status == http.StatusRequestEntityTooLarge {
		err = fmt.Errorf(
			"request body too large. if you're uploading a dataset, split it or raise server.max_request_size",
		)
	}

	switch {
	case status >= http.StatusInternalServerError:
		log.Error(err)
	case status != http.StatusNotFound:
		// Don't log not found errors
		log.Debug(err)
	}

	http.Error(w, err.Error(), status)
}

// UUIDFromURL parses a UUID from a Path parameter. If the UUID is invalid, an error is
// rendered and uuid.Nil is returned.
func UUIDFromURL(r *http.Request, w http.ResponseWriter, paramName string) uuid.UUID {
	uuidStr := chi.URLParam(r, paramName)
	id, err := uuid.Parse(uuidStr)
	if err != nil {
		RenderError(
			w,
			fmt.Errorf("unable to parse %s: %w", paramName, err),
			http.StatusBadRequest,
		)
		return uuid.Nil
	}
	return id
}
